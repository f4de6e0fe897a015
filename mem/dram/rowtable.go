package dram

import (
	"fmt"

	"github.com/google/btree"
)

// A rowEntry tracks one open row. The key is the row-group (the address
// vector up to, excluding, the row level).
type rowEntry struct {
	group     []int
	row       int
	hits      int
	timestamp int64
}

func (e *rowEntry) Less(than btree.Item) bool {
	return compareInts(e.group, than.(*rowEntry).group) < 0
}

// A RowTable tracks which row is open in every bank or subarray of one
// controller. Entries are kept sorted by row-group so iteration order,
// and with it precharge victim selection, is deterministic.
type RowTable struct {
	spec  Spec
	table *btree.BTree
}

// NewRowTable creates an empty row table for the given spec.
func NewRowTable(spec Spec) *RowTable {
	return &RowTable{
		spec:  spec,
		table: btree.New(2),
	}
}

// Update applies a command to the table. Opening inserts a fresh entry
// for the command's row-group. Accessing requires an entry with the same
// row to exist and bumps its hit count and timestamp. Closing removes
// every entry within the command's closing scope. Accessing an unopened
// row, or closing when nothing is open in scope, is a modeling bug.
func (t *RowTable) Update(cmd Command, addrVec []int, clk int64) {
	rowLevel := t.spec.RowLevel()
	group := append([]int(nil), addrVec[:rowLevel]...)
	row := addrVec[rowLevel]

	if t.spec.IsOpening(cmd) {
		if t.table.Get(&rowEntry{group: group}) == nil {
			t.table.ReplaceOrInsert(&rowEntry{
				group:     group,
				row:       row,
				timestamp: clk,
			})
		}
	}

	if t.spec.IsAccessing(cmd) {
		item := t.table.Get(&rowEntry{group: group})
		if item == nil {
			panic(fmt.Sprintf(
				"dram: accessing row-group %v with no open row", group))
		}

		entry := item.(*rowEntry)
		if entry.row != row {
			panic(fmt.Sprintf(
				"dram: accessing row %d while row %d is open in %v",
				row, entry.row, group))
		}

		entry.hits++
		entry.timestamp = clk
	}

	if t.spec.IsClosing(cmd) {
		t.close(cmd, addrVec)
	}
}

func (t *RowTable) close(cmd Command, addrVec []int) {
	var scope int
	if t.spec.IsAccessing(cmd) {
		// Auto-precharging accesses close exactly their own row-group.
		scope = t.spec.RowLevel() - 1
	} else {
		scope = t.spec.Scope(cmd)
	}

	prefix := addrVec[:scope+1]

	var victims []*rowEntry

	t.table.Ascend(func(item btree.Item) bool {
		entry := item.(*rowEntry)
		if hasPrefix(entry.group, prefix) {
			victims = append(victims, entry)
		}

		return true
	})

	if len(victims) == 0 {
		panic(fmt.Sprintf(
			"dram: closing scope %v with no open row", prefix))
	}

	for _, entry := range victims {
		t.table.Delete(entry)
	}
}

// GetHits returns the hit count of the open row the address targets, or 0
// when the row is closed. With toOpenedRow, the count of whatever row is
// open in the group is returned regardless of the addressed row.
func (t *RowTable) GetHits(addrVec []int, toOpenedRow bool) int {
	rowLevel := t.spec.RowLevel()

	item := t.table.Get(&rowEntry{group: addrVec[:rowLevel]})
	if item == nil {
		return 0
	}

	entry := item.(*rowEntry)
	if !toOpenedRow && entry.row != addrVec[rowLevel] {
		return 0
	}

	return entry.hits
}

// GetOpenRow returns the row open in the address's row-group, or -1.
func (t *RowTable) GetOpenRow(addrVec []int) int {
	item := t.table.Get(&rowEntry{group: addrVec[:t.spec.RowLevel()]})
	if item == nil {
		return -1
	}

	return item.(*rowEntry).row
}

// Len returns the number of open rows.
func (t *RowTable) Len() int {
	return t.table.Len()
}

// ascend visits entries in row-group order until f returns false.
func (t *RowTable) ascend(f func(entry *rowEntry) bool) {
	t.table.Ascend(func(item btree.Item) bool {
		return f(item.(*rowEntry))
	})
}

func compareInts(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}

	return len(a) - len(b)
}

func hasPrefix(group, prefix []int) bool {
	if len(group) < len(prefix) {
		return false
	}

	for i := range prefix {
		if group[i] != prefix[i] {
			return false
		}
	}

	return true
}
