// Package mshr tracks in-flight cache misses.
package mshr

import (
	"fmt"

	"github.com/sarchlab/ramsim/mem/cache/internal/tagging"
)

// An Entry records one in-flight miss. Address is block aligned. Line is
// the slot the fill will land in; it stays locked until the entry is
// removed.
type Entry struct {
	Address uint64
	Line    *tagging.Line
}

// MSHR is a bounded table of in-flight misses. At most one entry exists
// per distinct block-aligned address.
type MSHR struct {
	capacity int
	entries  []*Entry
}

// New creates an MSHR with the given capacity.
func New(capacity int) *MSHR {
	return &MSHR{capacity: capacity}
}

// Lookup returns the entry for a block-aligned address, or nil.
func (m *MSHR) Lookup(addr uint64) *Entry {
	for _, e := range m.entries {
		if e.Address == addr {
			return e
		}
	}

	return nil
}

// Add registers a new in-flight miss. Adding a duplicate address or adding
// to a full MSHR is a modeling bug.
func (m *MSHR) Add(addr uint64, line *tagging.Line) *Entry {
	if m.Lookup(addr) != nil {
		panic(fmt.Sprintf("mshr: duplicate entry for 0x%x", addr))
	}

	if m.IsFull() {
		panic("mshr: adding to a full MSHR")
	}

	e := &Entry{Address: addr, Line: line}
	m.entries = append(m.entries, e)

	return e
}

// Remove drops the entry for a block-aligned address and returns it. The
// second return value reports whether an entry was found.
func (m *MSHR) Remove(addr uint64) (*Entry, bool) {
	for i, e := range m.entries {
		if e.Address == addr {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return e, true
		}
	}

	return nil, false
}

// IsFull returns true when no more entries can be allocated.
func (m *MSHR) IsFull() bool {
	return len(m.entries) >= m.capacity
}

// Len returns the number of in-flight misses.
func (m *MSHR) Len() int {
	return len(m.entries)
}
