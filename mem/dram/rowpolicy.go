package dram

// RowPolicyKind selects the precharge policy.
type RowPolicyKind int

// The supported row policies.
const (
	// Closed precharges a row as soon as the controller reports the
	// precharge ready.
	Closed RowPolicyKind = iota

	// ClosedAP is the closed policy for specs with auto-precharge
	// accesses.
	ClosedAP

	// Opened keeps rows open; it never selects a victim.
	Opened

	// Timeout precharges a row once it has been idle for the timeout.
	Timeout
)

// RowPolicyKindByName maps configuration names to row policy kinds.
var RowPolicyKindByName = map[string]RowPolicyKind{
	"Closed":   Closed,
	"ClosedAP": ClosedAP,
	"Opened":   Opened,
	"Timeout":  Timeout,
}

// DefaultRowTimeout is the idle threshold of the Timeout policy, in
// cycles.
const DefaultRowTimeout int64 = 50

// A RowPolicy picks which open row, if any, to precharge next.
type RowPolicy struct {
	kind  RowPolicyKind
	ctrl  Controller
	table *RowTable

	// Timeout is the idle threshold of the Timeout policy.
	Timeout int64
}

// NewRowPolicy creates a row policy over the given row table.
func NewRowPolicy(
	kind RowPolicyKind,
	ctrl Controller,
	table *RowTable,
) *RowPolicy {
	return &RowPolicy{
		kind:    kind,
		ctrl:    ctrl,
		table:   table,
		Timeout: DefaultRowTimeout,
	}
}

// GetVictim returns the row-group to precharge with the given command, or
// nil when no row should be closed this cycle. At most one victim is
// returned per call, the first qualifying entry in table order.
func (p *RowPolicy) GetVictim(cmd Command) []int {
	switch p.kind {
	case Opened:
		return nil
	case Timeout:
		return p.firstReady(cmd, func(entry *rowEntry) bool {
			return p.ctrl.Clock()-entry.timestamp >= p.Timeout
		})
	default:
		return p.firstReady(cmd, nil)
	}
}

func (p *RowPolicy) firstReady(
	cmd Command,
	qualifies func(entry *rowEntry) bool,
) []int {
	var victim []int

	p.table.ascend(func(entry *rowEntry) bool {
		if qualifies != nil && !qualifies(entry) {
			return true
		}

		if !p.ctrl.IsReady(cmd, entry.group) {
			return true
		}

		victim = entry.group

		return false
	})

	return victim
}
