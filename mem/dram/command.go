// Package dram decides, cycle by cycle, which pending memory request the
// controller services next, and tracks which DRAM rows are open.
//
// The DRAM command set itself (topology, timing, legality) belongs to an
// external specification. This package only consumes the small surface
// below.
package dram

import "github.com/sarchlab/ramsim/mem"

// A Command identifies one command of the external DRAM spec.
type Command int

// A Spec classifies commands and maps them onto the address vector. It is
// implemented by the external DRAM timing specification.
type Spec interface {
	// IsOpening reports whether the command opens (activates) a row.
	IsOpening(cmd Command) bool

	// IsAccessing reports whether the command reads or writes an open
	// row. Commands with auto-precharge are both accessing and closing.
	IsAccessing(cmd Command) bool

	// IsClosing reports whether the command closes one or more rows.
	IsClosing(cmd Command) bool

	// Scope returns the index of the deepest address-vector component the
	// command addresses.
	Scope(cmd Command) int

	// RowLevel returns the index of the row component in an address
	// vector. The components before it form the row-group key (bank or
	// subarray).
	RowLevel() int

	// PrechargeCommand returns the command that closes a single row. The
	// scheduler derives row-group scopes from it, assuming one row
	// dimension and one precharge command per standard.
	PrechargeCommand() Command
}

// A Controller exposes the readiness state the scheduler and the row
// policy consult. It is implemented by the memory controller that owns
// the request queues.
type Controller interface {
	// IsReqReady reports whether the next command of the request could
	// issue this cycle.
	IsReqReady(req *mem.Request) bool

	// IsRowHit reports whether the request targets the currently open
	// row of its bank or subarray.
	IsRowHit(req *mem.Request) bool

	// IsRowOpen reports whether any row is open in the request's bank or
	// subarray.
	IsRowOpen(req *mem.Request) bool

	// IsReady reports whether the command could issue to the given
	// row-group this cycle.
	IsReady(cmd Command, rowGroup []int) bool

	// Clock returns the controller's current cycle.
	Clock() int64
}
