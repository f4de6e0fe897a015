// Package mem defines the memory request type that flows through the cache
// hierarchy and the DRAM scheduler.
package mem

import "github.com/rs/xid"

// AccessType distinguishes reads from writes.
type AccessType int

// The two request types.
const (
	ReadAccess AccessType = iota
	WriteAccess
)

func (t AccessType) String() string {
	if t == WriteAccess {
		return "write"
	}

	return "read"
}

// A Request is a memory access on its way through the hierarchy.
//
// AddrVec is the decomposed address (channel, rank, bank, ..., row, column)
// assigned by the external DRAM spec. Callback, when non-nil, is invoked by
// the owner of the request once the access completes. Synthetic write-backs
// generated by cache evictions carry a nil Callback.
type Request struct {
	ID      string
	Address uint64
	Type    AccessType
	CoreID  int

	// Arrive is the cycle the request entered the controller queue.
	Arrive int64

	AddrVec []int

	Callback func(req *Request)
}

// NewRequest creates a request with a fresh ID.
func NewRequest(address uint64, accessType AccessType) *Request {
	return &Request{
		ID:      xid.New().String(),
		Address: address,
		Type:    accessType,
	}
}
