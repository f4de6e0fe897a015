package cache

import "github.com/sarchlab/ramsim/mem"

// A MemoryPort is the front door of the memory controller. Send returns
// false when the controller cannot take the request this cycle.
type MemoryPort interface {
	Send(req *mem.Request) bool
}

type timedRequest struct {
	time int64
	req  *mem.Request
}

// A System holds the state one cache hierarchy shares across levels: the
// clock, requests waiting for the memory controller, and hits waiting for
// their completion time.
type System struct {
	clk    int64
	memory MemoryPort

	waitList []timedRequest
	hitList  []timedRequest
}

// NewSystem creates a cache system draining into the given memory port.
func NewSystem(memory MemoryPort) *System {
	if memory == nil {
		panic("cache: system needs a memory port")
	}

	return &System{memory: memory}
}

// Clock returns the current cycle.
func (s *System) Clock() int64 {
	return s.clk
}

func (s *System) scheduleHit(time int64, req *mem.Request) {
	s.hitList = append(s.hitList, timedRequest{time: time, req: req})
}

func (s *System) scheduleToMemory(time int64, req *mem.Request) {
	s.waitList = append(s.waitList, timedRequest{time: time, req: req})
}

// Tick advances the clock by one cycle, hands ready wait-list entries to
// the memory port, and completes due hits.
func (s *System) Tick() {
	s.clk++

	// The wait-list scan stops at the first entry whose time has not
	// come; later entries wait behind it even if their time has passed.
	// Entries the memory port rejects stay for the next cycle.
	i := 0
	for i < len(s.waitList) && s.clk >= s.waitList[i].time {
		if s.memory.Send(s.waitList[i].req) {
			debugf("system: sent 0x%x to memory at %d",
				s.waitList[i].req.Address, s.clk)

			s.waitList = append(s.waitList[:i], s.waitList[i+1:]...)
		} else {
			i++
		}
	}

	for i := 0; i < len(s.hitList); {
		entry := s.hitList[i]

		if s.clk >= entry.time {
			if entry.req.Callback != nil {
				entry.req.Callback(entry.req)
			}

			debugf("system: finished hit 0x%x at %d",
				entry.req.Address, s.clk)

			s.hitList = append(s.hitList[:i], s.hitList[i+1:]...)
		} else {
			i++
		}
	}
}
