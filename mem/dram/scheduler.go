package dram

import "github.com/sarchlab/ramsim/mem"

// SchedulerKind selects the request priority policy.
type SchedulerKind int

// The supported scheduling policies. BLISS and Custom are hook points for
// research policies; they run FRFCFS's selection until given their own
// comparator.
const (
	FCFS SchedulerKind = iota
	FCFSBank
	FRFCFS
	BLISS
	Custom
)

// SchedulerKindByName maps configuration names to scheduler kinds.
var SchedulerKindByName = map[string]SchedulerKind{
	"FCFS":     FCFS,
	"FCFSBank": FCFSBank,
	"FRFCFS":   FRFCFS,
	"BLISS":    BLISS,
	"Custom":   Custom,
}

// A Scheduler selects the next request of a queue to issue a command for.
type Scheduler struct {
	kind SchedulerKind
	ctrl Controller
	spec Spec
}

// NewScheduler creates a scheduler of the given kind.
func NewScheduler(kind SchedulerKind, ctrl Controller, spec Spec) *Scheduler {
	return &Scheduler{kind: kind, ctrl: ctrl, spec: spec}
}

// GetRequestToIssue returns the best request of the queue to issue next,
// or nil when nothing should be scheduled this cycle. The queue is in
// arrival order and is not modified.
func (s *Scheduler) GetRequestToIssue(queue []*mem.Request) *mem.Request {
	if len(queue) == 0 {
		return nil
	}

	switch s.kind {
	case FCFS, FCFSBank:
		head := queue[0]
		for _, req := range queue[1:] {
			head = s.better(head, req)
		}

		return head
	default:
		return s.getRowHitPreserving(queue)
	}
}

// getRowHitPreserving implements FRFCFS selection. A ready row-hit wins
// outright. Otherwise no candidate may precharge a row-group that another
// pending request is hitting; survivors are ranked like FCFSBank.
func (s *Scheduler) getRowHitPreserving(
	queue []*mem.Request,
) *mem.Request {
	head := queue[0]
	for _, req := range queue[1:] {
		head = s.better(head, req)
	}

	if s.ctrl.IsReqReady(head) && s.ctrl.IsRowHit(head) {
		return head
	}

	// Row-group scope of a precharge. Assumes every standard closes rows
	// with a single precharge command.
	scope := s.spec.Scope(s.spec.PrechargeCommand())

	var hitGroups [][]int

	for _, req := range queue {
		if s.ctrl.IsRowHit(req) {
			hitGroups = append(hitGroups, req.AddrVec[:scope+1])
		}
	}

	var best *mem.Request

	for _, req := range queue {
		if s.wouldBreakRowHit(req, hitGroups, scope) {
			continue
		}

		if best == nil {
			best = req
		} else {
			best = s.byBankReady(best, req)
		}
	}

	return best
}

// wouldBreakRowHit reports whether scheduling req would precharge a
// row-group that is serving a row hit elsewhere in the queue.
func (s *Scheduler) wouldBreakRowHit(
	req *mem.Request,
	hitGroups [][]int,
	scope int,
) bool {
	if s.ctrl.IsRowHit(req) || !s.ctrl.IsRowOpen(req) {
		return false
	}

	group := req.AddrVec[:scope+1]
	for _, hit := range hitGroups {
		if intsEqual(group, hit) {
			return true
		}
	}

	return false
}

func (s *Scheduler) better(a, b *mem.Request) *mem.Request {
	switch s.kind {
	case FCFS:
		return byArrival(a, b)
	case FCFSBank:
		return s.byBankReady(a, b)
	default:
		return s.byRowHit(a, b)
	}
}

// byArrival prefers the oldest request.
func byArrival(a, b *mem.Request) *mem.Request {
	if a.Arrive <= b.Arrive {
		return a
	}

	return b
}

// byBankReady strictly prefers requests whose bank can take a command,
// breaking ties by arrival.
func (s *Scheduler) byBankReady(a, b *mem.Request) *mem.Request {
	readyA := s.ctrl.IsReqReady(a)
	readyB := s.ctrl.IsReqReady(b)

	if readyA != readyB {
		if readyA {
			return a
		}

		return b
	}

	return byArrival(a, b)
}

// byRowHit strictly prefers ready row hits, breaking ties by arrival.
func (s *Scheduler) byRowHit(a, b *mem.Request) *mem.Request {
	readyA := s.ctrl.IsReqReady(a) && s.ctrl.IsRowHit(a)
	readyB := s.ctrl.IsReqReady(b) && s.ctrl.IsRowHit(b)

	if readyA != readyB {
		if readyA {
			return a
		}

		return b
	}

	return byArrival(a, b)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
