package dram

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/ramsim/mem"
)

// A DDR4-like command surface for testing. The address vector is
// [channel, bank group, bank, row]; a precharge closes one bank, an
// all-bank precharge closes a bank group.
const (
	cmdACT Command = iota
	cmdRD
	cmdWR
	cmdRDA
	cmdWRA
	cmdPRE
	cmdPREA
)

func newTestSpec(mockCtrl *gomock.Controller) *MockSpec {
	spec := NewMockSpec(mockCtrl)

	spec.EXPECT().
		IsOpening(gomock.Any()).
		DoAndReturn(func(c Command) bool { return c == cmdACT }).
		AnyTimes()
	spec.EXPECT().
		IsAccessing(gomock.Any()).
		DoAndReturn(func(c Command) bool {
			return c == cmdRD || c == cmdWR || c == cmdRDA || c == cmdWRA
		}).
		AnyTimes()
	spec.EXPECT().
		IsClosing(gomock.Any()).
		DoAndReturn(func(c Command) bool {
			return c == cmdRDA || c == cmdWRA || c == cmdPRE || c == cmdPREA
		}).
		AnyTimes()
	spec.EXPECT().
		Scope(gomock.Any()).
		DoAndReturn(func(c Command) int {
			if c == cmdPREA {
				return 1
			}

			return 2
		}).
		AnyTimes()
	spec.EXPECT().RowLevel().Return(3).AnyTimes()
	spec.EXPECT().PrechargeCommand().Return(cmdPRE).AnyTimes()

	return spec
}

var _ = Describe("Scheduler", func() {
	var (
		mockCtrl *gomock.Controller
		ctrl     *MockController
		spec     *MockSpec
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ctrl = NewMockController(mockCtrl)
		spec = newTestSpec(mockCtrl)
	})

	request := func(arrive int64, addrVec ...int) *mem.Request {
		req := mem.NewRequest(0x40, mem.ReadAccess)
		req.Arrive = arrive
		req.AddrVec = addrVec

		return req
	}

	stubReady := func(ready map[*mem.Request]bool) {
		ctrl.EXPECT().
			IsReqReady(gomock.Any()).
			DoAndReturn(func(r *mem.Request) bool { return ready[r] }).
			AnyTimes()
	}

	stubRowHit := func(hit map[*mem.Request]bool) {
		ctrl.EXPECT().
			IsRowHit(gomock.Any()).
			DoAndReturn(func(r *mem.Request) bool { return hit[r] }).
			AnyTimes()
	}

	stubRowOpen := func(open map[*mem.Request]bool) {
		ctrl.EXPECT().
			IsRowOpen(gomock.Any()).
			DoAndReturn(func(r *mem.Request) bool { return open[r] }).
			AnyTimes()
	}

	It("should return nil for an empty queue", func() {
		s := NewScheduler(FRFCFS, ctrl, spec)

		Expect(s.GetRequestToIssue(nil)).To(BeNil())
	})

	Context("FCFS", func() {
		It("should pick the oldest request", func() {
			s := NewScheduler(FCFS, ctrl, spec)

			oldest := request(1, 0, 0, 0, 5)
			queue := []*mem.Request{
				request(4, 0, 0, 1, 5),
				oldest,
				request(9, 0, 1, 0, 5),
			}

			Expect(s.GetRequestToIssue(queue)).To(BeIdenticalTo(oldest))
		})
	})

	Context("FCFSBank", func() {
		It("should prefer a ready request over an older stalled one",
			func() {
				s := NewScheduler(FCFSBank, ctrl, spec)

				stalled := request(5, 0, 0, 0, 5)
				ready := request(10, 0, 0, 1, 5)
				stubReady(map[*mem.Request]bool{ready: true})

				result := s.GetRequestToIssue(
					[]*mem.Request{stalled, ready})

				Expect(result).To(BeIdenticalTo(ready))
			})

		It("should break ready ties by arrival", func() {
			s := NewScheduler(FCFSBank, ctrl, spec)

			older := request(5, 0, 0, 0, 5)
			newer := request(10, 0, 0, 1, 5)
			stubReady(map[*mem.Request]bool{older: true, newer: true})

			result := s.GetRequestToIssue([]*mem.Request{newer, older})

			Expect(result).To(BeIdenticalTo(older))
		})
	})

	Context("FRFCFS", func() {
		It("should issue a ready row hit immediately", func() {
			s := NewScheduler(FRFCFS, ctrl, spec)

			miss := request(1, 0, 0, 0, 5)
			hit := request(10, 0, 0, 1, 5)
			stubReady(map[*mem.Request]bool{hit: true})
			stubRowHit(map[*mem.Request]bool{hit: true})

			result := s.GetRequestToIssue([]*mem.Request{miss, hit})

			Expect(result).To(BeIdenticalTo(hit))
		})

		It("should not precharge a bank that a pending row hit needs",
			func() {
				s := NewScheduler(FRFCFS, ctrl, spec)

				// Both target bank [0,0,1]. The row hit is stalled on
				// timing; the conflicting older request would close the
				// row the hit needs.
				pendingHit := request(10, 0, 0, 1, 5)
				conflicting := request(5, 0, 0, 1, 7)

				stubReady(map[*mem.Request]bool{conflicting: true})
				stubRowHit(map[*mem.Request]bool{pendingHit: true})
				stubRowOpen(map[*mem.Request]bool{conflicting: true})

				result := s.GetRequestToIssue(
					[]*mem.Request{conflicting, pendingHit})

				Expect(result).To(BeIdenticalTo(pendingHit))
			})

		It("should rank non-conflicting candidates by bank readiness",
			func() {
				s := NewScheduler(FRFCFS, ctrl, spec)

				stalled := request(5, 0, 0, 0, 5)
				ready := request(10, 0, 1, 0, 5)

				stubReady(map[*mem.Request]bool{ready: true})
				stubRowHit(map[*mem.Request]bool{})
				stubRowOpen(map[*mem.Request]bool{})

				result := s.GetRequestToIssue(
					[]*mem.Request{stalled, ready})

				Expect(result).To(BeIdenticalTo(ready))
			})

		It("should let a miss proceed when its row is not open", func() {
			s := NewScheduler(FRFCFS, ctrl, spec)

			// Same bank as the pending hit, but the bank has no open
			// row from this request's point of view, so issuing it
			// cannot break the hit.
			pendingHit := request(10, 0, 0, 1, 5)
			miss := request(5, 0, 0, 1, 7)

			stubReady(map[*mem.Request]bool{miss: true})
			stubRowHit(map[*mem.Request]bool{pendingHit: true})
			stubRowOpen(map[*mem.Request]bool{})

			result := s.GetRequestToIssue(
				[]*mem.Request{miss, pendingHit})

			Expect(result).To(BeIdenticalTo(miss))
		})
	})

	Context("BLISS", func() {
		It("should fall back to row-hit preserving selection", func() {
			s := NewScheduler(BLISS, ctrl, spec)

			pendingHit := request(10, 0, 0, 1, 5)
			conflicting := request(5, 0, 0, 1, 7)

			stubReady(map[*mem.Request]bool{conflicting: true})
			stubRowHit(map[*mem.Request]bool{pendingHit: true})
			stubRowOpen(map[*mem.Request]bool{conflicting: true})

			result := s.GetRequestToIssue(
				[]*mem.Request{conflicting, pendingHit})

			Expect(result).To(BeIdenticalTo(pendingHit))
		})
	})
})
