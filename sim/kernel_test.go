package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/hdlab/svsim/logic"
)

type kernelTestEvent struct {
	EventBase
}

func newKernelTestEvent(
	t SimTime,
	r Region,
	handler Handler,
) *kernelTestEvent {
	return &kernelTestEvent{EventBase: MakeEventBase(t, r, handler)}
}

var _ = ginkgo.Describe("Kernel", func() {
	var (
		mockCtrl *gomock.Controller
		kernel   *Kernel
	)

	ginkgo.BeforeEach(func() {
		mockCtrl = gomock.NewController(ginkgo.GinkgoT())
		kernel = NewKernel()
	})

	ginkgo.AfterEach(func() {
		mockCtrl.Finish()
	})

	ginkgo.It("should handle events in time order", func() {
		handler := NewMockHandler(mockCtrl)
		evt1 := newKernelTestEvent(4, RegionActive, handler)
		evt2 := newKernelTestEvent(2, RegionActive, handler)
		evt3 := newKernelTestEvent(3, RegionActive, handler)

		h2 := handler.EXPECT().Handle(evt2)
		h3 := handler.EXPECT().Handle(evt3).After(h2)
		handler.EXPECT().Handle(evt1).After(h3)

		kernel.Schedule(evt1)
		kernel.Schedule(evt2)
		kernel.Schedule(evt3)

		Expect(kernel.Run()).To(Succeed())
		Expect(kernel.CurrentTime()).To(Equal(SimTime(4)))
	})

	ginkgo.It("should drain regions in order within one instant", func() {
		handler := NewMockHandler(mockCtrl)
		nba := &nbaTestEvent{
			EventBase: MakeEventBase(5, RegionNBA, handler)}
		inactive := newKernelTestEvent(5, RegionInactive, handler)
		active := newKernelTestEvent(5, RegionActive, handler)

		hActive := handler.EXPECT().Handle(active)
		hInactive := handler.EXPECT().Handle(inactive).After(hActive)
		handler.EXPECT().Handle(nba).After(hInactive)

		kernel.Schedule(nba)
		kernel.Schedule(inactive)
		kernel.Schedule(active)

		Expect(kernel.Run()).To(Succeed())
	})

	ginkgo.It("should handle same-time events scheduled during handling "+
		"before advancing time", func() {
		handler := NewMockHandler(mockCtrl)
		first := newKernelTestEvent(3, RegionActive, handler)
		later := newKernelTestEvent(7, RegionActive, handler)

		var mid *kernelTestEvent
		handler.EXPECT().Handle(first).Do(func(Event) error {
			mid = newKernelTestEvent(3, RegionActive, handler)
			kernel.Schedule(mid)
			return nil
		})
		handler.EXPECT().Handle(gomock.Any()).Do(func(e Event) error {
			Expect(e).To(BeIdenticalTo(mid))
			Expect(kernel.CurrentTime()).To(Equal(SimTime(3)))
			return nil
		})
		handler.EXPECT().Handle(later).Do(func(Event) error {
			Expect(kernel.CurrentTime()).To(Equal(SimTime(7)))
			return nil
		})

		kernel.Schedule(first)
		kernel.Schedule(later)

		Expect(kernel.Run()).To(Succeed())
	})

	ginkgo.It("should stop at the RunUntil horizon", func() {
		handler := NewMockHandler(mockCtrl)
		early := newKernelTestEvent(3, RegionActive, handler)
		late := newKernelTestEvent(30, RegionActive, handler)

		handler.EXPECT().Handle(early)

		kernel.Schedule(early)
		kernel.Schedule(late)

		Expect(kernel.RunUntil(10)).To(Succeed())
		Expect(kernel.CurrentTime()).To(Equal(SimTime(10)))

		handler.EXPECT().Handle(late)
		Expect(kernel.Run()).To(Succeed())
	})

	ginkgo.It("should stop handling events after a finish request", func() {
		handler := NewMockHandler(mockCtrl)
		first := newKernelTestEvent(3, RegionActive, handler)
		second := newKernelTestEvent(4, RegionActive, handler)

		handler.EXPECT().Handle(first).Do(func(Event) error {
			kernel.RequestFinish()
			return nil
		})

		kernel.Schedule(first)
		kernel.Schedule(second)

		Expect(kernel.Run()).To(Succeed())
		Expect(kernel.CurrentTime()).To(Equal(SimTime(3)))
	})

	ginkgo.It("should panic when scheduling an event in the past", func() {
		handler := NewMockHandler(mockCtrl)
		evt := newKernelTestEvent(5, RegionActive, handler)

		handler.EXPECT().Handle(evt)
		kernel.Schedule(evt)
		Expect(kernel.Run()).To(Succeed())

		Expect(func() {
			kernel.Schedule(newKernelTestEvent(2, RegionActive, handler))
		}).To(Panic())
	})

	ginkgo.It("should invoke hooks around events", func() {
		handler := NewMockHandler(mockCtrl)
		evt := newKernelTestEvent(1, RegionActive, handler)
		handler.EXPECT().Handle(evt)

		var positions []string
		kernel.AcceptHook(hookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos.Name)
		}))

		kernel.Schedule(evt)
		Expect(kernel.Run()).To(Succeed())

		Expect(positions).To(ContainElements(
			"TimeAdvance", "BeforeEvent", "AfterEvent"))
	})

	ginkgo.It("should tear down suspended processes when the run is finished", func() {
		sig := NewSignal(kernel, "Clk", 1)

		waiter := Initial(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitEdge(sig, logic.Posedge)
		})
		reactor := Always(kernel, "Reactor",
			[]EdgeSpec{{Signal: sig, Edge: logic.Posedge}},
			func(ctx *Context) {})

		Expect(kernel.Run()).To(Succeed())
		Expect(waiter.State()).To(Equal(ProcessSuspended))

		kernel.Finished()

		Expect(waiter.State()).To(Equal(ProcessFinished))
		Expect(reactor.State()).To(Equal(ProcessFinished))
	})
})

// nbaTestEvent lets a plain mock handler receive an event in the NBA region.
type nbaTestEvent struct {
	EventBase
}

type hookFunc func(ctx HookCtx)

func (f hookFunc) Func(ctx HookCtx) {
	f(ctx)
}
