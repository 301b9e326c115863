package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/logic"
)

var _ = ginkgo.Describe("Process", func() {
	var kernel *Kernel

	ginkgo.BeforeEach(func() {
		kernel = NewKernel()
	})

	ginkgo.It("should run statements in order and honor delays", func() {
		var trace []SimTime

		spawnProcess(kernel, "Driver", func(ctx *Context) {
			trace = append(trace, ctx.Now())
			ctx.Delay(5)
			trace = append(trace, ctx.Now())
			ctx.Delay(3)
			trace = append(trace, ctx.Now())
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(trace).To(Equal([]SimTime{0, 5, 8}))
		Expect(kernel.Processes()[0].State()).To(Equal(ProcessFinished))
	})

	ginkgo.It("should defer a zero delay after current active work", func() {
		var trace []string

		spawnProcess(kernel, "Deferred", func(ctx *Context) {
			ctx.Delay(0)
			trace = append(trace, "deferred")
		}, nil)
		spawnProcess(kernel, "Immediate", func(ctx *Context) {
			trace = append(trace, "immediate")
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(trace).To(Equal([]string{"immediate", "deferred"}))
		Expect(kernel.CurrentTime()).To(Equal(SimTime(0)))
	})

	ginkgo.It("should time child delays from the fork entry", func() {
		var childDone SimTime

		spawnProcess(kernel, "Parent", func(ctx *Context) {
			ctx.Delay(10)
			h := ctx.Fork(func(ctx *Context) {
				ctx.Delay(7)
				childDone = ctx.Now()
			})
			h.JoinAll()
			Expect(ctx.Now()).To(Equal(SimTime(17)))
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(childDone).To(Equal(SimTime(17)))
	})

	ginkgo.It("should block join_all until every child finishes", func() {
		var joined SimTime

		spawnProcess(kernel, "Parent", func(ctx *Context) {
			h := ctx.Fork(
				func(ctx *Context) { ctx.Delay(3) },
				func(ctx *Context) { ctx.Delay(9) },
				func(ctx *Context) { ctx.Delay(6) },
			)
			h.JoinAll()
			joined = ctx.Now()
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(joined).To(Equal(SimTime(9)))
	})

	ginkgo.It("should unblock join_any on the first child and let the "+
		"rest run detached", func() {
		var joined, slowDone SimTime

		spawnProcess(kernel, "Parent", func(ctx *Context) {
			h := ctx.Fork(
				func(ctx *Context) { ctx.Delay(3) },
				func(ctx *Context) {
					ctx.Delay(9)
					slowDone = ctx.Now()
				},
			)
			h.JoinAny()
			joined = ctx.Now()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(joined).To(Equal(SimTime(3)))
		Expect(slowDone).To(Equal(SimTime(9)))
	})

	ginkgo.It("should return immediately from join_none", func() {
		var forked SimTime

		spawnProcess(kernel, "Parent", func(ctx *Context) {
			h := ctx.Fork(func(ctx *Context) { ctx.Delay(5) })
			h.JoinNone()
			forked = ctx.Now()
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(forked).To(Equal(SimTime(0)))
	})

	ginkgo.It("should tear down outstanding children recursively on "+
		"disable fork", func() {
		grandchildRan := false

		spawnProcess(kernel, "Parent", func(ctx *Context) {
			h := ctx.Fork(func(ctx *Context) {
				ctx.Fork(func(ctx *Context) {
					ctx.Delay(100)
					grandchildRan = true
				})
				ctx.Delay(100)
			})
			h.JoinNone()

			ctx.Delay(5)
			ctx.DisableFork()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(grandchildRan).To(BeFalse())

		for _, p := range kernel.Processes() {
			Expect(p.State()).To(Equal(ProcessFinished))
		}
	})

	ginkgo.It("should compose a timeout by racing a delay with join_any", func() {
		sem := NewSemaphore(kernel, "Keys", 0)
		timedOut := false

		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			h := ctx.Fork(
				func(ctx *Context) { sem.Get(ctx, 1) },
				func(ctx *Context) { ctx.Delay(50) },
			)
			h.JoinAny()
			timedOut = ctx.Now() == 50
			ctx.DisableFork()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(timedOut).To(BeTrue())
		Expect(kernel.Deadlock()).To(BeNil())
	})

	ginkgo.It("should report starvation when a process blocks forever on "+
		"a primitive", func() {
		sem := NewSemaphore(kernel, "Keys", 0)

		spawnProcess(kernel, "Starved", func(ctx *Context) {
			sem.Get(ctx, 1)
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		report := kernel.Deadlock()
		Expect(report).NotTo(BeNil())
		Expect(report.Waiting).To(HaveLen(1))
		Expect(report.Waiting[0].Process).To(Equal("Starved"))
		Expect(report.Waiting[0].Wait).To(Equal("Keys.get(1)"))
	})

	ginkgo.It("should not report a parked sensitivity list as starvation", func() {
		sig := NewSignal(kernel, "S", 1)

		spawnProcess(kernel, "Watcher", func(ctx *Context) {
			_ = ctx.Read(sig)
		}, []EdgeSpec{{Signal: sig, Edge: logic.AnyEdge}})

		Expect(kernel.Run()).To(Succeed())
		Expect(kernel.Deadlock()).To(BeNil())
	})
})
