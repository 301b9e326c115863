package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/logic"
)

var _ = ginkgo.Describe("Signal", func() {
	var (
		kernel *Kernel
		a, b   *Signal
	)

	ginkgo.BeforeEach(func() {
		kernel = NewKernel()
		a = NewSignal(kernel, "A", 1)
		b = NewSignal(kernel, "B", 1)
	})

	ginkgo.It("should start with every bit X", func() {
		Expect(a.Value().Lsb()).To(Equal(logic.X))
	})

	ginkgo.It("should chain blocking assignments sequentially", func() {
		a.Write(logic.FromUint64(1, 0))
		b.Write(logic.FromUint64(1, 1))

		spawnProcess(kernel, "Chain", func(ctx *Context) {
			ctx.Write(a, ctx.Read(b)) // a = b
			ctx.Write(b, ctx.Read(a)) // b = a
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(a.Value().Uint64()).To(Equal(uint64(1)))
		Expect(b.Value().Uint64()).To(Equal(uint64(1)))
	})

	ginkgo.It("should apply the NBA batch atomically so a swap swaps", func() {
		a.Write(logic.FromUint64(1, 0))
		b.Write(logic.FromUint64(1, 1))

		spawnProcess(kernel, "Swap", func(ctx *Context) {
			ctx.WriteNBA(a, ctx.Read(b)) // a <= b
			ctx.WriteNBA(b, ctx.Read(a)) // b <= a
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(a.Value().Uint64()).To(Equal(uint64(1)))
		Expect(b.Value().Uint64()).To(Equal(uint64(0)))
	})

	ginkgo.It("should let the last NBA write in program order win", func() {
		spawnProcess(kernel, "Writer", func(ctx *Context) {
			ctx.WriteNBA(a, logic.FromUint64(1, 1))
			ctx.WriteNBA(a, logic.FromUint64(1, 0))
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(a.Value().Uint64()).To(Equal(uint64(0)))
	})

	ginkgo.It("should keep the old value readable until the NBA apply", func() {
		a.Write(logic.FromUint64(1, 0))

		var observed uint64

		spawnProcess(kernel, "Writer", func(ctx *Context) {
			ctx.WriteNBA(a, logic.FromUint64(1, 1))
			observed = ctx.Read(a).Uint64()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(observed).To(Equal(uint64(0)))
		Expect(a.Value().Uint64()).To(Equal(uint64(1)))
	})

	ginkgo.It("should wake edge waiters on the matching edge only", func() {
		clk := NewSignal(kernel, "Clk", 1)
		clk.Write(logic.FromUint64(1, 0))

		var posedges, negedges []SimTime

		spawnProcess(kernel, "PosWatcher", func(ctx *Context) {
			for i := 0; i < 2; i++ {
				ctx.WaitEdge(clk, logic.Posedge)
				posedges = append(posedges, ctx.Now())
			}
		}, nil)
		spawnProcess(kernel, "NegWatcher", func(ctx *Context) {
			for i := 0; i < 2; i++ {
				ctx.WaitEdge(clk, logic.Negedge)
				negedges = append(negedges, ctx.Now())
			}
		}, nil)
		spawnProcess(kernel, "Toggler", func(ctx *Context) {
			for i := 0; i < 4; i++ {
				ctx.Delay(10)
				v := ctx.Read(clk).Not()
				ctx.Write(clk, v)
			}
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(posedges).To(Equal([]SimTime{10, 30}))
		Expect(negedges).To(Equal([]SimTime{20, 40}))
	})

	ginkgo.It("should not re-trigger a process through its own write", func() {
		runs := 0

		spawnProcess(kernel, "Comb", func(ctx *Context) {
			runs++
			v := ctx.Read(a)
			ctx.Write(a, v.Not())
		}, []EdgeSpec{{Signal: a, Edge: logic.AnyEdge}})

		spawnProcess(kernel, "Stim", func(ctx *Context) {
			ctx.Delay(5)
			ctx.Write(a, logic.FromUint64(1, 0))
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(runs).To(Equal(1))
		Expect(a.Value().Uint64()).To(Equal(uint64(1)))
	})

	ginkgo.It("should resume a level wait only after updates commit", func() {
		count := NewSignal(kernel, "Count", 8)
		count.Write(logic.FromUint64(8, 0))

		var resumedAt SimTime
		var seen uint64

		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitUntil(func() bool {
				return count.Value().Uint64() >= 3
			})
			resumedAt = ctx.Now()
			seen = ctx.Read(count).Uint64()
		}, nil)
		spawnProcess(kernel, "Counter", func(ctx *Context) {
			for i := 1; i <= 5; i++ {
				ctx.Delay(10)
				ctx.Write(count, logic.FromUint64(8, uint64(i)))
			}
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(resumedAt).To(Equal(SimTime(30)))
		Expect(seen).To(Equal(uint64(3)))
	})

	ginkgo.It("should not suspend a level wait whose predicate already "+
		"holds", func() {
		a.Write(logic.FromUint64(1, 1))

		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitUntil(func() bool {
				return a.Value().Lsb() == logic.H
			})
			Expect(ctx.Now()).To(Equal(SimTime(0)))
		}, nil)

		Expect(kernel.Run()).To(Succeed())
	})

	ginkgo.It("should trigger waiters of NBA writes after the whole batch", func() {
		a.Write(logic.FromUint64(1, 0))
		b.Write(logic.FromUint64(1, 1))

		var sawA, sawB uint64

		spawnProcess(kernel, "Watcher", func(ctx *Context) {
			ctx.WaitAnyEdge(a)
			sawA = ctx.Read(a).Uint64()
			sawB = ctx.Read(b).Uint64()
		}, nil)
		spawnProcess(kernel, "Swap", func(ctx *Context) {
			ctx.Delay(1)
			ctx.WriteNBA(a, ctx.Read(b))
			ctx.WriteNBA(b, ctx.Read(a))
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		// The watcher observes the fully applied batch, never half of it.
		Expect(sawA).To(Equal(uint64(1)))
		Expect(sawB).To(Equal(uint64(0)))
	})

	ginkgo.It("should fire a delayed NBA write at exactly now+d", func() {
		var applied SimTime

		spawnProcess(kernel, "Watcher", func(ctx *Context) {
			ctx.WaitAnyEdge(a)
			applied = ctx.Now()
		}, nil)
		spawnProcess(kernel, "Writer", func(ctx *Context) {
			ctx.Delay(5)
			ctx.WriteNBADelay(a, logic.FromUint64(1, 1), 7)
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(applied).To(Equal(SimTime(12)))
	})

	ginkgo.It("should panic on zero-width signals", func() {
		Expect(func() { NewSignal(kernel, "Bad", 0) }).To(Panic())
	})
})
