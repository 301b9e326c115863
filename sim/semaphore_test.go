package sim

import (
	"fmt"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Semaphore", func() {
	var (
		kernel *Kernel
		sem    *Semaphore
	)

	ginkgo.BeforeEach(func() {
		kernel = NewKernel()
		sem = NewSemaphore(kernel, "Keys", 10)
	})

	ginkgo.It("should grant immediately when keys are free", func() {
		var got SimTime = 1

		spawnProcess(kernel, "Taker", func(ctx *Context) {
			sem.Get(ctx, 4)
			got = ctx.Now()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(got).To(Equal(SimTime(0)))
		Expect(sem.Available()).To(Equal(6))
	})

	ginkgo.It("should serve blocked requesters in FIFO order without "+
		"small-request barging", func() {
		var grants []string

		spawnProcess(kernel, "Holder", func(ctx *Context) {
			sem.Get(ctx, 10)
			ctx.Delay(30)
			sem.Put(5)
			ctx.Delay(10)
			sem.Put(5)
		}, nil)

		for i, n := range []int{5, 5, 10} {
			name := fmt.Sprintf("Requester[%d]", i+1)
			want := n
			stagger := SimTime(10 + i)
			spawnProcess(kernel, name, func(ctx *Context) {
				ctx.Delay(stagger)
				sem.Get(ctx, want)
				grants = append(grants, fmt.Sprintf("%s@%d",
					ctx.Process().Name(), ctx.Now()))
				ctx.Delay(100)
				sem.Put(want)
			}, nil)
		}

		Expect(kernel.Run()).To(Succeed())

		Expect(grants).To(HaveLen(3))
		Expect(grants[0]).To(Equal("Requester[1]@30"))
		Expect(grants[1]).To(Equal("Requester[2]@40"))
		// The 10-key requester waits for both earlier grants to return.
		Expect(grants[2]).To(Equal("Requester[3]@140"))
	})

	ginkgo.It("should fail try_get while earlier requesters are queued", func() {
		spawnProcess(kernel, "Holder", func(ctx *Context) {
			sem.Get(ctx, 10)
			ctx.Delay(20)
			sem.Put(10)
		}, nil)
		spawnProcess(kernel, "Blocked", func(ctx *Context) {
			ctx.Delay(5)
			sem.Get(ctx, 10)
			sem.Put(10)
		}, nil)
		spawnProcess(kernel, "Opportunist", func(ctx *Context) {
			ctx.Delay(10)
			// Nothing is free yet, and someone is queued.
			Expect(sem.TryGet(1)).To(Equal(0))
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(sem.Available()).To(Equal(10))
	})

	ginkgo.It("should grant try_get from free keys with no waiters", func() {
		Expect(sem.TryGet(3)).To(Equal(3))
		Expect(sem.Available()).To(Equal(7))
		Expect(sem.TryGet(8)).To(Equal(0))
		Expect(sem.Available()).To(Equal(7))
	})

	ginkgo.It("should allow over-release", func() {
		sem.Put(5)
		Expect(sem.Available()).To(Equal(15))
	})

	ginkgo.It("should drop waiters torn down with their fork group", func() {
		spawnProcess(kernel, "Parent", func(ctx *Context) {
			sem.Get(ctx, 10)
			h := ctx.Fork(func(ctx *Context) {
				sem.Get(ctx, 2)
			})
			h.JoinNone()

			ctx.Delay(5)
			ctx.DisableFork()
			sem.Put(10)
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		// The killed waiter must not consume keys.
		Expect(sem.Available()).To(Equal(10))
		Expect(kernel.Deadlock()).To(BeNil())
	})
})
