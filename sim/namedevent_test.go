package sim

import (
	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("NamedEvent", func() {
	var (
		kernel *Kernel
		evt    *NamedEvent
	)

	ginkgo.BeforeEach(func() {
		kernel = NewKernel()
		evt = NewNamedEvent(kernel, "Done")
	})

	ginkgo.It("should wake waiters at the trigger instant", func() {
		var wokenAt SimTime

		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitEvent(evt)
			wokenAt = ctx.Now()
		}, nil)
		spawnProcess(kernel, "Trigger", func(ctx *Context) {
			ctx.Delay(8)
			evt.Trigger()
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(wokenAt).To(Equal(SimTime(8)))
	})

	ginkgo.It("should keep the pulse readable for the rest of the instant "+
		"and clear it before the next one", func() {
		var sameInstant, nextInstant bool

		spawnProcess(kernel, "Trigger", func(ctx *Context) {
			ctx.Delay(5)
			evt.Trigger()
		}, nil)
		spawnProcess(kernel, "SameInstant", func(ctx *Context) {
			ctx.Delay(5)
			ctx.Delay(0)
			sameInstant = evt.Triggered()
		}, nil)
		spawnProcess(kernel, "NextInstant", func(ctx *Context) {
			ctx.Delay(6)
			nextInstant = evt.Triggered()
		}, nil)

		Expect(kernel.Run()).To(Succeed())

		Expect(sameInstant).To(BeTrue())
		Expect(nextInstant).To(BeFalse())
	})

	ginkgo.It("should not lose a same-instant wait that follows the "+
		"trigger", func() {
		proceeded := false

		spawnProcess(kernel, "Trigger", func(ctx *Context) {
			ctx.Delay(5)
			evt.Trigger()
		}, nil)
		spawnProcess(kernel, "LateWaiter", func(ctx *Context) {
			ctx.Delay(5)
			ctx.Delay(0)
			// The edge form would hang here; the level form sees the
			// pulse raised earlier at this instant.
			ctx.WaitTriggered(evt)
			proceeded = true
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(proceeded).To(BeTrue())
	})

	ginkgo.It("should defer a nonblocking trigger to the NBA region", func() {
		var order []string

		spawnProcess(kernel, "Trigger", func(ctx *Context) {
			evt.TriggerLater()
			order = append(order, "after-trigger-call")
			Expect(evt.Triggered()).To(BeFalse())
		}, nil)
		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitEvent(evt)
			order = append(order, "woken")
			Expect(ctx.Now()).To(Equal(SimTime(0)))
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(order).To(Equal([]string{"after-trigger-call", "woken"}))
	})

	ginkgo.It("should share one record among aliased handles", func() {
		alias := evt
		woken := false

		spawnProcess(kernel, "Waiter", func(ctx *Context) {
			ctx.WaitEvent(evt)
			woken = true
		}, nil)
		spawnProcess(kernel, "Trigger", func(ctx *Context) {
			ctx.Delay(1)
			alias.Trigger()
		}, nil)

		Expect(kernel.Run()).To(Succeed())
		Expect(woken).To(BeTrue())
	})
})
