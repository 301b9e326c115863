package simulation_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/logic"
	"github.com/hdlab/svsim/sim"
	"github.com/hdlab/svsim/simulation"
)

var _ = Describe("Simulation", func() {
	var s *simulation.Simulation

	BeforeEach(func() {
		s = simulation.MakeBuilder().
			WithoutDataRecording().
			WithoutMonitoring().
			Build()
	})

	It("should assign a unique ID", func() {
		s2 := simulation.MakeBuilder().
			WithoutDataRecording().
			WithoutMonitoring().
			Build()

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.ID()).NotTo(Equal(s2.ID()))
	})

	It("should declare and look up signals", func() {
		sig := s.DeclareSignal("Count", 8)

		Expect(s.SignalByName("Count")).To(BeIdenticalTo(sig))
		Expect(s.ReadSignal("Count").String()).To(Equal("xxxxxxxx"))
	})

	It("should panic on duplicate identifiers across kinds", func() {
		s.DeclareSignal("Top", 1)

		Expect(func() {
			s.NewSemaphore("Top", 1)
		}).To(Panic())
	})

	It("should panic when reading an undeclared signal", func() {
		Expect(func() {
			s.ReadSignal("Missing")
		}).To(Panic())
	})

	It("should declare primitives and look them up", func() {
		sem := s.NewSemaphore("Sem", 2)
		mb := s.NewMailbox("Mbx", 4)
		e := s.NewEvent("Done")

		Expect(s.SemaphoreByName("Sem")).To(BeIdenticalTo(sem))
		Expect(s.MailboxByName("Mbx")).To(BeIdenticalTo(mb))
		Expect(s.EventByName("Done")).To(BeIdenticalTo(e))
	})

	It("should run initial processes to quiescence", func() {
		sig := s.DeclareSignal("Out", 4)

		s.AddProcess("Driver", func(ctx *sim.Context) {
			ctx.Delay(5)
			ctx.Write(sig, logic.FromUint64(4, 3))
		})

		Expect(s.Run(0)).To(Succeed())
		Expect(s.Kernel().CurrentTime()).To(Equal(sim.SimTime(5)))
		Expect(s.ReadSignal("Out").Uint64()).To(Equal(uint64(3)))
	})

	It("should stop at the requested tick", func() {
		sig := s.DeclareSignal("Clk", 1)
		sig.Write(logic.FromUint64(1, 0))

		s.AddProcess("ClkGen", func(ctx *sim.Context) {
			for {
				ctx.Delay(5)
				ctx.Write(sig, ctx.Read(sig).Not())
			}
		})

		Expect(s.Run(12)).To(Succeed())
		Expect(s.Kernel().CurrentTime()).To(Equal(sim.SimTime(12)))
	})

	It("should trigger always processes on their sensitivity list", func() {
		clk := s.DeclareSignal("Clk", 1)
		count := s.DeclareSignal("Count", 8)

		clk.Write(logic.FromUint64(1, 0))
		count.Write(logic.FromUint64(8, 0))

		s.AddAlways("Counter",
			[]sim.EdgeSpec{{Signal: clk, Edge: logic.Posedge}},
			func(ctx *sim.Context) {
				next := ctx.Read(count).Uint64() + 1
				ctx.WriteNBA(count, logic.FromUint64(8, next))
			})

		s.AddProcess("ClkGen", func(ctx *sim.Context) {
			for i := 0; i < 3; i++ {
				ctx.Delay(5)
				ctx.Write(clk, logic.FromUint64(1, 1))
				ctx.Delay(5)
				ctx.Write(clk, logic.FromUint64(1, 0))
			}
		})

		Expect(s.Run(0)).To(Succeed())
		Expect(s.ReadSignal("Count").Uint64()).To(Equal(uint64(3)))
	})

	It("should account process busy time with overlaps counted once", func() {
		s.AddProcess("DriverA", func(ctx *sim.Context) {
			ctx.Delay(10)
		})
		s.AddProcess("DriverB", func(ctx *sim.Context) {
			ctx.Delay(6)
		})

		Expect(s.Run(0)).To(Succeed())
		Expect(s.ProcessBusyTime()).To(Equal(sim.SimTime(10)))
	})

	It("should panic on an always process without a sensitivity list", func() {
		Expect(func() {
			s.AddAlways("Bad", nil, func(ctx *sim.Context) {})
		}).To(Panic())
	})
})

var _ = Describe("Builder", func() {
	It("should read defaults from the environment", func() {
		os.Setenv("SVSIM_STRICT", "true")
		os.Setenv("SVSIM_SHUFFLE_SEED", "42")
		defer os.Unsetenv("SVSIM_STRICT")
		defer os.Unsetenv("SVSIM_SHUFFLE_SEED")

		s := simulation.MakeBuilder().
			WithoutDataRecording().
			WithoutMonitoring().
			Build()

		Expect(s.Kernel().StrictChecks()).To(BeTrue())
	})

	It("should let explicit options win over the environment", func() {
		os.Setenv("SVSIM_TIMESCALE", "1ns")
		defer os.Unsetenv("SVSIM_TIMESCALE")

		s := simulation.MakeBuilder().
			WithTimescale(sim.PS).
			WithoutDataRecording().
			WithoutMonitoring().
			Build()

		Expect(s.Timescale()).To(Equal(sim.PS))
	})

	It("should reject an output name without data recording", func() {
		Expect(func() {
			simulation.MakeBuilder().
				WithoutDataRecording().
				WithOutputFileName("out").
				WithoutMonitoring().
				Build()
		}).To(Panic())
	})
})
