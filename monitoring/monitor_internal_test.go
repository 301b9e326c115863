package monitoring

import (
	"encoding/json"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/hdlab/svsim/logic"
	"github.com/hdlab/svsim/sim"
)

var _ = Describe("Monitor", func() {
	var (
		kernel  *sim.Kernel
		monitor *Monitor
	)

	BeforeEach(func() {
		kernel = sim.NewKernel()
		monitor = NewMonitor()
		monitor.RegisterKernel(kernel)
	})

	It("should report the current time", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/now", nil)

		monitor.now(w, r)

		Expect(w.Body.String()).To(Equal("{\"now\":0}"))
	})

	It("should list processes with their states", func() {
		sim.Initial(kernel, "Driver", func(ctx *sim.Context) {
			ctx.Delay(10)
		})
		Expect(kernel.RunUntil(5)).To(Succeed())

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/processes", nil)

		monitor.listProcesses(w, r)

		var rsp []processRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Driver"))
		Expect(rsp[0].State).To(Equal("Suspended"))
		Expect(rsp[0].Waiting).NotTo(BeEmpty())
	})

	It("should list signals with their values", func() {
		sig := sim.NewSignal(kernel, "Count", 4)
		sig.Write(logic.FromUint64(4, 9))
		monitor.RegisterSignal(sig)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/signals", nil)

		monitor.listSignals(w, r)

		var rsp []signalRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("Count"))
		Expect(rsp[0].Width).To(Equal(4))
		Expect(rsp[0].Value).To(Equal("1001"))
	})

	It("should report primitive state", func() {
		monitor.RegisterSemaphore(sim.NewSemaphore(kernel, "Sem", 3))
		monitor.RegisterMailbox(sim.NewMailbox(kernel, "Mbx", 2))
		monitor.RegisterEvent(sim.NewNamedEvent(kernel, "Done"))

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/primitives", nil)

		monitor.listPrimitives(w, r)

		var rsp primitivesRsp
		Expect(json.Unmarshal(w.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Semaphores[0].Available).To(Equal(3))
		Expect(rsp.Mailboxes[0].Capacity).To(Equal(2))
		Expect(rsp.Events[0].Triggered).To(BeFalse())
	})

	It("should sort buffers by level", func() {
		b1 := sim.NewBuffer("BufA", 4)
		b2 := sim.NewBuffer("BufB", 4)
		b2.Push(1)
		b2.Push(2)
		monitor.RegisterBuffer(b1)
		monitor.RegisterBuffer(b2)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/buffers?limit=1", nil)

		monitor.listBuffers(w, r)

		Expect(w.Body.String()).To(
			Equal("[{\"buffer\":\"BufB\",\"level\":2,\"cap\":4}]"))
	})

	It("should report null when there is no deadlock", func() {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/deadlock", nil)

		monitor.reportDeadlock(w, r)

		Expect(w.Body.String()).To(Equal("null"))
	})

	It("should track progress bars", func() {
		bar := monitor.CreateProgressBar("Items", 10)
		bar.IncrementFinished(5)

		Expect(bar.Percentage()).To(BeNumerically("~", 50.0))

		monitor.CompleteProgressBar(bar)

		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/progress", nil)
		monitor.listProgressBars(w, r)

		Expect(w.Body.String()).To(Equal("[]"))
	})
})
