package tracing

import (
	"github.com/hdlab/svsim/sim"
)

// TraceProcesses makes the kernel emit one task per process lifetime, with
// steps at every suspension and resumption. Combine with CollectTrace on the
// same kernel to deliver the tasks to a tracer.
func TraceProcesses(k *sim.Kernel) {
	k.AcceptHook(&processActivityHook{kernel: k})
}

// processActivityHook translates process lifecycle hooks into task events.
type processActivityHook struct {
	kernel *sim.Kernel
}

func (h *processActivityHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosProcessStart:
		p := ctx.Item.(*sim.Process)
		StartTask(p.ID(), "", h.kernel, "process", p.Name(), nil)
	case sim.HookPosProcessSuspend:
		p := ctx.Item.(*sim.Process)
		desc, _ := ctx.Detail.(string)
		if desc == "" {
			desc = "suspend"
		}
		AddTaskStep(p.ID(), h.kernel, "suspend: "+desc)
	case sim.HookPosProcessResume:
		p := ctx.Item.(*sim.Process)
		AddTaskStep(p.ID(), h.kernel, "resume")
	case sim.HookPosProcessFinish:
		p := ctx.Item.(*sim.Process)
		EndTask(p.ID(), h.kernel)
	}
}
