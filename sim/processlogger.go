package sim

import "log"

// ProcessLogger is a hook for logging process state transitions.
type ProcessLogger struct {
	LogHookBase

	timeTeller TimeTeller
}

// NewProcessLogger returns a new ProcessLogger which will write into the
// logger.
func NewProcessLogger(logger *log.Logger, tt TimeTeller) *ProcessLogger {
	h := new(ProcessLogger)
	h.Logger = logger
	h.timeTeller = tt
	return h
}

// Func writes the process transition information into the logger.
func (h *ProcessLogger) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosProcessStart, HookPosProcessResume, HookPosProcessFinish:
		p := ctx.Item.(*Process)
		h.Logger.Printf("%d,%s,%s",
			h.timeTeller.CurrentTime(), p.Name(), ctx.Pos.Name)
	case HookPosProcessSuspend:
		p := ctx.Item.(*Process)
		h.Logger.Printf("%d,%s,%s,%s",
			h.timeTeller.CurrentTime(), p.Name(), ctx.Pos.Name, ctx.Detail)
	}
}
