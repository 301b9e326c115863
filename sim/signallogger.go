package sim

import (
	"log"

	"github.com/hdlab/svsim/logic"
)

// SignalLogger is a hook for logging value changes as signals commit them.
type SignalLogger struct {
	LogHookBase

	timeTeller TimeTeller
}

// NewSignalLogger returns a new SignalLogger which will write into the
// logger.
func NewSignalLogger(logger *log.Logger, tt TimeTeller) *SignalLogger {
	h := new(SignalLogger)
	h.Logger = logger
	h.timeTeller = tt
	return h
}

// Func writes the signal change information into the logger.
func (h *SignalLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosSignalUpdate {
		return
	}

	s, ok := ctx.Item.(*Signal)
	if !ok {
		return
	}

	v := ctx.Detail.(logic.Vector)
	h.Logger.Printf("%d,%s,%s",
		h.timeTeller.CurrentTime(), s.Name(), v.String())
}
