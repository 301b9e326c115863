package sim

// HookPos defines the enum of possible hooking positions
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accept Hooks
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosBeforeEvent is a hook position that triggers before handling an event
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// HookPosTimeAdvance is a hook position that triggers when the kernel moves
// from one instant to the next. Item is the new SimTime.
var HookPosTimeAdvance = &HookPos{Name: "TimeAdvance"}

// HookPosProcessStart triggers when a process runs its body for the first
// time. Item is the Process.
var HookPosProcessStart = &HookPos{Name: "ProcessStart"}

// HookPosProcessSuspend triggers when a process yields at a suspension point.
// Item is the Process, Detail describes the wait condition.
var HookPosProcessSuspend = &HookPos{Name: "ProcessSuspend"}

// HookPosProcessResume triggers when a suspended process becomes runnable
// again. Item is the Process.
var HookPosProcessResume = &HookPos{Name: "ProcessResume"}

// HookPosProcessFinish triggers when a process body returns or the process is
// torn down with its fork group. Item is the Process.
var HookPosProcessFinish = &HookPos{Name: "ProcessFinish"}

// HookPosSignalUpdate triggers when a signal commits a new value. Item is the
// Signal, Detail is the committed logic.Vector.
var HookPosSignalUpdate = &HookPos{Name: "SignalUpdate"}

// HookPosDeadlock triggers when a run drains the queue while processes remain
// suspended. Item is the DeadlockReport.
var HookPosDeadlock = &HookPos{Name: "Deadlock"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase creates a HookableBase object
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.hooks = make([]Hook, 0)
	return h
}

// AcceptHook register a hook
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// Hooks returns the registered hooks.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook triggers the register Hooks
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
