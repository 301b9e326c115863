package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() SimTime
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// A SimulationEndHandler is a handler that is called after the simulation
// ends.
type SimulationEndHandler interface {
	Handle(now SimTime)
}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run will process all the events until the simulation finishes.
	Run() error

	// RunUntil processes events up to and including the given tick. The
	// current time after RunUntil returns is the horizon, even if no event
	// was scheduled exactly there.
	RunUntil(t SimTime) error

	// Pause will pause the simulation until Continue is called.
	Pause()

	// Continue will continue the paused simulation.
	Continue()

	// RequestFinish asks the engine to stop handling events at the next
	// instant boundary, the $finish equivalent.
	RequestFinish()

	// Deadlock reports whether the last run ended with suspended processes
	// that no future event could unblock. It returns nil after a clean run.
	Deadlock() *DeadlockReport

	// RegisterSimulationEndHandler registers a handler that performs some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler.
	Finished()
}
