package sim

import (
	"log"

	"github.com/hdlab/svsim/logic"
)

// A Clock drives a 1-bit signal with a fixed period through self-scheduled
// events. It is the kernel-side equivalent of the forever #d toggle block.
type Clock struct {
	kernel *Kernel
	signal *Signal

	period SimTime
	high   SimTime
	offset SimTime

	started bool
	stopped bool
}

// NewClock creates a clock on the given 1-bit signal with a 50/50 duty
// cycle.
func NewClock(k *Kernel, signal *Signal, period SimTime) *Clock {
	if signal.Width() != 1 {
		log.Panicf("clock signal %s must be 1 bit wide", signal.Name())
	}

	if period < 2 {
		log.Panicf("clock period must be at least 2 ticks, got %d", period)
	}

	return &Clock{
		kernel: k,
		signal: signal,
		period: period,
		high:   period / 2,
	}
}

// WithDuty sets how many ticks of each period the signal stays high.
func (c *Clock) WithDuty(high SimTime) *Clock {
	if high == 0 || high >= c.period {
		log.Panicf("clock duty %d does not fit period %d", high, c.period)
	}

	c.high = high
	return c
}

// WithOffset delays the first rising edge by the given number of ticks.
func (c *Clock) WithOffset(offset SimTime) *Clock {
	c.offset = offset
	return c
}

// Signal returns the signal the clock drives.
func (c *Clock) Signal() *Signal {
	return c.signal
}

// Period returns the clock period in ticks.
func (c *Clock) Period() SimTime {
	return c.period
}

// Start drives the signal low now and schedules the first rising edge. A
// clock can only start once.
func (c *Clock) Start() {
	if c.started {
		log.Panicf("clock on %s already started", c.signal.Name())
	}
	c.started = true

	c.signal.Write(logic.Fill(1, logic.L))
	c.kernel.Schedule(&clockEvent{
		EventBase: MakeEventBase(
			c.kernel.readNow()+c.offset, RegionActive, c),
	})
}

// Stop makes the clock stop toggling after the current edge. The signal
// keeps its last value.
func (c *Clock) Stop() {
	c.stopped = true
}

type clockEvent struct {
	EventBase
}

// Handle toggles the signal and schedules the next edge.
func (c *Clock) Handle(e Event) error {
	if _, ok := e.(*clockEvent); !ok {
		log.Panicf("clock on %s cannot handle event %T", c.signal.Name(), e)
	}

	if c.stopped {
		return nil
	}

	var next SimTime
	if c.signal.Value().Lsb() == logic.H {
		c.signal.Write(logic.Fill(1, logic.L))
		next = c.period - c.high
	} else {
		c.signal.Write(logic.Fill(1, logic.H))
		next = c.high
	}

	c.kernel.Schedule(&clockEvent{
		EventBase: MakeEventBase(
			c.kernel.readNow()+next, RegionActive, c),
	})

	return nil
}
