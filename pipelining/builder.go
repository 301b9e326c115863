package pipelining

import (
	"fmt"
	"log"

	"github.com/hdlab/svsim/sim"
)

// A Builder can build pipelines.
type Builder struct {
	numStages     int
	stageLatency  sim.SimTime
	stageCapacity int
	stageFn       StageFunc
}

// MakeBuilder creates a default builder.
func MakeBuilder() Builder {
	return Builder{
		numStages:     3,
		stageLatency:  1,
		stageCapacity: 1,
	}
}

// WithNumStages sets the number of pipeline stages.
func (b Builder) WithNumStages(n int) Builder {
	b.numStages = n
	return b
}

// WithStageLatency sets how many ticks each stage holds an item.
func (b Builder) WithStageLatency(d sim.SimTime) Builder {
	b.stageLatency = d
	return b
}

// WithStageCapacity sets the capacity of the mailboxes between stages,
// including the input and output mailboxes.
func (b Builder) WithStageCapacity(n int) Builder {
	b.stageCapacity = n
	return b
}

// WithStageFunc sets the transformation applied at every stage.
func (b Builder) WithStageFunc(fn StageFunc) Builder {
	b.stageFn = fn
	return b
}

// Build builds a pipeline and spawns its stage processes on the kernel.
func (b Builder) Build(k *sim.Kernel, name string) *Pipeline {
	sim.NameMustBeValid(name)

	if b.numStages <= 0 {
		log.Panicf("pipeline %s must have at least one stage", name)
	}
	if b.stageCapacity <= 0 {
		log.Panicf("pipeline %s must have positive stage capacity", name)
	}

	p := &Pipeline{
		name:         name,
		kernel:       k,
		numStages:    b.numStages,
		stageLatency: b.stageLatency,
		stageFn:      b.stageFn,
	}

	p.mailboxes = make([]*sim.Mailbox, b.numStages+1)
	for i := range p.mailboxes {
		p.mailboxes[i] = sim.NewMailbox(
			k,
			fmt.Sprintf("%s.Slot[%d]", name, i),
			b.stageCapacity,
		)
	}

	p.spawn()

	return p
}
