// Package pipelining builds process-network pipelines out of kernel
// processes connected by bounded mailboxes.
package pipelining

import (
	"fmt"
	"log"

	"github.com/hdlab/svsim/sim"
	"github.com/hdlab/svsim/tracing"
)

// A StageFunc transforms an item as it passes through one pipeline stage.
type StageFunc func(stage int, item any) any

// tracedItem lets pipeline items opt in to per-item task tracing.
type tracedItem interface {
	TaskID() string
}

// A Pipeline is an ordered chain of stage processes. Each stage takes an
// item from its input mailbox, holds it for the stage latency, applies the
// stage function, and hands it to the next stage. Bounded mailboxes give
// backpressure in both directions; one process per stage preserves item
// order end to end.
type Pipeline struct {
	sim.HookableBase

	name         string
	kernel       *sim.Kernel
	numStages    int
	stageLatency sim.SimTime
	stageFn      StageFunc

	// numStages+1 mailboxes: [0] feeds stage 0, [numStages] collects output.
	mailboxes []*sim.Mailbox
	root      *sim.Process
}

// Name returns the name of the pipeline.
func (p *Pipeline) Name() string {
	return p.name
}

// In returns the mailbox that feeds the first stage.
func (p *Pipeline) In() *sim.Mailbox {
	return p.mailboxes[0]
}

// Out returns the mailbox that collects finished items.
func (p *Pipeline) Out() *sim.Mailbox {
	return p.mailboxes[p.numStages]
}

// Put feeds an item into the pipeline, blocking while the input mailbox is
// full.
func (p *Pipeline) Put(ctx *sim.Context, item any) error {
	return p.In().Put(ctx, item)
}

// Get takes the next finished item, blocking while none is ready.
func (p *Pipeline) Get(ctx *sim.Context) any {
	return p.Out().Get(ctx)
}

// NumStages returns the number of stages.
func (p *Pipeline) NumStages() int {
	return p.numStages
}

func (p *Pipeline) spawn() {
	p.root = sim.Initial(p.kernel, p.name, func(ctx *sim.Context) {
		bodies := make([]sim.ProcessFunc, p.numStages)
		for i := 0; i < p.numStages; i++ {
			bodies[i] = p.stageBody(i)
		}

		ctx.Fork(bodies...)
	})
}

func (p *Pipeline) stageBody(stage int) sim.ProcessFunc {
	in := p.mailboxes[stage]
	out := p.mailboxes[stage+1]

	return func(ctx *sim.Context) {
		for {
			item := in.Get(ctx)

			if stage == 0 {
				p.startItemTask(item)
			}

			ctx.Delay(p.stageLatency)

			if p.stageFn != nil {
				item = p.stageFn(stage, item)
			}

			if err := out.Put(ctx, item); err != nil {
				log.Panic(err)
			}

			if stage == p.numStages-1 {
				p.endItemTask(item)
			}
		}
	}
}

func (p *Pipeline) startItemTask(item any) {
	ti, ok := item.(tracedItem)
	if !ok {
		return
	}

	tracing.StartTask(
		ti.TaskID()+".pipeline",
		ti.TaskID(),
		p,
		"pipeline",
		fmt.Sprintf("%T", item),
		nil,
	)
}

func (p *Pipeline) endItemTask(item any) {
	ti, ok := item.(tracedItem)
	if !ok {
		return
	}

	tracing.EndTask(ti.TaskID()+".pipeline", p)
}
