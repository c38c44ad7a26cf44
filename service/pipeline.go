package service

import (
	"context"

	"github.com/ludo-technologies/sanity/domain"
	"github.com/ludo-technologies/sanity/internal/logging"
)

// Pipeline runs work units one after the other. The first failing unit
// aborts the run.
type Pipeline struct {
	units    []domain.WorkUnit
	progress domain.ProgressManager
	log      *logging.Logger
}

// NewPipeline creates an empty pipeline. pm may be nil.
func NewPipeline(pm domain.ProgressManager, log *logging.Logger) *Pipeline {
	if pm == nil {
		pm = &NoOpProgressManager{}
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Pipeline{progress: pm, log: log}
}

// Add appends units to the run order.
func (p *Pipeline) Add(units ...domain.WorkUnit) *Pipeline {
	p.units = append(p.units, units...)
	return p
}

// Units returns the units in run order.
func (p *Pipeline) Units() []domain.WorkUnit {
	out := make([]domain.WorkUnit, len(p.units))
	copy(out, p.units)
	return out
}

// Run executes every unit. A failure is returned as *domain.WorkUnitError.
func (p *Pipeline) Run(ctx context.Context) error {
	task := p.progress.StartTask("Analyzing", len(p.units))
	defer task.Complete()

	for _, unit := range p.units {
		if err := ctx.Err(); err != nil {
			return &domain.WorkUnitError{Unit: unit.Name(), Err: err}
		}

		task.Describe(unit.Name())
		p.log.Debugf("running %s", unit.Name())

		if err := unit.Run(ctx); err != nil {
			p.log.Debugf("%s failed: %v", unit.Name(), err)
			return &domain.WorkUnitError{Unit: unit.Name(), Err: err}
		}
		task.Increment(1)
	}
	return nil
}
