package domain

import (
	"context"
	"fmt"
)

// WorkUnit is one ordered step of an analysis run
type WorkUnit interface {
	Name() string
	Run(ctx context.Context) error
}

// WorkUnitError reports the unit that aborted a run
type WorkUnitError struct {
	Unit string
	Err  error
}

func (e *WorkUnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Unit, e.Err)
}

func (e *WorkUnitError) Unwrap() error {
	return e.Err
}
