package garage

import (
	"context"
	"fmt"
)

// compensationStack records the inverse of every store write an
// operation has applied so far.  On failure the stack unwinds in
// reverse order, restoring the state each step changed.  Steps are
// pushed only after their forward write succeeded.
type compensationStack struct {
	steps []compensationStep
}

type compensationStep struct {
	name string
	undo func(ctx context.Context) error
}

func (c *compensationStack) push(name string, undo func(ctx context.Context) error) {
	c.steps = append(c.steps, compensationStep{name: name, undo: undo})
}

// unwind runs every recorded inverse, newest first.  It keeps going
// past individual failures so later inverses still get a chance to
// run, and returns whatever errors occurred.
func (c *compensationStack) unwind(ctx context.Context) []error {
	var errs []error
	for i := len(c.steps) - 1; i >= 0; i-- {
		step := c.steps[i]
		if err := step.undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", step.name, err))
		}
	}
	c.steps = nil
	return errs
}
