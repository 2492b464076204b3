// Package pipeline wires ordered processing stages into a frame chain.
//
// Frames always move downstream. A stage receives a frame, performs its
// work, and emits zero or more frames to the next stage. Delivery is
// synchronous and single-goroutine; stages never hold locks.
package pipeline

import (
	"context"
	"fmt"

	"github.com/antoniostano/rosie/internal/frame"
)

// Emit forwards a frame to the rest of the chain below the current stage.
type Emit func(frame.Frame) error

// Stage is one processing step in the chain.
type Stage interface {
	Name() string
	// Process handles one frame. Pass-through stages call emit with the
	// same frame; transforming stages may emit different frames or none.
	Process(ctx context.Context, f frame.Frame, emit Emit) error
}

// Observer is notified before each stage processes a frame.
type Observer func(stage string, f frame.Frame)

// Chain is an ordered list of stages.
type Chain struct {
	stages   []Stage
	observer Observer
}

func New(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// SetObserver installs a per-stage delivery callback, typically for metrics.
func (c *Chain) SetObserver(obs Observer) {
	c.observer = obs
}

func (c *Chain) Len() int {
	return len(c.stages)
}

// IndexOf returns the position of the named stage, or -1.
func (c *Chain) IndexOf(name string) int {
	for i, st := range c.stages {
		if st.Name() == name {
			return i
		}
	}
	return -1
}

// Deliver hands the frame to the stage at index from and lets it flow
// downstream. Delivering past the end of the chain is a no-op, which is
// how the final stage's emit terminates.
func (c *Chain) Deliver(ctx context.Context, from int, f frame.Frame) error {
	if f == nil || from >= len(c.stages) {
		return nil
	}
	if from < 0 {
		from = 0
	}
	st := c.stages[from]
	if c.observer != nil {
		c.observer(st.Name(), f)
	}
	emit := func(out frame.Frame) error {
		return c.Deliver(ctx, from+1, out)
	}
	if err := st.Process(ctx, f, emit); err != nil {
		return fmt.Errorf("stage %s: %w", st.Name(), err)
	}
	return nil
}
