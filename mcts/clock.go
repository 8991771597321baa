package mcts

import (
	"sync"
	"time"
)

// Clock is polled once per search iteration.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// StepClock advances by Step on every call to Now, so a search under it runs
// a fixed number of iterations regardless of machine speed.
type StepClock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

func NewStepClock(step time.Duration) *StepClock {
	return &StepClock{t: time.Unix(0, 0), Step: step}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.Step)
	return c.t
}
