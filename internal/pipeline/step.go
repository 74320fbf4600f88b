// Package pipeline runs the batch stages of the lake: sequential steps with
// per-step timeouts, bounded retries with exponential backoff for recoverable
// failures, and typed errors distinguishing recoverable from fatal ones.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Step is one unit of a batch run.
type Step interface {
	// ID returns the stable identifier of the step.
	ID() string

	// Name returns the human-readable name of the step.
	Name() string

	// Run executes the step. A returned *StepError classifies the
	// failure; any other error is treated as non-retryable execution
	// failure.
	Run(ctx context.Context, state *State) error
}

// StepFunc adapts a function to the Step interface.
type StepFunc struct {
	StepID   string
	StepName string
	Fn       func(ctx context.Context, state *State) error
}

// ID returns the step identifier.
func (s StepFunc) ID() string { return s.StepID }

// Name returns the step name.
func (s StepFunc) Name() string { return s.StepName }

// Run executes the wrapped function.
func (s StepFunc) Run(ctx context.Context, state *State) error { return s.Fn(ctx, state) }

// State carries values between the steps of one run.
type State struct {
	// RunID identifies this run in logs.
	RunID string

	mu     sync.RWMutex
	values map[string]any
}

// NewState creates a run state with a fresh run ID.
func NewState() *State {
	return &State{RunID: uuid.NewString(), values: make(map[string]any)}
}

// Set stores a value under key.
func (s *State) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Get returns the value stored under key.
func (s *State) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetInt returns the int value stored under key, or 0.
func (s *State) GetInt(key string) int {
	if v, ok := s.Get(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return 0
}

// StepStatus is the lifecycle state of a step within a run.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepReport summarizes one executed step.
type StepReport struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}
