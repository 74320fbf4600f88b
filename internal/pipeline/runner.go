package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryConfig bounds the retry behavior of recoverable step failures.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// NewRetryConfig returns the default retry configuration.
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Runner executes steps sequentially. A failed step aborts the run; there is
// no cross-stage retry orchestration beyond the per-step retry policy.
type Runner struct {
	steps       []Step
	retry       RetryConfig
	stepTimeout time.Duration
	logger      *slog.Logger
}

// NewRunner creates a runner over the given steps.
func NewRunner(logger *slog.Logger, steps ...Step) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{steps: steps, retry: NewRetryConfig(), logger: logger}
}

// WithRetryConfig overrides the retry policy.
func (r *Runner) WithRetryConfig(cfg RetryConfig) *Runner {
	r.retry = cfg
	return r
}

// WithStepTimeout sets a timeout applied to every step; zero means none.
func (r *Runner) WithStepTimeout(d time.Duration) *Runner {
	r.stepTimeout = d
	return r
}

// Run executes all steps in order and returns a report per executed step.
// The first failed step ends the run with its error.
func (r *Runner) Run(ctx context.Context, state *State) ([]StepReport, error) {
	if state == nil {
		state = NewState()
	}

	reports := make([]StepReport, 0, len(r.steps))
	for _, step := range r.steps {
		report, err := r.runStep(ctx, step, state)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (r *Runner) runStep(ctx context.Context, step Step, state *State) (StepReport, error) {
	report := StepReport{ID: step.ID(), Name: step.Name(), Status: StepStatusActive}
	start := time.Now()

	logger := r.logger.With(slog.String("run_id", state.RunID), slog.String("step", step.ID()))
	logger.Info("step starting", slog.String("name", step.Name()))

	var err error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		report.Attempts = attempt
		err = r.attempt(ctx, step, state)
		if err == nil {
			break
		}
		if !IsRetryable(err) || attempt == r.retry.MaxAttempts {
			break
		}

		delay := r.retryDelay(attempt)
		logger.Warn("step failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			err = NewExecutionError(step.ID(), ctx.Err(), false)
			report.Status = StepStatusFailed
			report.Duration = time.Since(start)
			report.Error = err.Error()
			return report, err
		}
	}

	report.Duration = time.Since(start)
	if err != nil {
		report.Status = StepStatusFailed
		report.Error = err.Error()
		logger.Error("step failed",
			slog.Int("attempts", report.Attempts),
			slog.Duration("duration", report.Duration),
			slog.String("error", err.Error()))
		return report, fmt.Errorf("step %s: %w", step.ID(), err)
	}

	report.Status = StepStatusCompleted
	logger.Info("step completed",
		slog.Int("attempts", report.Attempts),
		slog.Duration("duration", report.Duration))
	return report, nil
}

func (r *Runner) attempt(ctx context.Context, step Step, state *State) error {
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- step.Run(ctx, state)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if r.stepTimeout > 0 && ctx.Err() == context.DeadlineExceeded {
			return NewTimeoutError(step.ID(), r.stepTimeout.String())
		}
		return NewExecutionError(step.ID(), ctx.Err(), false)
	}
}

func (r *Runner) retryDelay(attempt int) time.Duration {
	delay := r.retry.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * r.retry.Multiplier)
	}
	if delay > r.retry.MaxDelay {
		delay = r.retry.MaxDelay
	}
	return delay
}
