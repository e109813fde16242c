package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 5 * time.Second

// Runner executes checks and assembles a Report
type Runner struct {
	concurrency    int
	defaultTimeout time.Duration
	logger         zerolog.Logger
	beforeRun      []func()
	now            func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency caps the number of probes in flight. Zero or less runs
// every check at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithDefaultTimeout applies to specs that do not set their own timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.defaultTimeout = d
		}
	}
}

// WithLogger sets the logger used for per-check debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithBeforeRun registers fn to be called at the start of every Run, before
// any probe starts. Memoised probe state is reset here.
func WithBeforeRun(fn func()) Option {
	return func(r *Runner) {
		if fn != nil {
			r.beforeRun = append(r.beforeRun, fn)
		}
	}
}

// NewRunner creates a new runner
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		defaultTimeout: DefaultTimeout,
		logger:         zerolog.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every spec exactly once and returns one result per spec in
// the order given. The only error is ErrInvalidSuite; probe failures end
// up in the report.
func (r *Runner) Run(ctx context.Context, specs []Spec) (Report, error) {
	if err := Validate(specs); err != nil {
		return Report{}, err
	}

	for _, fn := range r.beforeRun {
		fn()
	}

	report := Report{
		Results:   make([]Result, len(specs)),
		StartedAt: r.now(),
	}

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}

	for i, spec := range specs {
		g.Go(func() error {
			// Each goroutine owns exactly one slot.
			report.Results[i] = r.runOne(ctx, spec)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = r.now()
	r.logger.Debug().
		Int("checks", len(report.Results)).
		Int("failed", report.FailCount()).
		Dur("duration", report.Duration()).
		Msg("suite finished")

	return report, nil
}

// runOne runs a single probe under its timeout. The probe runs in its own
// goroutine so one that ignores its context still cannot block the suite.
func (r *Runner) runOne(ctx context.Context, spec Spec) Result {
	timeout := spec.Timeout
	if timeout == 0 {
		timeout = r.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := Result{
		Name:      spec.Name,
		CheckedAt: r.now(),
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- fmt.Errorf("probe panicked: %v", p)
			}
		}()
		done <- spec.Probe(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrTimeout, timeout)
		} else {
			err = ctx.Err()
		}
	}
	result.Duration = r.now().Sub(result.CheckedAt)

	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		result.Err = err
		r.logger.Debug().Str("check", spec.Name).Dur("duration", result.Duration).Err(err).Msg("check failed")
		return result
	}

	result.Status = StatusPass
	r.logger.Debug().Str("check", spec.Name).Dur("duration", result.Duration).Msg("check passed")
	return result
}
