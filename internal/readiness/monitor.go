package readiness

import (
	"context"
	"time"
)

// Update is emitted by a Monitor at the start and end of every run.
type Update struct {
	Running bool
	Report  Report
	Err     error
}

// Monitor reruns a suite on an interval
type Monitor struct {
	runner   *Runner
	specs    []Spec
	interval time.Duration
	updates  chan Update
	trigger  chan struct{}
	done     chan struct{}
}

// NewMonitor creates a new monitor instance. The suite is validated up
// front so a malformed list never reaches the loop.
func NewMonitor(runner *Runner, specs []Spec, interval time.Duration) (*Monitor, error) {
	if err := Validate(specs); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Monitor{
		runner:   runner,
		specs:    specs,
		interval: interval,
		updates:  make(chan Update, 2),
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Specs returns the checks this monitor runs.
func (m *Monitor) Specs() []Spec {
	return m.specs
}

// Interval returns the delay between runs.
func (m *Monitor) Interval() time.Duration {
	return m.interval
}

// Start runs the suite immediately and then on every tick until ctx ends.
func (m *Monitor) Start(ctx context.Context) {
	defer func() {
		close(m.updates)
		close(m.done)
	}()

	if !m.runOnce(ctx) {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.trigger:
			ticker.Reset(m.interval)
		}
		if !m.runOnce(ctx) {
			return
		}
	}
}

// Trigger requests an immediate run. Requests made while one is already
// pending are coalesced.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// runOnce reports false when ctx ended while publishing.
func (m *Monitor) runOnce(ctx context.Context) bool {
	if !m.publish(ctx, Update{Running: true}) {
		return false
	}
	report, err := m.runner.Run(ctx, m.specs)
	return m.publish(ctx, Update{Report: report, Err: err})
}

func (m *Monitor) publish(ctx context.Context, u Update) bool {
	select {
	case m.updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

// Updates returns the channel for receiving run updates
func (m *Monitor) Updates() <-chan Update {
	return m.updates
}

// Done returns a channel that's closed when monitoring stops
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}
