package readiness

import "time"

// Status represents the outcome of a check
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Result represents the result of running one check
type Result struct {
	Name      string
	Status    Status
	Message   string
	Duration  time.Duration
	CheckedAt time.Time
	Err       error
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool {
	return r.Status == StatusPass
}

// Report holds one Result per check, in declaration order.
type Report struct {
	Results    []Result
	StartedAt  time.Time
	FinishedAt time.Time
}

// Status is pass only when every result passed. An empty report passes.
func (r Report) Status() Status {
	for _, res := range r.Results {
		if !res.Passed() {
			return StatusFail
		}
	}
	return StatusPass
}

// PassCount returns the number of passing results.
func (r Report) PassCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// FailCount returns the number of failing results.
func (r Report) FailCount() int {
	return len(r.Results) - r.PassCount()
}

// Get looks up a result by check name.
func (r Report) Get(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Duration is the wall time of the whole run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
