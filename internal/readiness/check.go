package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidSuite is returned before anything runs when the check list
	// itself is malformed.
	ErrInvalidSuite = errors.New("invalid check suite")

	// ErrTimeout marks a probe that did not finish within its timeout.
	ErrTimeout = errors.New("timed out")
)

// Probe performs one self-contained check. A nil error means pass; the
// error text becomes the diagnostic message otherwise.
type Probe func(ctx context.Context) error

// Spec describes a single check
type Spec struct {
	Name        string
	Description string
	// Target names what the probe talks to, for display only.
	Target string
	// Timeout bounds the probe. Zero means the runner default.
	Timeout time.Duration
	Probe   Probe
}

// Validate checks that every spec is runnable and names are unique.
func Validate(specs []Spec) error {
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("%w: check #%d has no name", ErrInvalidSuite, i)
		}
		if spec.Probe == nil {
			return fmt.Errorf("%w: check %q has no probe", ErrInvalidSuite, spec.Name)
		}
		if spec.Timeout < 0 {
			return fmt.Errorf("%w: check %q has negative timeout", ErrInvalidSuite, spec.Name)
		}
		if seen[spec.Name] {
			return fmt.Errorf("%w: duplicate check name %q", ErrInvalidSuite, spec.Name)
		}
		seen[spec.Name] = true
	}
	return nil
}

// Find returns the spec with the given name.
func Find(specs []Spec, name string) (Spec, bool) {
	for _, spec := range specs {
		if spec.Name == name {
			return spec, true
		}
	}
	return Spec{}, false
}

// Select keeps the specs named in only (all when empty) minus those in
// skip. Unknown names are an error so typos do not silently pass.
func Select(specs []Spec, only, skip []string) ([]Spec, error) {
	for _, name := range append(append([]string{}, only...), skip...) {
		if _, ok := Find(specs, name); !ok {
			return nil, fmt.Errorf("unknown check %q", name)
		}
	}

	include := make(map[string]bool, len(only))
	for _, name := range only {
		include[name] = true
	}
	exclude := make(map[string]bool, len(skip))
	for _, name := range skip {
		exclude[name] = true
	}

	selected := make([]Spec, 0, len(specs))
	for _, spec := range specs {
		if len(include) > 0 && !include[spec.Name] {
			continue
		}
		if exclude[spec.Name] {
			continue
		}
		selected = append(selected, spec)
	}
	return selected, nil
}
