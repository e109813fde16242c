package probe

import (
	"errors"
	"testing"
)

func TestAtLeast(t *testing.T) {
	cases := []struct {
		actual, minimum string
		want            bool
	}{
		{"8.2.9", "8.3.0", false},
		{"8.3.0", "8.3.0", true},
		{"8.3.1", "8.3.0", true},
		{"8.10.0", "8.9.0", true},
		{"7.4.33", "8.3.0", false},
		{"8.4.0RC1", "8.3.0", true},
		{"8.3.0-dev", "8.3.0", false},
	}

	for _, tc := range cases {
		got, err := AtLeast(tc.actual, tc.minimum)
		if err != nil {
			t.Errorf("AtLeast(%q, %q) returned error: %v", tc.actual, tc.minimum, err)
			continue
		}
		if got != tc.want {
			t.Errorf("AtLeast(%q, %q) = %v, want %v", tc.actual, tc.minimum, got, tc.want)
		}
	}
}

func TestRequireVersion(t *testing.T) {
	if err := RequireVersion("8.3.1", "8.3.0"); err != nil {
		t.Errorf("Expected pass, got %v", err)
	}
	if err := RequireVersion("8.2.9", "8.3.0"); !errors.Is(err, ErrValueMismatch) {
		t.Errorf("Expected ErrValueMismatch, got %v", err)
	}
	if err := RequireVersion("garbage", "8.3.0"); !errors.Is(err, ErrValueMismatch) {
		t.Errorf("Expected unparseable version to fail, got %v", err)
	}
}
