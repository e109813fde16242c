package probe

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// AtLeast compares two dotted versions semantically, so 8.10.0 is newer than
// 8.9.0. Pre-release suffixes such as "-dev" or "RC1" sort before the
// release they precede.
func AtLeast(actual, minimum string) (bool, error) {
	have, err := goversion.NewVersion(actual)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", actual, err)
	}
	want, err := goversion.NewVersion(minimum)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", minimum, err)
	}
	return have.GreaterThanOrEqual(want), nil
}

// RequireVersion fails with ErrValueMismatch when actual is older than minimum.
func RequireVersion(actual, minimum string) error {
	ok, err := AtLeast(actual, minimum)
	if err != nil {
		return &Failure{Kind: ErrValueMismatch, Msg: err.Error(), Err: err}
	}
	if !ok {
		return &Failure{Kind: ErrValueMismatch, Msg: fmt.Sprintf("%s is older than %s", actual, minimum)}
	}
	return nil
}
