package probe

import (
	"fmt"
	"os"
	"strings"
)

// ReadTrimmed returns the file content without surrounding whitespace.
func ReadTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Failure{Kind: ErrValueMismatch, Msg: err.Error(), Err: err}
	}
	return strings.TrimSpace(string(data)), nil
}

// ExpectEqual fails with ErrValueMismatch unless actual, trimmed, equals
// expected. The message quotes the value that was found.
func ExpectEqual(actual, expected string) error {
	actual = strings.TrimSpace(actual)
	if actual != expected {
		return &Failure{Kind: ErrValueMismatch, Msg: fmt.Sprintf("got: %q", actual)}
	}
	return nil
}
