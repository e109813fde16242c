package probe

import (
	"context"
	"fmt"
	"strings"
)

// ToolVersion runs binary with args and requires its output to contain
// marker. A missing binary produces no output and reports ErrToolMissing.
// The exit status is ignored as long as the output looks right, because
// tools like composer print plugin warnings and still exit non-zero.
func ToolVersion(ctx context.Context, run CommandRunner, binary, marker string, args ...string) (string, error) {
	out, err := run(ctx, binary, args...)
	text := strings.TrimSpace(string(out))

	if text == "" {
		f := &Failure{Kind: ErrToolMissing, Msg: fmt.Sprintf("%s is not installed", binary)}
		if err != nil {
			f.Err = err
		}
		return "", f
	}

	if !strings.Contains(text, marker) {
		return text, &Failure{
			Kind: ErrToolMissing,
			Msg:  fmt.Sprintf("unexpected output from %s: %q", binary, truncate(text, 120)),
			Err:  err,
		}
	}

	return firstLine(text), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
