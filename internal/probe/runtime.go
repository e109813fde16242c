package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Runtime answers questions about the interpreter the application runs on.
type Runtime interface {
	Version(ctx context.Context) (string, error)
	Timezone(ctx context.Context) (string, error)
	IsFeatureAvailable(ctx context.Context, name string) (bool, error)
}

// CommandRunner executes an external program and returns its output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// StdoutCommand runs the program and returns what it wrote to stdout.
func StdoutCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// CombinedCommand runs the program and returns stdout and stderr together.
func CombinedCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// phpInspectScript prints everything the checks need as one JSON object.
// Zend extensions (OPcache, Xdebug) are only listed by the zend variant.
const phpInspectScript = `echo json_encode([
	'version' => PHP_VERSION,
	'timezone' => date_default_timezone_get(),
	'extensions' => get_loaded_extensions(),
	'zend_extensions' => get_loaded_extensions(true),
]);`

type phpInfo struct {
	version  string
	timezone string
	features map[string]bool
}

// PHPRuntime inspects a php binary. The binary is executed at most once
// until Reset; only successful answers are cached.
type PHPRuntime struct {
	binary string
	run    CommandRunner

	mu   sync.Mutex
	info *phpInfo
}

// NewPHPRuntime creates a runtime that shells out to binary. A nil run
// uses StdoutCommand.
func NewPHPRuntime(binary string, run CommandRunner) *PHPRuntime {
	if run == nil {
		run = StdoutCommand
	}
	return &PHPRuntime{binary: binary, run: run}
}

func (p *PHPRuntime) Version(ctx context.Context) (string, error) {
	info, err := p.inspect(ctx)
	if err != nil {
		return "", err
	}
	return info.version, nil
}

func (p *PHPRuntime) Timezone(ctx context.Context) (string, error) {
	info, err := p.inspect(ctx)
	if err != nil {
		return "", err
	}
	return info.timezone, nil
}

// IsFeatureAvailable matches extension names case-insensitively, the same
// way extension_loaded does.
func (p *PHPRuntime) IsFeatureAvailable(ctx context.Context, name string) (bool, error) {
	info, err := p.inspect(ctx)
	if err != nil {
		return false, err
	}
	return info.features[strings.ToLower(name)], nil
}

// Reset drops the cached inspection so the next query runs php again.
func (p *PHPRuntime) Reset() {
	p.mu.Lock()
	p.info = nil
	p.mu.Unlock()
}

func (p *PHPRuntime) inspect(ctx context.Context) (*phpInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.info != nil {
		return p.info, nil
	}

	out, err := p.run(ctx, p.binary, "-d", "display_errors=stderr", "-r", phpInspectScript)
	if err != nil {
		return nil, &Failure{
			Kind: ErrToolMissing,
			Msg:  fmt.Sprintf("failed to run %s: %v", p.binary, err),
			Err:  err,
		}
	}

	info, err := parsePHPInfo(out)
	if err != nil {
		return nil, err
	}
	p.info = info
	return info, nil
}

func parsePHPInfo(out []byte) (*phpInfo, error) {
	if !gjson.ValidBytes(out) {
		return nil, &Failure{
			Kind: ErrProtocolMismatch,
			Msg:  fmt.Sprintf("unexpected php output: %q", truncate(string(out), 120)),
		}
	}

	doc := gjson.ParseBytes(out)
	version := doc.Get("version")
	if !version.Exists() {
		return nil, &Failure{Kind: ErrProtocolMismatch, Msg: "php output has no version field"}
	}

	info := &phpInfo{
		version:  version.String(),
		timezone: doc.Get("timezone").String(),
		features: make(map[string]bool),
	}
	for _, key := range []string{"extensions", "zend_extensions"} {
		doc.Get(key).ForEach(func(_, ext gjson.Result) bool {
			info.features[strings.ToLower(ext.String())] = true
			return true
		})
	}
	return info, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// MissingFeatures returns the names in required that rt does not provide,
// in the order given.
func MissingFeatures(ctx context.Context, rt Runtime, required []string) ([]string, error) {
	var missing []string
	for _, name := range required {
		ok, err := rt.IsFeatureAvailable(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
