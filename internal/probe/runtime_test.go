package probe

import (
	"context"
	"errors"
	"testing"
)

const samplePHPOutput = `{"version":"8.3.12","timezone":"America\/Sao_Paulo",` +
	`"extensions":["Core","date","bcmath","PDO","pdo_mysql","swoole"],` +
	`"zend_extensions":["Zend OPcache"]}`

func fakeRunner(out string, err error, calls *int) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if calls != nil {
			*calls++
		}
		return []byte(out), err
	}
}

func TestPHPRuntime(t *testing.T) {
	calls := 0
	rt := NewPHPRuntime("php", fakeRunner(samplePHPOutput, nil, &calls))
	ctx := context.Background()

	version, err := rt.Version(ctx)
	if err != nil || version != "8.3.12" {
		t.Errorf("Expected 8.3.12, got %q (%v)", version, err)
	}

	tz, err := rt.Timezone(ctx)
	if err != nil || tz != "America/Sao_Paulo" {
		t.Errorf("Expected America/Sao_Paulo, got %q (%v)", tz, err)
	}

	for _, name := range []string{"pdo", "PDO", "swoole", "Zend OPcache", "zend opcache"} {
		ok, err := rt.IsFeatureAvailable(ctx, name)
		if err != nil || !ok {
			t.Errorf("Expected %q to be available, got %v (%v)", name, ok, err)
		}
	}

	ok, err := rt.IsFeatureAvailable(ctx, "gd")
	if err != nil || ok {
		t.Errorf("Expected gd to be missing, got %v (%v)", ok, err)
	}

	if calls != 1 {
		t.Errorf("Expected php to run once, ran %d times", calls)
	}
}

func TestPHPRuntimeFailures(t *testing.T) {
	ctx := context.Background()

	rt := NewPHPRuntime("php", fakeRunner("", errors.New("exec: \"php\": executable file not found in $PATH"), nil))
	if _, err := rt.Version(ctx); !errors.Is(err, ErrToolMissing) {
		t.Errorf("Expected ErrToolMissing, got %v", err)
	}

	rt = NewPHPRuntime("php", fakeRunner("PHP Warning: something", nil, nil))
	if _, err := rt.Version(ctx); !errors.Is(err, ErrProtocolMismatch) {
		t.Errorf("Expected ErrProtocolMismatch for non-JSON output, got %v", err)
	}
}

func TestPHPRuntimeRetriesAfterFailure(t *testing.T) {
	calls := 0
	fail := true
	rt := NewPHPRuntime("php", func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls++
		if fail {
			return nil, errors.New("boom")
		}
		return []byte(samplePHPOutput), nil
	})

	if _, err := rt.Version(context.Background()); err == nil {
		t.Fatal("Expected first call to fail")
	}
	fail = false
	if v, err := rt.Version(context.Background()); err != nil || v != "8.3.12" {
		t.Errorf("Expected failure not to be cached, got %q (%v)", v, err)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls, got %d", calls)
	}
}

func TestMissingFeatures(t *testing.T) {
	rt := NewPHPRuntime("php", fakeRunner(samplePHPOutput, nil, nil))

	missing, err := MissingFeatures(context.Background(), rt, []string{"bcmath", "gd", "pdo_mysql", "intl"})
	if err != nil {
		t.Fatal(err)
	}
	if len(missing) != 2 || missing[0] != "gd" || missing[1] != "intl" {
		t.Errorf("Expected [gd intl], got %v", missing)
	}
}

func TestPHPRuntimeReset(t *testing.T) {
	calls := 0
	rt := NewPHPRuntime("php", fakeRunner(samplePHPOutput, nil, &calls))
	ctx := context.Background()

	rt.Version(ctx)
	rt.Timezone(ctx)
	if calls != 1 {
		t.Fatalf("Expected one inspection before Reset, got %d", calls)
	}

	rt.Reset()
	if _, err := rt.Version(ctx); err != nil {
		t.Fatalf("Expected inspection after Reset to succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("Expected Reset to force a second inspection, got %d calls", calls)
	}
}
