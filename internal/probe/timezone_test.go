package probe

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadTrimmedAndExpectEqual(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good")
	if err := os.WriteFile(good, []byte("America/Sao_Paulo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadTrimmed(good)
	if err != nil {
		t.Fatalf("ReadTrimmed failed: %v", err)
	}
	if err := ExpectEqual(got, "America/Sao_Paulo"); err != nil {
		t.Errorf("Expected trailing newline to be trimmed, got %v", err)
	}

	bad := filepath.Join(dir, "bad")
	if err := os.WriteFile(bad, []byte("America/New_York"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = ReadTrimmed(bad)
	if err != nil {
		t.Fatalf("ReadTrimmed failed: %v", err)
	}
	err = ExpectEqual(got, "America/Sao_Paulo")
	if !errors.Is(err, ErrValueMismatch) {
		t.Fatalf("Expected ErrValueMismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), `"America/New_York"`) {
		t.Errorf("Expected quoted actual value in message, got %q", err)
	}

	if _, err := ReadTrimmed(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected missing file to fail")
	}
}
