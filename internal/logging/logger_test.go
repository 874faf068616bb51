package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatr.log")

	logger, err := New(path, "work", Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, `"msg":"hello"`) {
		t.Errorf("log line = %q, want msg hello", line)
	}
	if !strings.Contains(line, `"profile":"work"`) {
		t.Errorf("log line = %q, want profile field", line)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatr.log")
	if _, err := New(path, "main", Options{Level: "loud"}); err == nil {
		t.Error("New() expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
}
