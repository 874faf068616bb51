package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	h, err := ReadHolder(dir)
	if err != nil {
		t.Fatalf("ReadHolder() error = %v", err)
	}
	if h.PID != os.Getpid() {
		t.Errorf("holder PID = %d, want %d", h.PID, os.Getpid())
	}
	if h.Since.IsZero() {
		t.Error("holder time not recorded")
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "LOCK")); !os.IsNotExist(err) {
		t.Errorf("lock file still present after Release: %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	dir := t.TempDir()

	l1, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(dir)
	if err == nil {
		t.Fatal("second Acquire() should fail")
	}

	var inUse *InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("expected InUseError, got %T: %v", err, err)
	}
	if inUse.Holder.PID != os.Getpid() {
		t.Errorf("InUseError PID = %d, want %d", inUse.Holder.PID, os.Getpid())
	}
}

func TestAcquireCreatesProfileDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles", "new")
	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer func() { _ = l.Release() }()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("profile dir not created: %v", err)
	}
}

func TestReleaseNilAndTwice(t *testing.T) {
	var nilLock *Lock
	if err := nilLock.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}

	l, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
