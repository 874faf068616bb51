package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// InUseError is returned when another chatr process already runs the profile.
type InUseError struct {
	Holder Holder
	Path   string
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("profile in use by PID %d since %s (%s)", e.Holder.PID, e.Holder.Since.Format(time.RFC3339), e.Path)
}

// Holder describes the process recorded in a lock file.
type Holder struct {
	PID   int
	Since time.Time
}

// Lock is an exclusive advisory lock on a profile directory. It keeps two TUI
// instances from writing the same credentials database.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the profile lock, creating the directory if needed.
func Acquire(profileDir string) (*Lock, error) {
	if err := os.MkdirAll(profileDir, 0700); err != nil {
		return nil, fmt.Errorf("create profile dir: %w", err)
	}
	lockPath := filepath.Join(profileDir, "LOCK")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		h, _ := ReadHolder(profileDir)
		return nil, &InUseError{Holder: h, Path: lockPath}
	}

	if err := writeHolder(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: lockPath}, nil
}

// ReadHolder parses the lock file of profileDir without taking the lock.
func ReadHolder(profileDir string) (Holder, error) {
	data, err := os.ReadFile(filepath.Join(profileDir, "LOCK"))
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "pid="); ok {
			h.PID, _ = strconv.Atoi(v)
		}
		if v, ok := strings.CutPrefix(line, "time="); ok {
			h.Since, _ = time.Parse(time.RFC3339, v)
		}
	}
	return h, nil
}

// Release drops the lock and removes the lock file. Safe on a nil receiver
// and safe to call twice.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

func writeHolder(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "pid=%d\ntime=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	return err
}
