package instance

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// Status describes the lock file as seen from outside the owner.
type Status struct {
	Path string
	// Exists is false when no invocation has run in this session yet.
	Exists bool
	// Held reports whether an owner currently holds the lock.
	Held bool
	// LastSignalPID is the pid written by the most recent non-owner, or 0.
	LastSignalPID int
	// ModTime is when the file content last changed.
	ModTime time.Time
}

// Probe inspects the lock file without creating it. The probe takes a
// shared non-blocking lock and drops it immediately.
func Probe(path string) (Status, error) {
	st := Status{Path: path}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("open lock file: %w", err)
	}
	defer func() { _ = f.Close() }()
	st.Exists = true

	if info, err := f.Stat(); err == nil {
		st.ModTime = info.ModTime()
	}

	switch err := flock(f, unix.LOCK_SH|unix.LOCK_NB); {
	case err == nil:
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	case errors.Is(err, ErrLocked):
		st.Held = true
	default:
		return st, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return st, fmt.Errorf("read lock file: %w", err)
	}
	if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid > 0 {
		st.LastSignalPID = pid
	}

	return st, nil
}
