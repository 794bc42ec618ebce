package instance

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

// lockFilePrefix names the per-session lock file inside the runtime dir.
const lockFilePrefix = "volpop-lock-"

// LockFileMode is the permission used when creating the lock file.
const LockFileMode = 0o600

// ErrLocked reports that another process holds the lock.
var ErrLocked = errors.New("lock held by another process")

// SessionLockPath returns the lock path for a runtime dir and display name.
func SessionLockPath(runtimeDir, display string) string {
	return filepath.Join(runtimeDir, lockFilePrefix+display)
}

// Lock is the outcome of an acquisition attempt.
type Lock struct {
	mu    sync.Mutex
	file  *os.File
	owner bool
}

// TryAcquire opens (creating if needed) the lock file at path and attempts a
// non-blocking exclusive lock.
//
// If the lock is obtained the returned Lock is the Owner and keeps the file
// open until Release. If another process holds it, the caller's pid is
// written into the file as a wake-up signal for the owner and a non-owner
// Lock is returned. A failed pid write is logged, not returned. An error is returned only when the file itself is unusable.
func TryAcquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, LockFileMode)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := flock(f, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		if !errors.Is(err, ErrLocked) {
			_ = f.Close()
			return nil, err
		}
		// The pid write is only a wake-up; the owner is running either way.
		if werr := writePID(f); werr != nil {
			slog.Warn("failed to signal lock owner", "lock_path", path, "error", werr)
		}
		_ = f.Close()
		return &Lock{}, nil
	}

	return &Lock{file: f, owner: true}, nil
}

// Owner reports whether this process holds the lock.
func (l *Lock) Owner() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner
}

// Release drops the lock and closes the descriptor. It is safe to call on a
// non-owner Lock and more than once.
func (l *Lock) Release() error {
	l.mu.Lock()
	f := l.file
	l.file = nil
	l.owner = false
	l.mu.Unlock()

	if f == nil {
		return nil
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("unlock: %w", err)
	}
	return f.Close()
}

// writePID is replaced in tests to simulate a failing write.
var writePID = signalOwner

// signalOwner replaces the file content with our pid. The owner never
// parses it; the write only exists to produce a change notification.
func signalOwner(f *os.File) error {
	pid := []byte(strconv.Itoa(os.Getpid()) + "\n")
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt(pid, 0)
	return err
}

// flock applies how to f, retrying on EINTR and mapping contention to ErrLocked.
func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EWOULDBLOCK):
			return ErrLocked
		default:
			return fmt.Errorf("flock: %w", err)
		}
	}
}
