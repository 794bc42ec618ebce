// Package watch notifies the popup owner that another invocation touched
// the session lock file.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Notifier watches a single file and invokes a callback when it changes.
//
// Notifications carry no payload and bursts are coalesced: while a
// callback is running at most one further call is queued. Callers must
// treat every call as "re-read the source of truth".
type Notifier struct {
	mu       sync.Mutex
	logger   *slog.Logger
	filePath string

	watcher  *fsnotify.Watcher
	onChange func()

	pending chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewNotifier creates a notifier for filePath.
func NewNotifier(filePath string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:   logger,
		filePath: filePath,
	}
}

// SetChangeCallback sets the callback invoked after the file changes.
// The callback runs on the notifier's goroutine.
func (n *Notifier) SetChangeCallback(callback func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = callback
}

// Start begins watching. The watch is placed on the parent directory so
// it survives the file being replaced.
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(n.filePath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(n.filePath), err)
	}

	n.watcher = watcher
	n.pending = make(chan struct{}, 1)
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	n.running = true

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		n.watchLoop(ctx, watcher, n.pending, n.stopCh)
	}()
	go func() {
		defer wg.Done()
		n.dispatchLoop(ctx, n.pending, n.stopCh)
	}()
	go func(done chan struct{}) {
		wg.Wait()
		close(done)
	}(n.doneCh)

	n.logger.Debug("change notifier started", "path", n.filePath)
	return nil
}

// Stop stops watching and waits for the goroutines to exit.
// A callback that is already running is allowed to finish.
func (n *Notifier) Stop() error {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return nil
	}
	n.running = false
	close(n.stopCh)
	watcher := n.watcher
	done := n.doneCh
	n.mu.Unlock()

	err := watcher.Close()
	<-done
	n.logger.Debug("change notifier stopped", "path", n.filePath)
	return err
}

// watchLoop filters directory events down to writes of our file.
func (n *Notifier) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pending chan<- struct{}, stop <-chan struct{}) {
	filename := filepath.Base(n.filePath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			n.logger.Debug("lock file changed", "path", n.filePath, "op", event.Op.String())
			select {
			case pending <- struct{}{}:
			default:
				// Already queued; coalesce.
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn("change notifier error", "error", err)

		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (n *Notifier) dispatchLoop(ctx context.Context, pending <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-pending:
			n.mu.Lock()
			callback := n.onChange
			n.mu.Unlock()
			if callback != nil {
				callback()
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
