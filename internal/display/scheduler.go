package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/core/glib"
)

// Scheduler runs popup timers as glib timeouts on the main loop.
type Scheduler struct{}

// NewScheduler returns a main loop scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the wall clock time.
func (*Scheduler) Now() time.Time {
	return time.Now()
}

// AfterFunc runs f once on the main loop after d.
func (*Scheduler) AfterFunc(d time.Duration, f func()) func() {
	done := false
	src := glib.TimeoutAdd(uint(d.Milliseconds()), func() bool {
		done = true
		f()
		return false
	})
	return func() {
		// Removing a source that already ran makes glib warn.
		if done {
			return
		}
		done = true
		glib.SourceRemove(src)
	}
}
