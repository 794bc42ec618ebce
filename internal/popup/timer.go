package popup

import (
	"fmt"
	"log/slog"
	"time"
)

// Scheduler runs callbacks on the owner's event loop after a delay.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time
	// AfterFunc runs f once after d. The returned cancel function stops
	// a callback that has not yet run and is a no-op afterwards.
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// DismissState is the state of the shared countdown.
type DismissState int

const (
	// Idle means no countdown is pending.
	Idle DismissState = iota
	// Armed means a countdown is running towards Deadline.
	Armed
	// Expired means the countdown fired; the popup is going away.
	Expired
)

func (s DismissState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DismissTimer is the single countdown shared by every popup window.
// A pointer entering any window cancels it; leaving arms it. When it
// fires, onExpire is called exactly once.
type DismissTimer struct {
	period    time.Duration
	filter    bool
	scheduler Scheduler
	onExpire  func()
	logger    *slog.Logger

	state      DismissState
	deadline   time.Time
	generation uint64
	cancel     func()
}

// NewDismissTimer creates an idle timer.
//
// With filterInternal set, crossings between the popup's own widgets are
// ignored and only crossings of its outer boundary count. Synthetic
// crossings always count.
func NewDismissTimer(period time.Duration, filterInternal bool, scheduler Scheduler, onExpire func(), logger *slog.Logger) *DismissTimer {
	if logger == nil {
		logger = slog.Default()
	}
	if onExpire == nil {
		onExpire = func() {}
	}
	return &DismissTimer{
		period:    period,
		filter:    filterInternal,
		scheduler: scheduler,
		onExpire:  onExpire,
		logger:    logger,
	}
}

// State returns the current state.
func (t *DismissTimer) State() DismissState {
	return t.state
}

// Deadline returns when the armed countdown fires. It is zero unless the
// timer is Armed.
func (t *DismissTimer) Deadline() time.Time {
	if t.state != Armed {
		return time.Time{}
	}
	return t.deadline
}

// Generation identifies the most recently armed countdown.
func (t *DismissTimer) Generation() uint64 {
	return t.generation
}

// Enter handles the pointer entering a popup region.
func (t *DismissTimer) Enter(c Crossing) {
	if !t.counts(c) {
		t.logger.Debug("ignoring internal enter", "crossing", c.String())
		return
	}
	if t.state != Armed {
		return
	}
	t.disarm()
	t.logger.Debug("dismiss cancelled", "crossing", c.String())
}

// Leave handles the pointer leaving a popup region.
func (t *DismissTimer) Leave(c Crossing) {
	if !t.counts(c) {
		t.logger.Debug("ignoring internal leave", "crossing", c.String())
		return
	}
	if t.state != Idle {
		return
	}
	t.arm()
	t.logger.Debug("dismiss armed", "crossing", c.String(), "deadline", t.deadline)
}

// Pulse simulates the pointer entering and leaving again, restarting the
// full quiet period.
func (t *DismissTimer) Pulse() {
	t.Enter(CrossingSynthetic)
	t.Leave(CrossingSynthetic)
}

// Fire handles the expiry of the countdown with the given generation.
// Expiries of cancelled or superseded countdowns are ignored.
func (t *DismissTimer) Fire(generation uint64) {
	if t.state != Armed || generation != t.generation {
		t.logger.Debug("ignoring stale dismiss", "generation", generation, "current", t.generation, "state", t.state.String())
		return
	}
	t.state = Expired
	t.cancel = nil
	t.deadline = time.Time{}
	t.logger.Debug("dismiss expired", "generation", generation)
	t.onExpire()
}

// Stop cancels any pending countdown without firing it.
func (t *DismissTimer) Stop() {
	if t.state == Armed {
		t.disarm()
	}
}

func (t *DismissTimer) counts(c Crossing) bool {
	if t.state == Expired {
		return false
	}
	if c.Synthetic() || !t.filter {
		return true
	}
	return c.External()
}

func (t *DismissTimer) arm() {
	t.generation++
	gen := t.generation
	t.state = Armed
	t.deadline = t.scheduler.Now().Add(t.period)
	t.cancel = t.scheduler.AfterFunc(t.period, func() { t.Fire(gen) })
}

func (t *DismissTimer) disarm() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	// Invalidate the cancelled countdown even if its callback is already queued.
	t.generation++
	t.state = Idle
	t.deadline = time.Time{}
}
