package popup

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/jmylchreest/volpop/internal/audio"
)

// mixerTimeout bounds a single mixer read or write made from the main loop.
const mixerTimeout = 2 * time.Second

// Window is one popup surface bound to an output.
type Window interface {
	// SetLevel updates the displayed value without reporting it back as
	// a slider change.
	SetLevel(level int)
	// Destroy closes the window and releases its surface.
	Destroy()
}

// WindowFactory creates windows for outputs.
type WindowFactory interface {
	NewWindow(output string, level int) (Window, error)
}

// LevelSource is the mixer as seen by the popup. *audio.Mixer implements it.
type LevelSource interface {
	CurrentLevel(ctx context.Context) (int, error)
	SetLevel(ctx context.Context, level int) error
}

// Group owns the per-output windows, the shared volume level and the
// shared dismiss timer.
type Group struct {
	mixer   LevelSource
	timer   *DismissTimer
	factory WindowFactory
	logger  *slog.Logger

	windows    map[string]Window
	level      int
	onFeedback func(level int)
}

// NewGroup creates an empty group showing level.
func NewGroup(mixer LevelSource, timer *DismissTimer, level int, logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.Default()
	}
	return &Group{
		mixer:   mixer,
		timer:   timer,
		logger:  logger,
		windows: make(map[string]Window),
		level:   audio.Clamp(level),
	}
}

// SetWindowFactory sets the factory used by OutputAdded.
func (g *Group) SetWindowFactory(f WindowFactory) {
	g.factory = f
}

// SetFeedback registers a function called after a slider change was
// written to the mixer.
func (g *Group) SetFeedback(fn func(level int)) {
	g.onFeedback = fn
}

// Level returns the shared volume level.
func (g *Group) Level() int {
	return g.level
}

// Timer returns the shared dismiss timer.
func (g *Group) Timer() *DismissTimer {
	return g.timer
}

// Outputs returns the outputs that currently have a window, sorted.
func (g *Group) Outputs() []string {
	out := make([]string, 0, len(g.windows))
	for id := range g.windows {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of windows.
func (g *Group) Len() int {
	return len(g.windows)
}

// Dispatch routes an event to the group or its timer.
func (g *Group) Dispatch(e Event) {
	g.logger.Debug("popup event", "event", e.String())

	switch e.Kind {
	case PointerEnter:
		g.timer.Enter(e.Crossing)
	case PointerLeave:
		g.timer.Leave(e.Crossing)
	case TimerFired:
		g.timer.Fire(e.Generation)
	case VolumeChanged:
		if e.Source == SourceSlider {
			g.SliderChanged(e.Output, e.Level)
		} else {
			g.Refresh()
		}
	case OutputAdded:
		if err := g.OutputAdded(e.Output); err != nil {
			g.logger.Warn("failed to create popup window", "output", e.Output, "error", err)
		}
	case OutputRemoved:
		g.OutputRemoved(e.Output)
	}
}

// OutputAdded creates a window for output, initialised from the mixer.
// Adding an output that already has a window is a no-op.
func (g *Group) OutputAdded(output string) error {
	if _, ok := g.windows[output]; ok {
		return nil
	}
	if g.factory == nil {
		return errors.New("no window factory")
	}

	if level, err := g.readLevel(); err != nil {
		g.logger.Warn("failed to read volume for new output, using last known level",
			"output", output, "level", g.level, "error", err)
	} else if level != g.level {
		g.Broadcast(level)
	}

	w, err := g.factory.NewWindow(output, g.level)
	if err != nil {
		return err
	}
	g.windows[output] = w
	g.logger.Debug("output added", "output", output, "windows", len(g.windows))
	return nil
}

// OutputRemoved destroys the window bound to output.
func (g *Group) OutputRemoved(output string) {
	w, ok := g.windows[output]
	if !ok {
		g.logger.Debug("removed output had no window", "output", output)
		return
	}
	delete(g.windows, output)
	w.Destroy()
	g.logger.Debug("output removed", "output", output, "windows", len(g.windows))
}

// Broadcast shows level in every window without writing it to the mixer.
func (g *Group) Broadcast(level int) {
	g.level = audio.Clamp(level)
	for _, id := range g.Outputs() {
		g.windows[id].SetLevel(g.level)
	}
}

// SliderChanged handles the user moving the slider on output's window.
// The mixer is written only when the level actually differs.
func (g *Group) SliderChanged(output string, level int) {
	level = audio.Clamp(level)
	if level != g.level {
		if err := g.writeLevel(level); err != nil {
			g.logger.Warn("failed to set volume", "level", level, "error", err)
			// Put every slider, including the one that moved, back to the truth.
			g.Refresh()
			return
		}
		g.level = level
		for id, w := range g.windows {
			if id != output {
				w.SetLevel(level)
			}
		}
		if g.onFeedback != nil {
			g.onFeedback(level)
		}
	}
	g.timer.Pulse()
}

// Refresh re-reads the mixer and shows the result everywhere. It is the
// response to any change notification, so repeated calls are harmless.
func (g *Group) Refresh() {
	level, err := g.readLevel()
	if err != nil {
		g.logger.Warn("failed to read volume", "error", err)
		return
	}
	g.logger.Debug("volume refreshed", "level", level)
	g.Broadcast(level)
	g.timer.Pulse()
}

// Close destroys every window and stops the timer.
func (g *Group) Close() {
	for _, id := range g.Outputs() {
		g.OutputRemoved(id)
	}
	g.timer.Stop()
}

func (g *Group) readLevel() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mixerTimeout)
	defer cancel()
	return g.mixer.CurrentLevel(ctx)
}

func (g *Group) writeLevel(level int) error {
	ctx, cancel := context.WithTimeout(context.Background(), mixerTimeout)
	defer cancel()
	return g.mixer.SetLevel(ctx, level)
}
