package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// Level bounds.
const (
	MinLevel = 0
	MaxLevel = 100
)

// ErrAudioUnavailable is returned when the mixer control cannot be opened
// or reports an unusable range.
var ErrAudioUnavailable = errors.New("audio mixer unavailable")

// Backend opens short-lived handles on a single mixer element.
type Backend interface {
	Open(ctx context.Context) (Handle, error)
}

// Handle is an open mixer element.
type Handle interface {
	// Range returns the raw playback volume range of the element.
	Range() (lo, hi int64)
	// Volume returns the raw playback volume read when the handle was opened.
	Volume() int64
	// SetVolume writes a raw playback volume to all channels.
	SetVolume(ctx context.Context, raw int64) error
	Close() error
}

// Mixer converts between raw element volumes and 0-100 levels.
type Mixer struct {
	backend Backend
	logger  *slog.Logger
}

// NewMixer creates a mixer session factory on top of backend.
func NewMixer(backend Backend, logger *slog.Logger) *Mixer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mixer{
		backend: backend,
		logger:  logger,
	}
}

// CurrentLevel returns the current playback level.
func (m *Mixer) CurrentLevel(ctx context.Context) (int, error) {
	h, err := m.open(ctx)
	if err != nil {
		return 0, err
	}
	defer m.close(h)

	lo, hi := h.Range()
	return rawToLevel(h.Volume(), lo, hi), nil
}

// SetLevel writes level, clamped to [0,100], to the mixer.
func (m *Mixer) SetLevel(ctx context.Context, level int) error {
	h, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer m.close(h)

	return m.write(ctx, h, Clamp(level))
}

// Adjust applies d to the current level within a single mixer session and
// returns the resulting level. A query delta only reads.
func (m *Mixer) Adjust(ctx context.Context, d PendingDelta) (int, error) {
	h, err := m.open(ctx)
	if err != nil {
		return 0, err
	}
	defer m.close(h)

	lo, hi := h.Range()
	now := rawToLevel(h.Volume(), lo, hi)
	if d.IsQuery() {
		return now, nil
	}

	target := d.Apply(now)
	if err := m.write(ctx, h, target); err != nil {
		return now, err
	}

	m.logger.Debug("adjusted volume", "from", now, "to", target, "delta", d.String())
	return target, nil
}

func (m *Mixer) open(ctx context.Context) (Handle, error) {
	h, err := m.backend.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAudioUnavailable, err)
	}

	lo, hi := h.Range()
	if hi <= lo {
		_ = h.Close()
		return nil, fmt.Errorf("%w: empty volume range [%d,%d]", ErrAudioUnavailable, lo, hi)
	}
	return h, nil
}

func (m *Mixer) close(h Handle) {
	if err := h.Close(); err != nil {
		m.logger.Debug("failed to close mixer handle", "error", err)
	}
}

func (m *Mixer) write(ctx context.Context, h Handle, level int) error {
	lo, hi := h.Range()
	if err := h.SetVolume(ctx, levelToRaw(level, lo, hi)); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// Clamp limits level to [0,100].
func Clamp(level int) int {
	return max(MinLevel, min(MaxLevel, level))
}

// rawToLevel maps a raw volume onto 0-100, rounding to the nearest percent.
func rawToLevel(raw, lo, hi int64) int {
	frac := float64(raw-lo) / float64(hi-lo)
	return Clamp(int(math.Round(frac * MaxLevel)))
}

// levelToRaw is the inverse of rawToLevel.
func levelToRaw(level int, lo, hi int64) int64 {
	return lo + int64(math.Round(float64(level)*float64(hi-lo)/MaxLevel))
}
