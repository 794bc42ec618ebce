// Package feedback plays a short sound after the volume is changed from
// the popup.
package feedback

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultFeedbackInterval is the minimum gap between two feedback sounds.
const DefaultFeedbackInterval = 150 * time.Millisecond

// Player plays a single short feedback sound after volume changes.
// The sound is decoded once and replayed from memory.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger
	path   string

	initialized bool
	buffer      *beep.Buffer

	minInterval time.Duration
	lastPlayed  time.Time
}

// NewPlayer creates a feedback player for the sound at path.
func NewPlayer(path string, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		logger:      logger,
		path:        path,
		minInterval: DefaultFeedbackInterval,
	}
}

// Preload decodes the sound so the first Play has no decoding delay.
func (p *Player) Preload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.loadLocked()
	return err
}

// Play starts the feedback sound unless one was started within the
// minimum interval. It does not block until playback finishes.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" {
		return nil
	}
	if !p.lastPlayed.IsZero() && time.Since(p.lastPlayed) < p.minInterval {
		return nil
	}

	buffer, err := p.loadLocked()
	if err != nil {
		return err
	}

	p.lastPlayed = time.Now()
	speaker.Play(buffer.Streamer(0, buffer.Len()))
	return nil
}

// Close stops playback and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	p.buffer = nil
	p.logger.Debug("feedback player closed")
}

// loadLocked decodes the sound file and initializes the speaker. Caller must hold the lock.
func (p *Player) loadLocked() (*beep.Buffer, error) {
	if p.buffer != nil {
		return p.buffer, nil
	}

	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var streamer beep.StreamSeekCloser
	var format beep.Format

	switch ext := strings.ToLower(filepath.Ext(p.path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	if !p.initialized {
		// Use a reasonable buffer size for low latency
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			return nil, fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.initialized = true
		p.logger.Debug("speaker initialized", "sample_rate", format.SampleRate)
	}

	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	p.buffer = buffer
	return buffer, nil
}
