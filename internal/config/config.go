// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "2s", "1500ms", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '2s', '1500ms' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the configuration for volpop.
// Loaded from ~/.config/volpop/volpop.toml
type Config struct {
	Dismiss  DismissConfig  `toml:"dismiss"`
	Mixer    MixerConfig    `toml:"mixer"`
	Display  DisplayConfig  `toml:"display"`
	Feedback FeedbackConfig `toml:"feedback"`
	Notify   NotifyConfig   `toml:"notify"`
}

// DismissConfig controls the auto-dismiss countdown.
type DismissConfig struct {
	QuietPeriod Duration `toml:"quiet_period"` // e.g. "2s"
	// FilterInternalCrossings ignores pointer crossings between the popup
	// window and its own child widgets.
	FilterInternalCrossings bool `toml:"filter_internal_crossings"`
}

// MixerConfig selects the mixer element that is read and written.
type MixerConfig struct {
	Command string `toml:"command"` // amixer binary
	Card    string `toml:"card"`
	Control string `toml:"control"` // simple element name, e.g. "Master"
}

// DisplayConfig contains popup window settings.
type DisplayConfig struct {
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Anchor   string `toml:"anchor"`    // "center", "top", "bottom-right", ...
	Margin   int    `toml:"margin"`    // Pixels from the anchored edges
	IconSize int    `toml:"icon_size"` // Pixel size of the volume icon
	CSS      string `toml:"css"`       // Optional user stylesheet
}

// FeedbackConfig contains the optional volume-change sound.
type FeedbackConfig struct {
	Enabled bool   `toml:"enabled"`
	Sound   string `toml:"sound"` // wav, ogg or mp3
}

// NotifyConfig controls desktop notifications about fatal errors.
type NotifyConfig struct {
	Errors bool `toml:"errors"`
}

// Anchor represents where on the output the popup is placed.
type Anchor string

const (
	AnchorCenter      Anchor = "center"
	AnchorTop         Anchor = "top"
	AnchorBottom      Anchor = "bottom"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// ValidAnchors returns all valid anchor values.
func ValidAnchors() []Anchor {
	return []Anchor{
		AnchorCenter,
		AnchorTop,
		AnchorBottom,
		AnchorTopLeft,
		AnchorTopRight,
		AnchorBottomLeft,
		AnchorBottomRight,
	}
}

// Quiet period bounds accepted by Validate.
const (
	MinQuietPeriod = 100 * time.Millisecond
	MaxQuietPeriod = time.Minute
)

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dismiss: DismissConfig{
			QuietPeriod:             Duration(2 * time.Second),
			FilterInternalCrossings: true,
		},
		Mixer: MixerConfig{
			Command: "amixer",
			Card:    "default",
			Control: "Master",
		},
		Display: DisplayConfig{
			Width:    220,
			Height:   50,
			Anchor:   string(AnchorCenter),
			Margin:   0,
			IconSize: 30,
		},
		Feedback: FeedbackConfig{
			Enabled: false,
		},
		Notify: NotifyConfig{
			Errors: true,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "volpop", "volpop.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	qp := c.Dismiss.QuietPeriod.Duration()
	if qp < MinQuietPeriod || qp > MaxQuietPeriod {
		return fmt.Errorf("quiet_period must be between %s and %s, got %s", MinQuietPeriod, MaxQuietPeriod, qp)
	}

	if strings.TrimSpace(c.Mixer.Command) == "" {
		return errors.New("mixer command must not be empty")
	}
	if strings.TrimSpace(c.Mixer.Control) == "" {
		return errors.New("mixer control must not be empty")
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	}
	if c.Display.IconSize <= 0 {
		return fmt.Errorf("icon_size must be positive, got %d", c.Display.IconSize)
	}
	if c.Display.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Display.Margin)
	}

	validAnchor := false
	for _, a := range ValidAnchors() {
		if c.Display.Anchor == string(a) {
			validAnchor = true
			break
		}
	}
	if !validAnchor {
		return fmt.Errorf("invalid anchor %q, must be one of: %v", c.Display.Anchor, ValidAnchors())
	}

	if c.Feedback.Enabled && c.Feedback.Sound == "" {
		return errors.New("feedback is enabled but no sound is configured")
	}

	return nil
}

// FeedbackSound returns the feedback sound path with ~ expanded.
func (c *Config) FeedbackSound() string {
	return expandPath(c.Feedback.Sound)
}

// StylesheetPath returns the user stylesheet path with ~ expanded.
func (c *Config) StylesheetPath() string {
	return expandPath(c.Display.CSS)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
