package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/volpop/internal/audio"
	"github.com/jmylchreest/volpop/internal/config"
	"github.com/jmylchreest/volpop/internal/instance"
	"github.com/jmylchreest/volpop/internal/notify"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// commandTimeout bounds mixer access outside the popup's main loop.
const commandTimeout = 5 * time.Second

var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		lockFile   string
	}
	logger   *slog.Logger
	notifier *notify.Notifier
)

var rootCmd = &cobra.Command{
	Use:   "volpop [action delta]",
	Short: "Volume popup for Wayland desktops",
	Long: `volpop changes the playback volume and shows a slider on every monitor.

Actions:
  i, inc, increase N   raise the volume by N percent
  d, dec, decrease N   lower the volume by N percent
  s, set N             set the volume to N percent

Without an action the current volume is printed and the popup is shown.
If a popup is already open, the change is applied and the open popup
updates instead of a second one appearing. The popup closes itself once
the pointer has stayed away from it for the quiet period.`,
	Example: `  volpop inc 5
  volpop dec 5
  volpop set 40`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		notifier = notify.NewNotifier(logger)
		notifier.SetEnabled(cfg.Notify.Errors)
		return nil
	},
	RunE: runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/volpop/volpop.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.lockFile, "lock-file", "",
		"Path to the session lock file (default: $XDG_RUNTIME_DIR/volpop-lock-$WAYLAND_DISPLAY)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// lockPath returns the lock file for this graphical session.
func lockPath() string {
	if globalOpts.lockFile != "" {
		return globalOpts.lockFile
	}
	return instance.SessionLockPath(config.RuntimeDir(), config.SessionDisplay())
}

// Swapped in tests.
var (
	mixerRunner audio.Runner = audio.ExecRunner
	runPopup                 = showPopup
)

func newMixer() *audio.Mixer {
	backend := audio.NewAmixer(cfg.Mixer.Command, cfg.Mixer.Card, cfg.Mixer.Control)
	backend.Run = mixerRunner
	return audio.NewMixer(backend, logger)
}

func runRoot(cmd *cobra.Command, args []string) error {
	delta, err := audio.ParseDelta(args)
	if err != nil {
		logger.Error("ignoring request, showing current volume", "args", args, "error", err)
	}

	mixer := newMixer()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	level, err := mixer.Adjust(ctx, delta)
	cancel()
	if err != nil {
		if errors.Is(err, audio.ErrAudioUnavailable) {
			notifier.Error("Volume control unavailable", err)
		}
		return err
	}
	logger.Debug("volume", "request", delta.String(), "level", level)
	fmt.Fprintln(cmd.OutOrStdout(), level)

	path := lockPath()
	lock, err := instance.TryAcquire(path)
	if err != nil {
		notifier.Error("Cannot open volpop lock file", err)
		return err
	}
	if !lock.Owner() {
		// The running popup has been signalled and re-reads the mixer.
		logger.Debug("popup already running", "lock_path", path)
		return nil
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lock", "lock_path", path, "error", err)
		}
	}()

	if code := runPopup(mixer, level, path); code != 0 {
		return fmt.Errorf("popup exited with status %d", code)
	}
	return nil
}
