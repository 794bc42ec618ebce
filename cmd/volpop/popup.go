package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gio/v2"

	"github.com/jmylchreest/volpop/internal/audio"
	"github.com/jmylchreest/volpop/internal/display"
	"github.com/jmylchreest/volpop/internal/feedback"
	"github.com/jmylchreest/volpop/internal/popup"
	"github.com/jmylchreest/volpop/internal/watch"
)

const appID = "io.github.jmylchreest.volpop"

// showPopup shows the popup and runs the GTK main loop until it is
// dismissed. Only the lock owner gets here.
func showPopup(mixer *audio.Mixer, level int, lockPath string) int {
	// Single instance is enforced by the lock file, not by GApplication.
	app := adw.NewApplication(appID, gio.ApplicationNonUnique)

	var (
		group          *popup.Group
		displayManager *display.Manager
		changes        *watch.Notifier
		player         *feedback.Player
		running        bool
		exitCode       int
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			glib.IdleAdd(func() {
				app.Quit()
			})
		case <-ctx.Done():
		}
	}()

	app.ConnectActivate(func() {
		if running {
			return
		}
		running = true

		// Stay alive while no monitor is connected; only the timer quits.
		app.Hold()

		timer := popup.NewDismissTimer(
			cfg.Dismiss.QuietPeriod.Duration(),
			cfg.Dismiss.FilterInternalCrossings,
			display.NewScheduler(),
			func() {
				logger.Debug("popup dismissed")
				app.Quit()
			},
			logger,
		)
		group = popup.NewGroup(mixer, timer, level, logger)

		if cfg.Feedback.Enabled {
			player = feedback.NewPlayer(cfg.FeedbackSound(), logger)
			if err := player.Preload(); err != nil {
				logger.Warn("failed to load feedback sound", "path", cfg.FeedbackSound(), "error", err)
			}
			group.SetFeedback(func(int) {
				if err := player.Play(); err != nil {
					logger.Debug("failed to play feedback sound", "error", err)
				}
			})
		}

		displayManager = display.NewManager(&app.Application, cfg, group, logger)
		if err := displayManager.Start(); err != nil {
			logger.Error("failed to start display", "error", err)
			notifier.Error("Cannot show volume popup", err)
			exitCode = 1
			app.Quit()
			return
		}

		changes = watch.NewNotifier(lockPath, logger)
		changes.SetChangeCallback(func() {
			glib.IdleAdd(func() {
				group.Dispatch(popup.Event{Kind: popup.VolumeChanged, Source: popup.SourceNotifier})
			})
		})
		if err := changes.Start(ctx); err != nil {
			logger.Warn("failed to watch lock file, later invocations will not update this popup",
				"lock_path", lockPath, "error", err)
			notifier.Warning("Volume popup will not update", err.Error())
			changes = nil
		}

		// Count down from the moment the popup appears.
		timer.Pulse()
	})

	app.ConnectShutdown(func() {
		if changes != nil {
			if err := changes.Stop(); err != nil {
				logger.Debug("failed to stop change notifier", "error", err)
			}
		}
		if displayManager != nil {
			displayManager.Stop()
		}
		if player != nil {
			player.Close()
		}
	})

	// Positional arguments are volume actions, not files to open.
	status := app.Run(os.Args[:1])
	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}
	return exitCode
}
