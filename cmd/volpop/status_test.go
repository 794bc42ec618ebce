package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/volpop/internal/instance"
)

func TestWaybarStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   instance.Status
		level    int
		err      error
		text     string
		alt      string
		class    string
		lastCall bool
	}{
		{
			name:  "closed",
			level: 40,
			text:  "40%",
			alt:   "closed",
			class: "closed",
		},
		{
			name:   "open",
			status: instance.Status{Exists: true, Held: true},
			level:  55,
			text:   "55%",
			alt:    "open",
			class:  "open",
		},
		{
			name:   "muted while open",
			status: instance.Status{Exists: true, Held: true},
			level:  0,
			text:   "0%",
			alt:    "muted",
			class:  "open",
		},
		{
			name:     "recent hand-off",
			status:   instance.Status{Exists: true, LastSignalPID: 4242, ModTime: time.Now().Add(-time.Minute)},
			level:    70,
			text:     "70%",
			alt:      "closed",
			class:    "closed",
			lastCall: true,
		},
		{
			name:  "mixer error",
			err:   errors.New("amixer: not found"),
			alt:   "error",
			class: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := waybarStatus(tt.status, tt.level, tt.err)
			assert.Equal(t, tt.text, got.Text)
			assert.Equal(t, tt.alt, got.Alt)
			assert.Equal(t, tt.class, got.Class)
			if tt.lastCall {
				assert.Contains(t, got.Tooltip, "Last changed 1 minute ago")
			}
			if tt.err == nil {
				assert.Equal(t, tt.level, got.Percentage)
			}
		})
	}
}

func TestLockPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("WAYLAND_DISPLAY", "wayland-1")

	old := globalOpts.lockFile
	t.Cleanup(func() { globalOpts.lockFile = old })

	globalOpts.lockFile = ""
	assert.Equal(t, "/run/user/1000/volpop-lock-wayland-1", lockPath())

	globalOpts.lockFile = "/tmp/custom.lock"
	assert.Equal(t, "/tmp/custom.lock", lockPath())
}
