package config

import (
	"os"
	"path/filepath"
)

// DefaultWaylandDisplay is used when WAYLAND_DISPLAY is unset.
const DefaultWaylandDisplay = "wayland-0"

// RuntimeDir returns XDG_RUNTIME_DIR, or the system temp dir when unset.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// SessionDisplay returns the Wayland display name of the current session.
func SessionDisplay() string {
	if name := os.Getenv("WAYLAND_DISPLAY"); name != "" {
		return filepath.Base(name)
	}
	return DefaultWaylandDisplay
}
