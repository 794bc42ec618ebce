// Package display shows the volume popup with GTK4 and layer-shell.
// It creates one overlay window per monitor, tracks monitor hotplug and
// translates GTK signals into popup events.
package display
