// Package popup holds the toolkit-independent state of the volume popup:
// the shared dismiss countdown and the group of per-output windows.
//
// Everything here runs on one goroutine (the GUI main loop). Windows,
// timers and the mixer are reached through small interfaces so the
// enter/leave/timer interaction can be driven directly from tests.
package popup
