// Package instance decides which process owns the popup for a graphical
// session. Ownership is an exclusive advisory lock on a per-session file;
// the kernel drops the lock when the owner's descriptor closes, so a
// crashed owner never leaves a stale lock behind.
package instance
