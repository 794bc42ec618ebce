// Package notify reports volpop failures as desktop notifications over
// the session bus.
package notify

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall = busName + ".Notify"

	appName = "volpop"
)

// Level indicates the severity of a notification.
type Level int

const (
	// LevelWarning is for degraded operation (normal urgency).
	LevelWarning Level = iota
	// LevelError is for fatal errors (critical urgency).
	LevelError
)

func (l Level) urgency() byte {
	if l == LevelError {
		return 2
	}
	return 1
}

func (l Level) icon() string {
	if l == LevelError {
		return "dialog-error"
	}
	return "dialog-warning"
}

// Notification is the content of one Notify call.
type Notification struct {
	Summary string
	Body    string
	Level   Level
}

// Sender delivers a notification to the notification server.
type Sender interface {
	Send(n Notification) error
}

// Notifier sends rate-limited notifications about volpop errors.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
	enabled        bool
}

// NewNotifier creates a notifier that talks to the session bus.
func NewNotifier(logger *slog.Logger) *Notifier {
	return NewNotifierWithSender(&SessionSender{}, logger)
}

// NewNotifierWithSender creates a notifier using sender.
func NewNotifierWithSender(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		sender:         sender,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between notifications with
// the same summary.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Error reports a fatal error.
func (n *Notifier) Error(summary string, err error) {
	body := ""
	if err != nil {
		body = err.Error()
	}
	n.Notify(Notification{Summary: summary, Body: body, Level: LevelError})
}

// Warning reports a condition the popup can run with.
func (n *Notifier) Warning(summary, body string) {
	n.Notify(Notification{Summary: summary, Body: body, Level: LevelWarning})
}

// Notify sends notification unless disabled or rate-limited. Delivery
// failures are logged only.
func (n *Notifier) Notify(notification Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.enabled {
		return
	}

	key := notification.Summary
	if last, ok := n.lastNotifyTime[key]; ok && time.Since(last) < n.minInterval {
		n.logger.Debug("notification rate-limited", "summary", key)
		return
	}
	n.lastNotifyTime[key] = time.Now()

	if err := n.sender.Send(notification); err != nil {
		n.logger.Debug("failed to send notification", "summary", key, "error", err)
	}
}

// SessionSender calls the freedesktop Notify method on the session bus.
type SessionSender struct {
	// Connect opens the bus connection. Defaults to dbus.ConnectSessionBus.
	Connect func() (*dbus.Conn, error)
}

// Send implements Sender.
func (s *SessionSender) Send(n Notification) error {
	connect := s.Connect
	if connect == nil {
		connect = func() (*dbus.Conn, error) { return dbus.ConnectSessionBus() }
	}

	conn, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	return Call(conn.Object(busName, objectPath), n)
}

// Call invokes Notify on obj.
func Call(obj dbus.BusObject, n Notification) error {
	if obj == nil {
		return errors.New("no notification service")
	}
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(n.Level.urgency()),
		"category":      dbus.MakeVariant("device.error"),
		"desktop-entry": dbus.MakeVariant(appName),
	}
	call := obj.Call(notifyCall, 0,
		appName,
		uint32(0),
		n.Level.icon(),
		n.Summary,
		n.Body,
		[]string{},
		hints,
		int32(-1),
	)
	return call.Err
}
