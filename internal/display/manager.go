package display

import (
	"log/slog"
	"os"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volpop/internal/config"
	"github.com/jmylchreest/volpop/internal/popup"
)

// Manager keeps one popup window per monitor. It is the window factory
// of the popup group and feeds monitor hotplug into it.
// All methods must be called on the GTK main thread.
type Manager struct {
	app    *gtk.Application
	config *config.Config
	group  *popup.Group
	logger *slog.Logger

	display  *gdk.Display
	monitors *gio.ListModel
	handler  glib.SignalHandle
	outputs  map[string]*gdk.Monitor
	style    *gtk.CSSProvider
	started  bool
}

// NewManager creates a display manager for group and registers it as the
// group's window factory.
func NewManager(app *gtk.Application, cfg *config.Config, group *popup.Group, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	m := &Manager{
		app:     app,
		config:  cfg,
		group:   group,
		logger:  logger,
		outputs: make(map[string]*gdk.Monitor),
	}
	group.SetWindowFactory(m)
	return m
}

// Start applies the stylesheet, creates a window on every monitor and
// begins following monitor changes.
func (m *Manager) Start() error {
	if m.started {
		return nil
	}

	m.display = gdk.DisplayGetDefault()
	if m.display == nil {
		return &DisplayError{Message: "no display available"}
	}

	m.monitors = m.display.Monitors()
	if m.monitors == nil {
		return &DisplayError{Message: "display reports no monitor list"}
	}

	m.applyStyle()

	m.handler = m.monitors.ConnectItemsChanged(func(position, removed, added uint) {
		m.logger.Debug("monitors changed", "position", position, "removed", removed, "added", added)
		m.sync()
	})
	m.started = true

	m.sync()
	m.logger.Debug("display manager started", "outputs", m.group.Len())
	return nil
}

// Stop destroys every window and stops following monitor changes.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	m.started = false
	m.monitors.HandlerDisconnect(m.handler)
	m.group.Close()
	m.outputs = make(map[string]*gdk.Monitor)
	m.logger.Debug("display manager stopped")
}

// NewWindow creates the popup window for output. It implements
// popup.WindowFactory.
func (m *Manager) NewWindow(output string, level int) (popup.Window, error) {
	monitor, ok := m.outputs[output]
	if !ok {
		return nil, &DisplayError{Message: "unknown output " + output}
	}
	w, err := newWindow(m.app, monitor, output, level, m.config, m.group.Dispatch, m.logger)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// sync reconciles the group's windows with the current monitor list.
func (m *Manager) sync() {
	current := make(map[string]*gdk.Monitor)
	var order []string
	for i := uint(0); i < m.monitors.NItems(); i++ {
		monitor := wrapMonitor(m.monitors.Item(i))
		if monitor == nil {
			continue
		}
		id := outputName(monitor.Connector(), int(i))
		if _, dup := current[id]; dup {
			id = outputName("", int(i))
		}
		current[id] = monitor
		order = append(order, id)
	}

	for id := range m.outputs {
		if _, ok := current[id]; !ok {
			delete(m.outputs, id)
			m.group.Dispatch(popup.Event{Kind: popup.OutputRemoved, Output: id})
		}
	}

	for _, id := range order {
		if _, ok := m.outputs[id]; ok {
			continue
		}
		m.outputs[id] = current[id]
		m.group.Dispatch(popup.Event{Kind: popup.OutputAdded, Output: id})
	}
}

// applyStyle installs the built-in stylesheet, followed by the user's
// stylesheet when one is configured.
func (m *Manager) applyStyle() {
	css := defaultStyle
	if path := m.config.StylesheetPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			m.logger.Warn("failed to read stylesheet, using built-in style", "path", path, "error", err)
		} else {
			css += "\n" + string(data)
		}
	}

	m.style = gtk.NewCSSProvider()
	m.style.LoadFromString(css)
	gtk.StyleContextAddProviderForDisplay(
		m.display,
		m.style,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}

// DisplayError represents a display-related error.
type DisplayError struct {
	Message string
	Cause   error
}

func (e *DisplayError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *DisplayError) Unwrap() error {
	return e.Cause
}
