package display

import (
	"log/slog"
	"math"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volpop/internal/audio"
	"github.com/jmylchreest/volpop/internal/config"
	"github.com/jmylchreest/volpop/internal/popup"
)

const (
	layerNamespace = "volpop"
	scrollStep     = 5.0
)

// window is the popup shown on one monitor.
type window struct {
	output   string
	dispatch func(popup.Event)
	logger   *slog.Logger

	window *gtk.Window
	box    *gtk.Box
	icon   *gtk.Image
	scale  *gtk.Scale

	// updating is set while the value is changed programmatically, so the
	// change is not reported back as slider input.
	updating  bool
	destroyed bool
}

func newWindow(app *gtk.Application, monitor *gdk.Monitor, output string, level int, cfg *config.Config, dispatch func(popup.Event), logger *slog.Logger) (*window, error) {
	if monitor == nil {
		return nil, &DisplayError{Message: "no monitor for output " + output}
	}

	w := &window{
		output:   output,
		dispatch: dispatch,
		logger:   logger.With("output", output),
	}

	w.window = gtk.NewWindow()
	w.window.SetApplication(app)
	w.window.SetDecorated(false)
	w.window.SetResizable(false)
	w.window.SetDefaultSize(cfg.Display.Width, cfg.Display.Height)
	w.window.AddCSSClass("volpop")

	layershell.InitForWindow(w.window)
	layershell.SetLayer(w.window, layershell.LayerShellLayerOverlay)
	layershell.SetExclusiveZone(w.window, 0)
	layershell.SetKeyboardMode(w.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(w.window, layerNamespace)
	layershell.SetMonitor(w.window, monitor)
	placeWindow(w.window, config.Anchor(cfg.Display.Anchor), cfg.Display.Margin)

	w.buildUI(cfg)
	w.connectSignals()
	w.SetLevel(level)

	w.window.Present()
	w.logger.Debug("popup window created", "level", level)
	return w, nil
}

func (w *window) buildUI(cfg *config.Config) {
	w.box = gtk.NewBox(gtk.OrientationHorizontal, 0)
	w.box.AddCSSClass("volpop-box")
	w.box.SetSizeRequest(cfg.Display.Width, cfg.Display.Height)

	w.icon = gtk.NewImageFromIconName(iconName(audio.MaxLevel))
	w.icon.AddCSSClass("volpop-icon")
	w.icon.SetPixelSize(cfg.Display.IconSize)
	w.box.Append(w.icon)

	w.scale = gtk.NewScaleWithRange(gtk.OrientationHorizontal, audio.MinLevel, audio.MaxLevel, 1)
	w.scale.AddCSSClass("volpop-scale")
	w.scale.SetHExpand(true)
	w.scale.SetDrawValue(true)
	w.scale.SetValuePos(gtk.PosRight)
	w.scale.SetDigits(0)
	w.box.Append(w.scale)

	w.window.SetChild(w.box)
}

func (w *window) connectSignals() {
	w.scale.ConnectValueChanged(func() {
		level := int(math.Round(w.scale.Value()))
		w.icon.SetFromIconName(iconName(level))
		if w.updating {
			return
		}
		w.dispatch(popup.Event{
			Kind:   popup.VolumeChanged,
			Source: popup.SourceSlider,
			Output: w.output,
			Level:  level,
		})
	})

	// The window controller sees the pointer cross the popup's outer edge.
	outer := gtk.NewEventControllerMotion()
	outer.ConnectEnter(func(x, y float64) {
		w.pointer(popup.PointerEnter, crossingOf(outer, popup.CrossingNonlinear))
	})
	outer.ConnectLeave(func() {
		w.pointer(popup.PointerLeave, crossingOf(outer, popup.CrossingNonlinear))
	})
	w.window.AddController(outer)

	// The slider controller mostly sees moves between the slider and the
	// rest of the window.
	inner := gtk.NewEventControllerMotion()
	inner.ConnectEnter(func(x, y float64) {
		w.pointer(popup.PointerEnter, crossingOf(inner, popup.CrossingInferior))
	})
	inner.ConnectLeave(func() {
		w.pointer(popup.PointerLeave, crossingOf(inner, popup.CrossingAncestor))
	})
	w.scale.AddController(inner)

	// The scale scrolls itself; scrolling over the icon steps it too.
	scroll := gtk.NewEventControllerScroll(gtk.EventControllerScrollVertical | gtk.EventControllerScrollDiscrete)
	scroll.ConnectScroll(func(dx, dy float64) bool {
		w.scale.SetValue(w.scale.Value() - dy*scrollStep)
		return true
	})
	w.icon.AddController(scroll)
}

func (w *window) pointer(kind popup.EventKind, crossing popup.Crossing) {
	if w.destroyed {
		return
	}
	w.dispatch(popup.Event{Kind: kind, Output: w.output, Crossing: crossing})
}

// SetLevel shows level without reporting it as slider input.
func (w *window) SetLevel(level int) {
	if w.destroyed {
		return
	}
	w.updating = true
	w.scale.SetValue(float64(level))
	w.updating = false
	w.icon.SetFromIconName(iconName(level))
}

// Destroy closes the window and its layer surface.
func (w *window) Destroy() {
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.window.Destroy()
	w.logger.Debug("popup window destroyed")
}

// iconName picks the symbolic icon matching level.
func iconName(level int) string {
	switch {
	case level <= 0:
		return "audio-volume-muted-symbolic"
	case level < 34:
		return "audio-volume-low-symbolic"
	case level < 67:
		return "audio-volume-medium-symbolic"
	default:
		return "audio-volume-high-symbolic"
	}
}
