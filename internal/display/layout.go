package display

import (
	"strconv"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/volpop/internal/config"
	"github.com/jmylchreest/volpop/internal/popup"
)

// wrapMonitor wraps a glib.Object from the monitor list as a gdk.Monitor.
// gotk4 does not export its own wrapper, but gdk.Monitor is just an
// embedded *glib.Object.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}

// outputName is the identity of a monitor: its connector when the
// compositor reports one, its position otherwise.
func outputName(connector string, index int) string {
	if connector != "" {
		return connector
	}
	return "monitor-" + strconv.Itoa(index)
}

// placeWindow anchors a layer-shell window according to anchor.
// An unanchored surface is centred by the compositor.
func placeWindow(window *gtk.Window, anchor config.Anchor, margin int) {
	var top, bottom, left, right bool

	switch anchor {
	case config.AnchorTop:
		top = true
	case config.AnchorBottom:
		bottom = true
	case config.AnchorTopLeft:
		top, left = true, true
	case config.AnchorTopRight:
		top, right = true, true
	case config.AnchorBottomLeft:
		bottom, left = true, true
	case config.AnchorBottomRight:
		bottom, right = true, true
	}

	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, right)

	// Margins only take effect on anchored edges.
	layershell.SetMargin(window, layershell.LayerShellEdgeTop, margin)
	layershell.SetMargin(window, layershell.LayerShellEdgeBottom, margin)
	layershell.SetMargin(window, layershell.LayerShellEdgeLeft, margin)
	layershell.SetMargin(window, layershell.LayerShellEdgeRight, margin)
}

// crossingFromNotify maps a GDK notify type onto a popup crossing.
func crossingFromNotify(detail gdk.NotifyType) popup.Crossing {
	switch detail {
	case gdk.NotifyAncestor:
		return popup.CrossingAncestor
	case gdk.NotifyVirtual:
		return popup.CrossingVirtual
	case gdk.NotifyInferior:
		return popup.CrossingInferior
	case gdk.NotifyNonlinear:
		return popup.CrossingNonlinear
	case gdk.NotifyNonlinearVirtual:
		return popup.CrossingNonlinearVirtual
	default:
		return popup.CrossingUnknown
	}
}

// crossingOf classifies the crossing a motion controller is reporting.
// Surface-level crossings carry their own detail. Crossings GTK derives
// from plain motion inside the surface do not, and fall back to what the
// controller's position in the widget tree implies.
func crossingOf(ctrl *gtk.EventControllerMotion, fallback popup.Crossing) popup.Crossing {
	if ev, ok := ctrl.CurrentEvent().(*gdk.CrossingEvent); ok && ev != nil {
		return crossingFromNotify(ev.Detail())
	}
	return fallback
}
