package popup

import "fmt"

// Crossing classifies a pointer enter or leave.
//
// The values mirror the notify types a toolkit reports for crossing
// events, plus CrossingSynthetic for transitions the program generates
// itself.
type Crossing int

const (
	// CrossingSynthetic marks an enter/leave generated by a volume update
	// rather than real pointer input.
	CrossingSynthetic Crossing = iota
	// CrossingAncestor: the pointer moved between a widget and its ancestor.
	CrossingAncestor
	// CrossingVirtual: the pointer passed through this widget on its way
	// between an ancestor and a descendant.
	CrossingVirtual
	// CrossingInferior: the pointer moved between a widget and one of its children.
	CrossingInferior
	// CrossingNonlinear: the pointer crossed from an unrelated surface.
	CrossingNonlinear
	// CrossingNonlinearVirtual: like CrossingNonlinear, observed on an
	// intermediate widget.
	CrossingNonlinearVirtual
	// CrossingUnknown is any detail the toolkit could not classify.
	CrossingUnknown
)

var crossingNames = map[Crossing]string{
	CrossingSynthetic:        "synthetic",
	CrossingAncestor:         "ancestor",
	CrossingVirtual:          "virtual",
	CrossingInferior:         "inferior",
	CrossingNonlinear:        "nonlinear",
	CrossingNonlinearVirtual: "nonlinear-virtual",
	CrossingUnknown:          "unknown",
}

func (c Crossing) String() string {
	if s, ok := crossingNames[c]; ok {
		return s
	}
	return fmt.Sprintf("crossing(%d)", int(c))
}

// Synthetic reports whether the crossing was generated by the program.
func (c Crossing) Synthetic() bool {
	return c == CrossingSynthetic
}

// External reports whether the crossing moved the pointer across the
// outer boundary of the popup, as opposed to between two of its own
// widgets.
func (c Crossing) External() bool {
	return c == CrossingNonlinear || c == CrossingNonlinearVirtual
}

// EventKind identifies what happened.
type EventKind int

const (
	PointerEnter EventKind = iota
	PointerLeave
	TimerFired
	VolumeChanged
	OutputAdded
	OutputRemoved
)

func (k EventKind) String() string {
	switch k {
	case PointerEnter:
		return "pointer-enter"
	case PointerLeave:
		return "pointer-leave"
	case TimerFired:
		return "timer-fired"
	case VolumeChanged:
		return "volume-changed"
	case OutputAdded:
		return "output-added"
	case OutputRemoved:
		return "output-removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Source tells where a volume change came from.
type Source int

const (
	// SourceSlider is a change made on one of the popup's own sliders.
	SourceSlider Source = iota
	// SourceNotifier is a wake-up from another invocation; the level must
	// be re-read from the mixer.
	SourceNotifier
)

func (s Source) String() string {
	if s == SourceSlider {
		return "slider"
	}
	return "notifier"
}

// Event is the single input type of the popup state machine.
type Event struct {
	Kind EventKind

	// Output identifies the window or monitor concerned, when relevant.
	Output string

	// Crossing is set for PointerEnter and PointerLeave.
	Crossing Crossing

	// Source and Level are set for VolumeChanged. Level is ignored for
	// SourceNotifier.
	Source Source
	Level  int

	// Generation is set for TimerFired and identifies the countdown that
	// expired.
	Generation uint64
}

func (e Event) String() string {
	switch e.Kind {
	case PointerEnter, PointerLeave:
		return fmt.Sprintf("%s(%s, %s)", e.Kind, e.Output, e.Crossing)
	case TimerFired:
		return fmt.Sprintf("%s(#%d)", e.Kind, e.Generation)
	case VolumeChanged:
		if e.Source == SourceSlider {
			return fmt.Sprintf("%s(%s, %s, %d)", e.Kind, e.Source, e.Output, e.Level)
		}
		return fmt.Sprintf("%s(%s)", e.Kind, e.Source)
	default:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Output)
	}
}
