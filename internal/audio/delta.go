package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// Direction is the kind of adjustment a PendingDelta requests.
type Direction int

const (
	// DirectionNone only queries the current level.
	DirectionNone Direction = iota
	DirectionIncrease
	DirectionDecrease
	// DirectionAbsolute sets the level to Amount.
	DirectionAbsolute
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "none"
	case DirectionIncrease:
		return "increase"
	case DirectionDecrease:
		return "decrease"
	case DirectionAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}

// PendingDelta is a volume change requested on the command line.
type PendingDelta struct {
	Direction Direction
	Amount    int
}

// IsQuery reports whether the delta leaves the level unchanged.
func (d PendingDelta) IsQuery() bool {
	return d.Direction == DirectionNone
}

// Apply returns the level that results from applying d to level.
// The result is always within [0,100].
func (d PendingDelta) Apply(level int) int {
	switch d.Direction {
	case DirectionIncrease:
		return Clamp(level + d.Amount)
	case DirectionDecrease:
		return Clamp(level - d.Amount)
	case DirectionAbsolute:
		return Clamp(d.Amount)
	default:
		return Clamp(level)
	}
}

func (d PendingDelta) String() string {
	switch d.Direction {
	case DirectionIncrease:
		return "+" + strconv.Itoa(d.Amount)
	case DirectionDecrease:
		return "-" + strconv.Itoa(d.Amount)
	case DirectionAbsolute:
		return "=" + strconv.Itoa(d.Amount)
	default:
		return "query"
	}
}

// ParseDelta builds a PendingDelta from "[action delta]" arguments.
//
// Actions are i/inc/increase, d/dec/decrease and s/set. Fewer than two
// arguments is a query. An unknown action or a non-numeric amount yields a
// query delta together with an error describing the problem.
func ParseDelta(args []string) (PendingDelta, error) {
	if len(args) < 2 {
		return PendingDelta{}, nil
	}

	action := strings.ToLower(args[0])
	var dir Direction
	switch action {
	case "i", "inc", "increase":
		dir = DirectionIncrease
	case "d", "dec", "decrease":
		dir = DirectionDecrease
	case "s", "set":
		dir = DirectionAbsolute
	default:
		return PendingDelta{}, fmt.Errorf("invalid action %q", args[0])
	}

	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return PendingDelta{}, fmt.Errorf("invalid delta %q: %w", args[1], err)
	}

	return PendingDelta{Direction: dir, Amount: amount}, nil
}
