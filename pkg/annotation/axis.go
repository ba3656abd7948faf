package annotation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAxis is returned when an axis is neither Horizontal nor Vertical
var ErrInvalidAxis = errors.New("invalid axis")

// Axis is the dimension along which an image is split
type Axis int

const (
	// Horizontal splits an image into left and right halves.
	// Offsets apply to the x component.
	Horizontal Axis = iota + 1
	// Vertical splits an image into top and bottom halves.
	// Offsets apply to the y component.
	Vertical
)

// Valid reports whether a is one of the known axes
func (a Axis) Valid() bool {
	return a == Horizontal || a == Vertical
}

// Other returns the perpendicular axis
func (a Axis) Other() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (a Axis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler
func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAxis, int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Axis) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "horizontal", "h", "x":
		*a = Horizontal
	case "vertical", "v", "y":
		*a = Vertical
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAxis, string(text))
	}
	return nil
}
