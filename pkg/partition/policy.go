package partition

import (
	"fmt"
	"image"
	"strings"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

// AxisPolicy picks the axis to split a region along. depth is the depth of
// the region in the split tree (0 for the root) and parent is the axis of
// the split that produced it (zero at the root).
type AxisPolicy func(r image.Rectangle, depth int, parent annotation.Axis) annotation.Axis

// DominantAxis splits the longer dimension, horizontally on ties
func DominantAxis(r image.Rectangle, _ int, _ annotation.Axis) annotation.Axis {
	if r.Dy() > r.Dx() {
		return annotation.Vertical
	}
	return annotation.Horizontal
}

// AlternateAxis splits the root along its dominant axis and then alternates
// at every level
func AlternateAxis(r image.Rectangle, depth int, parent annotation.Axis) annotation.Axis {
	if !parent.Valid() {
		return DominantAxis(r, depth, parent)
	}
	return parent.Other()
}

// PolicyByName resolves the configuration names "dominant" and "alternate"
func PolicyByName(name string) (AxisPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dominant":
		return DominantAxis, nil
	case "alternate":
		return AlternateAxis, nil
	default:
		return nil, fmt.Errorf("unknown axis policy %q", name)
	}
}
