package partition

import (
	"errors"
	"fmt"
	"image"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/imageio"
)

var (
	// ErrInvalidAxis is returned for an axis that is neither Horizontal nor Vertical
	ErrInvalidAxis = annotation.ErrInvalidAxis

	// ErrDimensionTooSmall is returned when a region cannot be split because
	// its split dimension is shorter than two pixels
	ErrDimensionTooSmall = errors.New("dimension too small to split")

	// ErrInvalidOverlap is returned for an overlap fraction outside [0, 1)
	ErrInvalidOverlap = errors.New("overlap fraction must be in [0, 1)")
)

// SplitResult describes two overlapping halves of a region
type SplitResult struct {
	First  image.Rectangle // Left or top half, anchored at the origin of the split region
	Second image.Rectangle // Right or bottom half
	Offset int            // Distance from the split region's origin to Second's origin along the axis
}

// Split divides r in two along axis.
//
// With D the length of r along axis, M = D/2 and ov = floor(M*overlap),
// the first half spans [0, M+ov) and the second [M-ov, D), relative to the
// origin of r. Offset is M-ov. Both halves are shorter than D and overlap
// by 2*ov pixels; for odd D the second half is one pixel longer.
func Split(r image.Rectangle, axis annotation.Axis, overlap float64) (SplitResult, error) {
	if !axis.Valid() {
		return SplitResult{}, fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis))
	}
	if overlap < 0 || overlap >= 1 {
		return SplitResult{}, fmt.Errorf("%w: got %v", ErrInvalidOverlap, overlap)
	}

	d := r.Dx()
	if axis == annotation.Vertical {
		d = r.Dy()
	}
	if d < 2 {
		return SplitResult{}, fmt.Errorf("%w: %s length %d", ErrDimensionTooSmall, axis, d)
	}

	mid := d / 2
	ov := int(float64(mid) * overlap)
	firstEnd := mid + ov
	secondStart := mid - ov

	res := SplitResult{First: r, Second: r, Offset: secondStart}
	if axis == annotation.Horizontal {
		res.First.Max.X = r.Min.X + firstEnd
		res.Second.Min.X = r.Min.X + secondStart
	} else {
		res.First.Max.Y = r.Min.Y + firstEnd
		res.Second.Min.Y = r.Min.Y + secondStart
	}
	return res, nil
}

// ImageSplit holds the two cropped halves of an image
type ImageSplit struct {
	First  *imageio.Image
	Second *imageio.Image
	Offset int
}

// SplitImage crops img into the two halves computed by Split
func SplitImage(img *imageio.Image, axis annotation.Axis, overlap float64) (ImageSplit, error) {
	res, err := Split(img.Bounds(), axis, overlap)
	if err != nil {
		return ImageSplit{}, err
	}
	first, err := img.Crop(res.First)
	if err != nil {
		return ImageSplit{}, fmt.Errorf("failed to crop first half: %w", err)
	}
	second, err := img.Crop(res.Second)
	if err != nil {
		return ImageSplit{}, fmt.Errorf("failed to crop second half: %w", err)
	}
	return ImageSplit{First: first, Second: second, Offset: res.Offset}, nil
}
