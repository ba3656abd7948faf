package partition

import (
	"errors"
	"image"
	"testing"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

func TestDivideImageLeftAndRight(t *testing.T) {
	res, err := Split(image.Rect(0, 0, 9161, 6363), annotation.Horizontal, 0.25)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if res.Offset != 3435 {
		t.Fatalf("offset = %d, want 3435", res.Offset)
	}
	if got := res.First.Size(); got != image.Pt(5725, 6363) {
		t.Fatalf("left size = %v, want (5725,6363)", got)
	}
	if got := res.Second.Size(); got != image.Pt(5726, 6363) {
		t.Fatalf("right size = %v, want (5726,6363)", got)
	}
	if res.Second.Min.X != 3435 || res.Second.Max.X != 9161 {
		t.Fatalf("right half spans %v", res.Second)
	}
}

func TestDivideImageTopAndBottom(t *testing.T) {
	res, err := Split(image.Rect(0, 0, 6363, 9161), annotation.Vertical, 0.25)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if res.Offset != 3435 {
		t.Fatalf("offset = %d, want 3435", res.Offset)
	}
	if got := res.First.Size(); got != image.Pt(6363, 5725) {
		t.Fatalf("top size = %v, want (6363,5725)", got)
	}
	if got := res.Second.Size(); got != image.Pt(6363, 5726) {
		t.Fatalf("bottom size = %v, want (6363,5726)", got)
	}
}

func TestSplitArithmetic(t *testing.T) {
	tests := []struct {
		name          string
		length        int
		overlap       float64
		first, second int
		offset        int
	}{
		{"even no overlap", 100, 0, 50, 50, 50},
		{"odd no overlap", 101, 0, 50, 51, 50},
		{"quarter overlap", 100, 0.25, 62, 62, 38},
		{"large even", 11450, 0.25, 7156, 7156, 4294},
		{"two pixels", 2, 0.9, 1, 1, 1},
		{"three pixels", 3, 0.5, 1, 2, 1},
		{"high overlap", 10, 0.99, 9, 9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, axis := range []annotation.Axis{annotation.Horizontal, annotation.Vertical} {
				r := image.Rect(0, 0, tt.length, 7)
				if axis == annotation.Vertical {
					r = image.Rect(0, 0, 7, tt.length)
				}
				res, err := Split(r, axis, tt.overlap)
				if err != nil {
					t.Fatalf("Split(%s) error = %v", axis, err)
				}
				first, second := res.First.Dx(), res.Second.Dx()
				if axis == annotation.Vertical {
					first, second = res.First.Dy(), res.Second.Dy()
				}
				if first != tt.first || second != tt.second || res.Offset != tt.offset {
					t.Fatalf("%s: got %d/%d offset %d, want %d/%d offset %d",
						axis, first, second, res.Offset, tt.first, tt.second, tt.offset)
				}
				if res.Offset <= 0 || res.Offset >= tt.length {
					t.Fatalf("%s: offset %d out of range", axis, res.Offset)
				}
				if first >= tt.length || second >= tt.length {
					t.Fatalf("%s: halves must be shorter than the region", axis)
				}
			}
		})
	}
}

func TestSplitRespectsRegionOrigin(t *testing.T) {
	r := image.Rect(300, 40, 400, 90)
	res, err := Split(r, annotation.Horizontal, 0.2)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if res.First != image.Rect(300, 40, 360, 90) {
		t.Fatalf("first = %v", res.First)
	}
	if res.Second != image.Rect(340, 40, 400, 90) {
		t.Fatalf("second = %v", res.Second)
	}
	if res.Offset != 40 {
		t.Fatalf("offset must be relative to the region origin, got %d", res.Offset)
	}
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name    string
		r       image.Rectangle
		axis    annotation.Axis
		overlap float64
		want    error
	}{
		{"invalid axis", image.Rect(0, 0, 10, 10), annotation.Axis(0), 0.25, ErrInvalidAxis},
		{"one pixel wide", image.Rect(0, 0, 1, 10), annotation.Horizontal, 0.25, ErrDimensionTooSmall},
		{"one pixel high", image.Rect(0, 0, 10, 1), annotation.Vertical, 0.25, ErrDimensionTooSmall},
		{"negative overlap", image.Rect(0, 0, 10, 10), annotation.Horizontal, -0.1, ErrInvalidOverlap},
		{"full overlap", image.Rect(0, 0, 10, 10), annotation.Horizontal, 1, ErrInvalidOverlap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.r, tt.axis, tt.overlap)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAxisPolicies(t *testing.T) {
	wide, tall, square := image.Rect(0, 0, 20, 10), image.Rect(0, 0, 10, 20), image.Rect(0, 0, 10, 10)

	if DominantAxis(wide, 0, 0) != annotation.Horizontal {
		t.Fatalf("wide region should split horizontally")
	}
	if DominantAxis(tall, 0, 0) != annotation.Vertical {
		t.Fatalf("tall region should split vertically")
	}
	if DominantAxis(square, 0, 0) != annotation.Horizontal {
		t.Fatalf("ties should split horizontally")
	}
	if AlternateAxis(tall, 0, 0) != annotation.Vertical {
		t.Fatalf("alternate policy should start with the dominant axis")
	}
	if AlternateAxis(tall, 1, annotation.Vertical) != annotation.Horizontal {
		t.Fatalf("alternate policy should flip the parent axis")
	}

	for _, name := range []string{"", "dominant", "Alternate"} {
		if _, err := PolicyByName(name); err != nil {
			t.Fatalf("PolicyByName(%q) error = %v", name, err)
		}
	}
	if _, err := PolicyByName("random"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
