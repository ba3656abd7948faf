package partition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/imageio"
)

func noisyImage(w, h int) *imageio.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(11)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed = seed*1664525 + 1013904223
			img.Set(x, y, color.RGBA{uint8(seed >> 24), uint8(seed >> 16), uint8(seed >> 8), 255})
		}
	}
	return imageio.FromImage(img, "png", imageio.DefaultOptions())
}

func measure(t *testing.T, img *imageio.Image) int64 {
	t.Helper()
	size, err := imageio.Measure(img)
	if err != nil {
		t.Fatalf("Measure() error = %v", err)
	}
	return size
}

func TestPlanUnderBudget(t *testing.T) {
	img := noisyImage(32, 24)
	p := Partitioner{MaxBytes: measure(t, img), Overlap: 0.25}

	tree, err := p.Plan(context.Background(), img)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(tree.Nodes) != 1 || !tree.Root().IsLeaf() {
		t.Fatalf("expected a single leaf, got %d nodes", len(tree.Nodes))
	}
	if tree.Root().Image != img {
		t.Fatalf("the leaf should hold the input image")
	}
	if leaves := tree.Leaves(); len(leaves) != 1 || leaves[0] != 0 {
		t.Fatalf("unexpected leaves %v", leaves)
	}
}

func TestPlanSingleSplit(t *testing.T) {
	img := noisyImage(64, 48)
	size := measure(t, img)
	p := Partitioner{MaxBytes: size * 3 / 4, Overlap: 0.25}

	tree, err := p.Plan(context.Background(), img)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(tree.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(tree.Nodes))
	}

	root := tree.Root()
	if root.Axis != annotation.Horizontal || root.Offset != 24 {
		t.Fatalf("root split %s at %d, want horizontal at 24", root.Axis, root.Offset)
	}
	if root.Image != nil {
		t.Fatalf("inner nodes should release their image")
	}
	if root.Size != size {
		t.Fatalf("root size = %d, want %d", root.Size, size)
	}

	left, right := tree.Nodes[root.Children[0]], tree.Nodes[root.Children[1]]
	if left.Path != "root.0" || right.Path != "root.1" {
		t.Fatalf("unexpected paths %s %s", left.Path, right.Path)
	}
	if left.Region != image.Rect(0, 0, 40, 48) || right.Region != image.Rect(24, 0, 64, 48) {
		t.Fatalf("unexpected regions %v %v", left.Region, right.Region)
	}
	for _, n := range []Node{left, right} {
		if !n.IsLeaf() || n.Image == nil || n.Depth != 1 || n.Parent != 0 {
			t.Fatalf("unexpected leaf %+v", n)
		}
		if n.Size > p.MaxBytes {
			t.Fatalf("leaf %s is over budget: %d > %d", n.Path, n.Size, p.MaxBytes)
		}
	}
}

func TestPlanLeavesFitBudget(t *testing.T) {
	img := noisyImage(30, 20)
	p := Partitioner{MaxBytes: 400, Overlap: 0.25}

	tree, err := p.Plan(context.Background(), img)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(tree.Leaves()) < 2 {
		t.Fatalf("expected the image to be split")
	}

	for i, n := range tree.Nodes {
		if n.IsLeaf() {
			if n.Size > p.MaxBytes {
				t.Fatalf("leaf %s is over budget: %d", n.Path, n.Size)
			}
			if n.Image == nil || n.Image.Bounds() != n.Region {
				t.Fatalf("leaf %s image does not match its region", n.Path)
			}
			continue
		}
		if n.Size <= p.MaxBytes {
			t.Fatalf("inner node %s was within budget", n.Path)
		}
		want, err := Split(n.Region, n.Axis, p.Overlap)
		if err != nil {
			t.Fatalf("Split(%s) error = %v", n.Path, err)
		}
		first, second := tree.Nodes[n.Children[0]], tree.Nodes[n.Children[1]]
		if first.Region != want.First || second.Region != want.Second || n.Offset != want.Offset {
			t.Fatalf("node %s children do not follow its split", n.Path)
		}
		for _, c := range n.Children {
			if c <= i || tree.Nodes[c].Parent != i {
				t.Fatalf("child %d of node %d is misplaced", c, i)
			}
		}
	}
}

func TestPlanPostOrder(t *testing.T) {
	img := noisyImage(30, 20)
	tree, err := (&Partitioner{MaxBytes: 400, Overlap: 0.25}).Plan(context.Background(), img)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	order := tree.PostOrder()
	if len(order) != len(tree.Nodes) {
		t.Fatalf("post order has %d entries for %d nodes", len(order), len(tree.Nodes))
	}
	if order[len(order)-1] != 0 {
		t.Fatalf("root must come last")
	}
	seen := make(map[int]bool)
	for _, i := range order {
		for _, c := range tree.Nodes[i].Children {
			if !seen[c] {
				t.Fatalf("node %s visited before its child %s", tree.Nodes[i].Path, tree.Nodes[c].Path)
			}
		}
		seen[i] = true
	}
}

func TestPlanAlternateAxis(t *testing.T) {
	img := noisyImage(24, 160)
	size := measure(t, img)
	p := Partitioner{MaxBytes: size / 3, Overlap: 0.1, Policy: AlternateAxis}

	tree, err := p.Plan(context.Background(), img)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	root := tree.Root()
	if root.Axis != annotation.Vertical {
		t.Fatalf("root of a tall image should split vertically, got %s", root.Axis)
	}
	for _, c := range root.Children {
		child := tree.Nodes[c]
		if !child.IsLeaf() && child.Axis != annotation.Horizontal {
			t.Fatalf("child %s should split horizontally, got %s", child.Path, child.Axis)
		}
	}
}

func TestPlanDimensionTooSmall(t *testing.T) {
	img := noisyImage(3, 3)
	_, err := (&Partitioner{MaxBytes: 10, Overlap: 0.25}).Plan(context.Background(), img)
	if !errors.Is(err, ErrDimensionTooSmall) {
		t.Fatalf("expected ErrDimensionTooSmall, got %v", err)
	}
}

func TestPlanMaxDepth(t *testing.T) {
	img := noisyImage(64, 64)
	_, err := (&Partitioner{MaxBytes: 10, Overlap: 0.25, MaxDepth: 2}).Plan(context.Background(), img)
	if !errors.Is(err, ErrMaxDepth) {
		t.Fatalf("expected ErrMaxDepth, got %v", err)
	}
}

func TestPlanInvalidParameters(t *testing.T) {
	img := noisyImage(4, 4)
	if _, err := (&Partitioner{MaxBytes: 0}).Plan(context.Background(), img); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("expected ErrInvalidBudget, got %v", err)
	}
	if _, err := (&Partitioner{MaxBytes: 100, Overlap: 1.5}).Plan(context.Background(), img); !errors.Is(err, ErrInvalidOverlap) {
		t.Fatalf("expected ErrInvalidOverlap, got %v", err)
	}
}

func TestPlanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Partitioner{MaxBytes: 100, Overlap: 0.25}).Plan(ctx, noisyImage(16, 16))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// A budget that fits the largest single pixel crop is the smallest budget
// for which every image can be planned.
func TestPlanTerminatesAtPixelBudget(t *testing.T) {
	img := noisyImage(8, 6)
	var budget int64
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			px, err := img.Crop(image.Rect(x, y, x+1, y+1))
			if err != nil {
				t.Fatalf("Crop() error = %v", err)
			}
			budget = max(budget, measure(t, px))
		}
	}

	for _, overlap := range []float64{0, 0.25, 0.5, 0.9} {
		t.Run(fmt.Sprintf("overlap %v", overlap), func(t *testing.T) {
			tree, err := (&Partitioner{MaxBytes: budget, Overlap: overlap}).Plan(context.Background(), img)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			leaves := tree.Leaves()
			if len(leaves) < 2 {
				t.Fatalf("expected the image to be split, got %d leaves", len(leaves))
			}
			for _, i := range leaves {
				if n := tree.Nodes[i]; n.Size > budget || n.Region.Empty() {
					t.Fatalf("leaf %s (%v, %d bytes) does not fit %d", n.Path, n.Region, n.Size, budget)
				}
			}
		})
	}

	if _, err := (&Partitioner{MaxBytes: budget - 1, Overlap: 0.25}).Plan(context.Background(), img); !errors.Is(err, ErrDimensionTooSmall) {
		t.Fatalf("a budget below every pixel must fail with ErrDimensionTooSmall, got %v", err)
	}
}
