package partition

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/imageio"
)

var (
	// ErrInvalidBudget is returned for a non-positive byte budget
	ErrInvalidBudget = errors.New("byte budget must be positive")

	// ErrMaxDepth is returned when a region is still over budget at the depth limit
	ErrMaxDepth = errors.New("maximum split depth reached")
)

// RootPath is the path of the root node of every tree
const RootPath = "root"

// Node is one region of the split tree.
// Inner nodes record how they were split; leaves hold the image that is
// sent to the OCR engine.
type Node struct {
	Path     string          `json:"path"`             // Dotted position in the tree, e.g. root.0.1
	Region   image.Rectangle `json:"region"`           // Region in root image coordinates
	Depth    int             `json:"depth"`            // 0 for the root
	Size     int64           `json:"size"`             // Encoded size in bytes
	Parent   int             `json:"parent"`           // Index of the parent node, -1 for the root
	Axis     annotation.Axis `json:"axis,omitempty"`   // Split axis of an inner node
	Offset   int             `json:"offset,omitempty"` // Offset of the second child relative to this node
	Children []int           `json:"children,omitempty"`

	Image *imageio.Image `json:"-"`
}

// IsLeaf reports whether the node was sent to OCR as a whole
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Tree is the split tree of one image, stored as an arena of nodes.
// Index 0 is the root and children always have larger indices than their
// parent.
type Tree struct {
	MaxBytes int64   `json:"maxBytes"`
	Overlap  float64 `json:"overlap"`
	Nodes    []Node  `json:"nodes"`
}

// Root returns the root node
func (t *Tree) Root() *Node { return &t.Nodes[0] }

// Leaves returns the indices of all leaves, first halves before second halves
func (t *Tree) Leaves() []int {
	var leaves []int
	t.walk(0, func(i int) {
		if t.Nodes[i].IsLeaf() {
			leaves = append(leaves, i)
		}
	}, nil)
	return leaves
}

// PostOrder returns node indices so that every node comes after both of its children
func (t *Tree) PostOrder() []int {
	order := make([]int, 0, len(t.Nodes))
	t.walk(0, nil, func(i int) { order = append(order, i) })
	return order
}

// Depth returns the depth of the deepest node
func (t *Tree) Depth() int {
	depth := 0
	for _, n := range t.Nodes {
		depth = max(depth, n.Depth)
	}
	return depth
}

func (t *Tree) walk(i int, pre, post func(int)) {
	if pre != nil {
		pre(i)
	}
	for _, c := range t.Nodes[i].Children {
		t.walk(c, pre, post)
	}
	if post != nil {
		post(i)
	}
}

// Partitioner splits images until every piece fits a byte budget
type Partitioner struct {
	MaxBytes int64      // Largest payload the OCR engine accepts
	Overlap  float64    // Fraction of each half duplicated into the other, in [0, 1)
	Policy   AxisPolicy // Axis selection; nil means DominantAxis
	MaxDepth int        // Depth limit; 0 means unbounded
}

// Plan builds the split tree of img.
//
// A region whose encoded size is within the budget becomes a leaf. Any other
// region is split along the axis chosen by the policy (or the other axis if
// the chosen one is shorter than two pixels) and both halves are planned in
// turn. The root is never a leaf when it is over budget.
func (p *Partitioner) Plan(ctx context.Context, img *imageio.Image) (*Tree, error) {
	if p.MaxBytes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBudget, p.MaxBytes)
	}
	if p.Overlap < 0 || p.Overlap >= 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidOverlap, p.Overlap)
	}
	policy := p.Policy
	if policy == nil {
		policy = DominantAxis
	}

	tree := &Tree{MaxBytes: p.MaxBytes, Overlap: p.Overlap}
	tree.Nodes = append(tree.Nodes, Node{
		Path:   RootPath,
		Region: img.Bounds(),
		Parent: -1,
		Image:  img,
	})

	stack := []int{0}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &tree.Nodes[i]
		size, err := imageio.Measure(node.Image)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Path, err)
		}
		node.Size = size
		if size <= p.MaxBytes {
			continue
		}
		if p.MaxDepth > 0 && node.Depth >= p.MaxDepth {
			return nil, fmt.Errorf("%w: node %s is %d bytes at depth %d", ErrMaxDepth, node.Path, size, node.Depth)
		}

		var parentAxis annotation.Axis
		if node.Parent >= 0 {
			parentAxis = tree.Nodes[node.Parent].Axis
		}
		axis, err := splittableAxis(node.Region, policy(node.Region, node.Depth, parentAxis))
		if err != nil {
			return nil, fmt.Errorf("node %s is %d bytes, budget %d: %w", node.Path, size, p.MaxBytes, err)
		}

		halves, err := SplitImage(node.Image, axis, p.Overlap)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Path, err)
		}

		first, second := len(tree.Nodes), len(tree.Nodes)+1
		node.Axis = axis
		node.Offset = halves.Offset
		node.Children = []int{first, second}
		node.Image = nil
		depth, path := node.Depth+1, node.Path

		// node is not used past this point: appending may move the arena
		tree.Nodes = append(tree.Nodes,
			Node{Path: path + ".0", Region: halves.First.Bounds(), Depth: depth, Parent: i, Image: halves.First},
			Node{Path: path + ".1", Region: halves.Second.Bounds(), Depth: depth, Parent: i, Image: halves.Second},
		)
		stack = append(stack, second, first)
	}

	return tree, nil
}

// splittableAxis returns preferred if the region can be split along it,
// otherwise the other axis if that one can be split
func splittableAxis(r image.Rectangle, preferred annotation.Axis) (annotation.Axis, error) {
	if !preferred.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidAxis, int(preferred))
	}
	length := func(a annotation.Axis) int {
		if a == annotation.Horizontal {
			return r.Dx()
		}
		return r.Dy()
	}
	if length(preferred) >= 2 {
		return preferred, nil
	}
	if other := preferred.Other(); length(other) >= 2 {
		return other, nil
	}
	return 0, fmt.Errorf("%w: region is %dx%d", ErrDimensionTooSmall, r.Dx(), r.Dy())
}
