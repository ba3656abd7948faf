package stitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
	"github.com/gardar/ocrstitch/pkg/imageio"
	"github.com/gardar/ocrstitch/pkg/partition"
)

// ErrInvalidInput is returned for an empty or unreadable image reference
var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultMaxMegabytes is the payload budget used when none is configured
	DefaultMaxMegabytes = 20

	// DefaultOverlap is the fraction of each half duplicated into its sibling
	DefaultOverlap = 0.25

	// DefaultConcurrency is the number of leaf requests in flight at once
	DefaultConcurrency = 4
)

// BranchError reports the branch of the split tree that failed
type BranchError struct {
	Path string
	Err  error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("branch %s: %v", e.Path, e.Err)
}

func (e *BranchError) Unwrap() error { return e.Err }

// Option configures an Invoker
type Option func(*Invoker)

// WithMaxBytes sets the payload budget in bytes. The budget applies to the
// request; engines implementing engine.PayloadLimiter (Vision sends images
// base64 encoded, 4/3 of their size) split images against the smaller raw
// budget they report.
func WithMaxBytes(n int64) Option {
	return func(iv *Invoker) { iv.maxBytes = n }
}

// WithMaxMegabytes sets the payload budget in megabytes (MiB)
func WithMaxMegabytes(mb int) Option {
	return WithMaxBytes(int64(mb) << 20)
}

// WithOverlap sets the overlap fraction used at every split
func WithOverlap(f float64) Option {
	return func(iv *Invoker) { iv.overlap = f }
}

// WithAxisPolicy sets how the split axis is chosen
func WithAxisPolicy(p partition.AxisPolicy) Option {
	return func(iv *Invoker) { iv.policy = p }
}

// WithConcurrency limits the number of concurrent engine requests
func WithConcurrency(n int) Option {
	return func(iv *Invoker) { iv.concurrency = n }
}

// WithMaxDepth limits the depth of the split tree (0 means unbounded)
func WithMaxDepth(n int) Option {
	return func(iv *Invoker) { iv.maxDepth = n }
}

// WithLogger sets the logger for progress events
func WithLogger(l zerolog.Logger) Option {
	return func(iv *Invoker) { iv.log = l }
}

// WithLoader sets how image references are resolved
func WithLoader(l imageio.Loader) Option {
	return func(iv *Invoker) { iv.loader = l }
}

// Invoker runs OCR on images of any size by splitting them into pieces the
// engine accepts and merging the annotations of the pieces.
type Invoker struct {
	engine      engine.Engine
	loader      imageio.Loader
	maxBytes    int64
	overlap     float64
	policy      partition.AxisPolicy
	concurrency int
	maxDepth    int
	log         zerolog.Logger
}

// New returns an Invoker sending requests to eng
func New(eng engine.Engine, opts ...Option) *Invoker {
	iv := &Invoker{
		engine:      eng,
		loader:      imageio.DefaultLoader{Options: imageio.DefaultOptions()},
		maxBytes:    DefaultMaxMegabytes << 20,
		overlap:     DefaultOverlap,
		policy:      partition.DominantAxis,
		concurrency: DefaultConcurrency,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(iv)
	}
	if iv.concurrency < 1 {
		iv.concurrency = 1
	}
	return iv
}

// Result is the outcome of one run
type Result struct {
	Annotation *annotation.Document
	Tree       *partition.Tree
	Calls      int
	Duration   time.Duration
}

// Invoke loads the image behind ref and returns its annotation in the
// coordinates of the full image
func (iv *Invoker) Invoke(ctx context.Context, ref string) (*annotation.Document, error) {
	img, err := iv.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return iv.InvokeImage(ctx, img)
}

// Load resolves ref with the configured loader
func (iv *Invoker) Load(ctx context.Context, ref string) (*imageio.Image, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty image reference", ErrInvalidInput)
	}
	img, err := iv.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return img, nil
}

// InvokeImage returns the annotation of an already loaded image
func (iv *Invoker) InvokeImage(ctx context.Context, img *imageio.Image) (*annotation.Document, error) {
	res, err := iv.Run(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.Annotation, nil
}

// Run plans the split tree of img, recognizes every leaf and merges the
// leaf annotations bottom-up. An image within the budget is sent once and
// its annotation is returned as the engine produced it.
func (iv *Invoker) Run(ctx context.Context, img *imageio.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	start := time.Now()

	p := partition.Partitioner{
		MaxBytes: engine.ImageBudget(iv.engine, iv.maxBytes),
		Overlap:  iv.overlap,
		Policy:   iv.policy,
		MaxDepth: iv.maxDepth,
	}
	tree, err := p.Plan(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to plan %dx%d image: %w", img.Width(), img.Height(), err)
	}

	leaves := tree.Leaves()
	iv.log.Debug().
		Int("width", img.Width()).
		Int("height", img.Height()).
		Int("leaves", len(leaves)).
		Int("depth", tree.Depth()).
		Msg("split tree planned")

	results := make([]*annotation.Document, len(tree.Nodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(iv.concurrency)
	for _, i := range leaves {
		node := &tree.Nodes[i]
		g.Go(func() error {
			doc, err := iv.recognize(gctx, node)
			if err != nil {
				return &BranchError{Path: node.Path, Err: err}
			}
			results[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		iv.log.Error().Err(err).Str("engine", iv.engine.Name()).Msg("recognition failed")
		return nil, err
	}

	for _, i := range tree.PostOrder() {
		node := &tree.Nodes[i]
		if node.IsLeaf() {
			continue
		}
		first, second := node.Children[0], node.Children[1]
		merged, err := annotation.Merge(node.Offset, results[first], results[second], node.Axis)
		if err != nil {
			return nil, &BranchError{Path: node.Path, Err: err}
		}
		results[i] = merged
		results[first], results[second] = nil, nil
	}

	res := &Result{
		Annotation: results[0],
		Tree:       tree,
		Calls:      len(leaves),
		Duration:   time.Since(start),
	}
	iv.log.Info().
		Str("engine", iv.engine.Name()).
		Int("leaves", res.Calls).
		Int("depth", tree.Depth()).
		Dur("duration", res.Duration).
		Msg("image recognized")
	return res, nil
}

func (iv *Invoker) recognize(ctx context.Context, node *partition.Node) (*annotation.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := node.Image.Encoded()
	if err != nil {
		return nil, err
	}

	iv.log.Debug().
		Str("path", node.Path).
		Int("bytes", len(data)).
		Int("width", node.Region.Dx()).
		Int("height", node.Region.Dy()).
		Msg("recognizing")

	doc, err := iv.engine.Recognize(ctx, engine.Input{
		Image:    data,
		MIMEType: node.Image.MIMEType(),
		Width:    node.Region.Dx(),
		Height:   node.Region.Dy(),
		ID:       node.Path,
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &annotation.Document{}
	}
	return doc, nil
}
