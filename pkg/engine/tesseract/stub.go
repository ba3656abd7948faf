//go:build !ocr

package tesseract

import (
	"context"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
)

// Enabled reports whether the engine was compiled in
const Enabled = false

// Engine is the stand-in used when Tesseract support is not compiled in
type Engine struct {
	cfg Config
}

// New returns an engine that fails every request with ErrNotCompiled
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Name implements engine.Engine
func (e *Engine) Name() string { return Name }

// Recognize implements engine.Engine. It always fails with a permanent error.
func (e *Engine) Recognize(ctx context.Context, _ engine.Input) (*annotation.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fail(ErrNotCompiled)
}
