//go:build ocr

package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
	"github.com/gardar/ocrstitch/pkg/hocr"
)

// Enabled reports whether the engine was compiled in
const Enabled = true

// Engine runs Tesseract on every image. A new client is created per call so
// that concurrent leaves never share Tesseract state.
type Engine struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// New creates a Tesseract engine
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Name implements engine.Engine
func (e *Engine) Name() string { return Name }

// Recognize implements engine.Engine. The hOCR output provides the block,
// paragraph and word layout; symbol boxes are read from the result iterator.
func (e *Engine) Recognize(ctx context.Context, in engine.Input) (*annotation.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer c.Close()

	if len(e.cfg.Languages) > 0 {
		if err := c.SetLanguage(e.cfg.Languages...); err != nil {
			return nil, fail(fmt.Errorf("set languages: %w", err))
		}
	}
	for k, v := range e.cfg.Variables {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return nil, fail(fmt.Errorf("set variable %s: %w", k, err))
		}
	}
	if err := c.SetImageFromBytes(in.Image); err != nil {
		return nil, fail(fmt.Errorf("set image: %w", err))
	}

	out, err := c.HOCRText()
	if err != nil {
		return nil, fail(fmt.Errorf("recognize text: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parsed, err := hocr.Parse([]byte(out))
	if err != nil {
		return nil, fail(err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fail(fmt.Errorf("symbol boxes: %w", err))
	}
	return hocr.ToAnnotationWithSymbols(parsed, symbols(boxes)), nil
}

func symbols(boxes []gosseract.BoundingBox) []hocr.Symbol {
	out := make([]hocr.Symbol, 0, len(boxes))
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		out = append(out, hocr.Symbol{
			Text:       b.Word,
			BBox:       hocr.NewBoundingBox(b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y),
			Confidence: b.Confidence,
		})
	}
	return out
}
