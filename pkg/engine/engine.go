// Package engine defines the contract between the stitching core and an
// external OCR service.
//
// An Engine turns one encoded image into an annotation whose coordinates are
// pixels of that image. Implementations live in the subpackages vision,
// gdocai and tesseract.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

// ErrExternalService matches every error reported by an OCR engine
var ErrExternalService = errors.New("external OCR service failed")

// Input is one image sent to an engine
type Input struct {
	Image    []byte // Encoded image, exactly as measured by the partitioner
	MIMEType string
	Width    int
	Height   int
	ID       string // Branch path of the image, used for logging and debug dumps
}

// Engine recognizes text in a single image
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (*annotation.Document, error)
}

// PayloadLimiter is implemented by engines whose requests carry the image in
// a larger encoding than its raw bytes. MaxImageBytes returns the largest
// image, in raw bytes, whose request fits within requestBytes.
type PayloadLimiter interface {
	MaxImageBytes(requestBytes int64) int64
}

// ImageBudget converts a request budget into a budget for the raw image
// bytes sent to eng
func ImageBudget(eng Engine, requestBytes int64) int64 {
	if pl, ok := eng.(PayloadLimiter); ok {
		return pl.MaxImageBytes(requestBytes)
	}
	return requestBytes
}

// Error is returned by engines when the service rejects or fails a request.
// Temporary marks failures that may succeed when retried (rate limits,
// unavailable backends, timeouts).
type Error struct {
	Engine    string
	Temporary bool
	Err       error
}

func (e *Error) Error() string {
	kind := "permanent"
	if e.Temporary {
		kind = "temporary"
	}
	return fmt.Sprintf("%s: %s error: %v", e.Engine, kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every engine error match ErrExternalService
func (e *Error) Is(target error) bool { return target == ErrExternalService }

// IsTemporary reports whether err carries a temporary engine failure
func IsTemporary(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Temporary
}

// Func adapts a function to the Engine interface
type Func struct {
	Label string
	Fn    func(ctx context.Context, in Input) (*annotation.Document, error)
}

// Name implements Engine
func (f Func) Name() string { return f.Label }

// Recognize implements Engine
func (f Func) Recognize(ctx context.Context, in Input) (*annotation.Document, error) {
	return f.Fn(ctx, in)
}
