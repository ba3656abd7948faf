// Package tesseract recognizes text with a local Tesseract installation
// through gosseract.
//
// Tesseract has no request size limit, but large scans are still split by
// the stitching core when a budget is configured, which keeps the memory of
// every recognition bounded.
//
// The engine is only compiled in with the "ocr" build tag, since gosseract
// needs cgo together with the Tesseract and Leptonica headers:
//
//	go build -tags ocr ./cmd/ocrstitch
//
// On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev libleptonica-dev tesseract-ocr-eng
//
// Without the tag New returns an engine that fails every request with
// ErrNotCompiled.
package tesseract

import (
	"errors"

	"github.com/gardar/ocrstitch/pkg/engine"
)

// Name identifies the engine in logs and errors
const Name = "tesseract"

// ErrNotCompiled is returned when the binary was built without the "ocr" tag
var ErrNotCompiled = errors.New("tesseract support not compiled in; rebuild with -tags ocr")

// Config holds the Tesseract settings
type Config struct {
	Languages []string          `yaml:"languages"` // Trained data names, e.g. "eng", "isl"
	Variables map[string]string `yaml:"variables"` // Tesseract variables set on every client
}

func fail(err error) error {
	return &engine.Error{Engine: Name, Err: err}
}
