// Package vision recognizes text with the Google Cloud Vision API.
//
// Images are sent to images:annotate with the DOCUMENT_TEXT_DETECTION
// feature and the fullTextAnnotation of the response is converted into an
// annotation.Document. Vision reports pixel vertices in the coordinates of
// the submitted image, which is what the stitching core expects.
//
// Usage Requirements:
//
// - Google Cloud project with the Vision API enabled
// - Authentication via a credentials file, an API key, or application default credentials
package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
	"google.golang.org/grpc/codes"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
)

// Name identifies the engine in logs and errors
const Name = "vision"

// FeatureDocumentText is the Vision feature used for dense text
const FeatureDocumentText = "DOCUMENT_TEXT_DETECTION"

// Config holds the settings of the Vision client
type Config struct {
	CredentialsFile string   `yaml:"credentials_file"` // Service account key; empty uses GOOGLE_APPLICATION_CREDENTIALS or ADC
	APIKey          string   `yaml:"api_key"`          // API key instead of a service account
	Endpoint        string   `yaml:"endpoint"`         // Override of the API endpoint
	LanguageHints   []string `yaml:"language_hints"`   // BCP-47 hints passed in the image context
}

// Engine sends images to Cloud Vision
type Engine struct {
	svc   *vision.Service
	hints []string
}

// New creates a Vision engine from cfg
func New(ctx context.Context, cfg Config) (*Engine, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vision client: %w", err)
	}
	return NewWithService(svc, cfg.LanguageHints), nil
}

// NewWithService wraps an existing Vision service
func NewWithService(svc *vision.Service, hints []string) *Engine {
	return &Engine{svc: svc, hints: hints}
}

// Name implements engine.Engine
func (e *Engine) Name() string { return Name }

// MaxImageBytes implements engine.PayloadLimiter. Images travel base64
// encoded, four bytes for every three.
func (e *Engine) MaxImageBytes(requestBytes int64) int64 {
	return requestBytes / 4 * 3
}

// Recognize implements engine.Engine
func (e *Engine) Recognize(ctx context.Context, in engine.Input) (*annotation.Document, error) {
	req := &vision.AnnotateImageRequest{
		Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(in.Image)},
		Features: []*vision.Feature{{Type: FeatureDocumentText}},
	}
	if len(e.hints) > 0 {
		req.ImageContext = &vision.ImageContext{LanguageHints: e.hints}
	}

	resp, err := e.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Responses) != 1 {
		return nil, &engine.Error{Engine: Name, Err: fmt.Errorf("expected 1 response, got %d", len(resp.Responses))}
	}
	return FromResponse(resp.Responses[0])
}

// FromResponse converts one image response into an annotation.
// An image without text yields an empty document.
func FromResponse(resp *vision.AnnotateImageResponse) (*annotation.Document, error) {
	if resp == nil {
		return &annotation.Document{}, nil
	}
	if resp.Error != nil && resp.Error.Code != 0 {
		return nil, statusError(resp.Error)
	}
	return FromTextAnnotation(resp.FullTextAnnotation), nil
}

// classify turns a transport error into an engine.Error
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &engine.Error{Engine: Name, Temporary: temporaryHTTP(apiErr.Code), Err: err}
	}
	// Cancellation belongs to the caller, not to the service
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &engine.Error{Engine: Name, Temporary: true, Err: err}
}

func temporaryHTTP(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusError converts the per-image status of a batch response
func statusError(st *vision.Status) error {
	code := codes.Code(st.Code)
	var temporary bool
	switch code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		temporary = true
	}
	return &engine.Error{
		Engine:    Name,
		Temporary: temporary,
		Err:       fmt.Errorf("%s: %s", code, st.Message),
	}
}
