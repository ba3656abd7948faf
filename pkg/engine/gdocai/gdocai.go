// Package gdocai recognizes text with a Google Document AI OCR processor.
//
// Each image is sent as a raw document with symbol detection enabled. The
// flat lists of blocks, paragraphs, tokens and symbols in the response are
// rebuilt into the annotation hierarchy by text anchor containment: an
// element belongs to a parent when its text segment lies inside the
// parent's segment.
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via GOOGLE_APPLICATION_CREDENTIALS environment variable
package gdocai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/engine"
)

// Name identifies the engine in logs and errors
const Name = "documentai"

// Config holds the Document AI processor settings
type Config struct {
	ProjectID       string   `yaml:"project_id"`
	Location        string   `yaml:"location"` // us or eu
	ProcessorID     string   `yaml:"processor_id"`
	CredentialsFile string   `yaml:"credentials_file"` // Empty uses GOOGLE_APPLICATION_CREDENTIALS
	LanguageHints   []string `yaml:"language_hints"`
}

// ProcessorName returns the resource name of the configured processor
func (c Config) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// Processor is the part of the Document AI client used by the engine
type Processor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)
}

type clientProcessor struct {
	client *documentai.DocumentProcessorClient
}

func (c clientProcessor) ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
	return c.client.ProcessDocument(ctx, req)
}

// Engine sends images to a Document AI processor
type Engine struct {
	cfg    Config
	proc   Processor
	closer io.Closer

	keepRaw bool
	mu      sync.Mutex
	raw     map[string]*documentaipb.Document
}

// New connects to the regional Document AI endpoint of cfg.Location
func New(ctx context.Context, cfg Config) (*Engine, error) {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("project_id, location and processor_id are required")
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)

	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{option.WithEndpoint(endpoint)}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Document AI client: %w", err)
	}
	e := NewWithProcessor(cfg, clientProcessor{client: client})
	e.closer = client
	return e, nil
}

// NewWithProcessor creates an engine on top of an existing processor
func NewWithProcessor(cfg Config, proc Processor) *Engine {
	return &Engine{cfg: cfg, proc: proc}
}

// KeepRawResponses makes the engine retain every raw response, keyed by
// the input ID, for DumpRawResponses
func (e *Engine) KeepRawResponses() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keepRaw = true
	if e.raw == nil {
		e.raw = make(map[string]*documentaipb.Document)
	}
}

// Close releases the underlying client
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// Name implements engine.Engine
func (e *Engine) Name() string { return Name }

// Recognize implements engine.Engine
func (e *Engine) Recognize(ctx context.Context, in engine.Input) (*annotation.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: e.cfg.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  in.Image,
				MimeType: in.MIMEType,
			},
		},
		SkipHumanReview: true,
		ProcessOptions: &documentaipb.ProcessOptions{
			OcrConfig: &documentaipb.OcrConfig{
				EnableSymbol: true,
			},
		},
	}
	if len(e.cfg.LanguageHints) > 0 {
		req.ProcessOptions.OcrConfig.Hints = &documentaipb.OcrConfig_Hints{LanguageHints: e.cfg.LanguageHints}
	}

	resp, err := e.proc.ProcessDocument(ctx, req)
	if err != nil {
		return nil, classify(err)
	}
	doc := resp.GetDocument()
	if doc == nil {
		return &annotation.Document{}, nil
	}
	if doc.Error != nil && codes.Code(doc.Error.Code) != codes.OK {
		return nil, &engine.Error{
			Engine:    Name,
			Temporary: temporaryCode(codes.Code(doc.Error.Code)),
			Err:       fmt.Errorf("%s: %s", codes.Code(doc.Error.Code), doc.Error.Message),
		}
	}

	e.mu.Lock()
	if e.keepRaw {
		e.raw[in.ID] = doc
	}
	e.mu.Unlock()

	return FromProto(doc), nil
}

// DumpRawResponses writes the retained raw responses as one JSON object
// keyed by input ID
func (e *Engine) DumpRawResponses(w io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// encoding/json writes map keys in sorted order
	out := make(map[string]json.RawMessage, len(e.raw))
	for id, doc := range e.raw {
		data, err := protojson.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal response %s: %w", id, err)
		}
		out[id] = data
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// classify turns a gRPC error into an engine.Error
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return &engine.Error{Engine: Name, Temporary: true, Err: err}
	}
	return &engine.Error{Engine: Name, Temporary: temporaryCode(st.Code()), Err: err}
}

func temporaryCode(code codes.Code) bool {
	switch code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}
