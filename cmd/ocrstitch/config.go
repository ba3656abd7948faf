package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrstitch/pkg/engine"
	"github.com/gardar/ocrstitch/pkg/engine/gdocai"
	"github.com/gardar/ocrstitch/pkg/engine/tesseract"
	"github.com/gardar/ocrstitch/pkg/engine/vision"
	"github.com/gardar/ocrstitch/pkg/imageio"
	"github.com/gardar/ocrstitch/pkg/partition"
	"github.com/gardar/ocrstitch/pkg/stitch"
)

type yamlConfig struct {
	Engine           string           `yaml:"engine"`
	MaxSizeMegabytes int              `yaml:"max_size_megabytes"`
	Overlap          *float64         `yaml:"overlap"`
	AxisPolicy       string           `yaml:"axis_policy"`
	Concurrency      int              `yaml:"concurrency"`
	MaxDepth         int              `yaml:"max_depth"`
	JPEGQuality      int              `yaml:"jpeg_quality"`
	DPI              float64          `yaml:"dpi"`
	Vision           vision.Config    `yaml:"vision"`
	DocumentAI       gdocai.Config    `yaml:"documentai"`
	Tesseract        tesseract.Config `yaml:"tesseract"`
	Storage          storageConfig    `yaml:"storage"`
}

// storageConfig holds the Cloud Storage client settings used for gs:// images
type storageConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

// loadConfig reads a YAML file and fills in the defaults
func loadConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*yamlConfig, error) {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, err
	}

	yc.Engine = strings.ToLower(strings.TrimSpace(yc.Engine))
	if yc.Engine == "" {
		yc.Engine = vision.Name
	}
	switch yc.Engine {
	case vision.Name, gdocai.Name, tesseract.Name:
	default:
		return nil, fmt.Errorf("unknown engine %q (use %s, %s or %s)", yc.Engine, vision.Name, gdocai.Name, tesseract.Name)
	}
	if yc.MaxSizeMegabytes == 0 {
		yc.MaxSizeMegabytes = stitch.DefaultMaxMegabytes
	}
	if yc.MaxSizeMegabytes < 0 {
		return nil, fmt.Errorf("max_size_megabytes must be positive, got %d", yc.MaxSizeMegabytes)
	}
	if yc.Overlap == nil {
		overlap := stitch.DefaultOverlap
		yc.Overlap = &overlap
	}
	if o := *yc.Overlap; o < 0 || o >= 1 {
		return nil, fmt.Errorf("%w: %v", partition.ErrInvalidOverlap, o)
	}
	if _, err := partition.PolicyByName(yc.AxisPolicy); err != nil {
		return nil, err
	}
	if yc.Concurrency == 0 {
		yc.Concurrency = stitch.DefaultConcurrency
	}
	if yc.JPEGQuality == 0 {
		yc.JPEGQuality = imageio.DefaultJPEGQuality
	}
	if yc.JPEGQuality < 1 || yc.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg_quality must be within 1-100, got %d", yc.JPEGQuality)
	}
	if yc.Engine == gdocai.Name && (yc.DocumentAI.ProjectID == "" || yc.DocumentAI.ProcessorID == "") {
		return nil, fmt.Errorf("documentai requires project_id and processor_id")
	}
	if yc.DocumentAI.Location == "" {
		yc.DocumentAI.Location = "us"
	}
	return &yc, nil
}

// invokerOptions maps the configuration to stitch options
func (yc *yamlConfig) invokerOptions(logger zerolog.Logger) []stitch.Option {
	policy, _ := partition.PolicyByName(yc.AxisPolicy)
	return []stitch.Option{
		stitch.WithMaxMegabytes(yc.MaxSizeMegabytes),
		stitch.WithOverlap(*yc.Overlap),
		stitch.WithAxisPolicy(policy),
		stitch.WithConcurrency(yc.Concurrency),
		stitch.WithMaxDepth(yc.MaxDepth),
		stitch.WithLoader(yc.loader()),
		stitch.WithLogger(logger),
	}
}

// loader resolves local, http(s) and gs:// image references
func (yc *yamlConfig) loader() imageio.DefaultLoader {
	var opts []option.ClientOption
	if yc.Storage.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(yc.Storage.CredentialsFile))
	}
	if yc.Storage.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(yc.Storage.Endpoint))
	}
	return imageio.DefaultLoader{
		Options: imageio.Options{JPEGQuality: yc.JPEGQuality},
		Storage: opts,
	}
}

// rawDumper is implemented by engines that can write their raw responses
type rawDumper interface {
	DumpRawResponses(w io.Writer) error
}

// newEngine creates the configured engine. The returned close function
// releases its client.
func newEngine(ctx context.Context, yc *yamlConfig, keepRaw bool) (engine.Engine, func() error, error) {
	noop := func() error { return nil }
	switch yc.Engine {
	case gdocai.Name:
		eng, err := gdocai.New(ctx, yc.DocumentAI)
		if err != nil {
			return nil, nil, err
		}
		if keepRaw {
			eng.KeepRawResponses()
		}
		return eng, eng.Close, nil
	case tesseract.Name:
		if !tesseract.Enabled {
			return nil, nil, tesseract.ErrNotCompiled
		}
		return tesseract.New(yc.Tesseract), noop, nil
	default:
		eng, err := vision.New(ctx, yc.Vision)
		if err != nil {
			return nil, nil, err
		}
		return eng, noop, nil
	}
}
