package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gardar/ocrstitch/pkg/engine/tesseract"
	"github.com/gardar/ocrstitch/pkg/partition"
	"github.com/gardar/ocrstitch/pkg/stitch"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]byte("tesseract:\n  languages: [eng, isl]\n"))
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg.Engine != "vision" || cfg.MaxSizeMegabytes != stitch.DefaultMaxMegabytes ||
		*cfg.Overlap != stitch.DefaultOverlap || cfg.Concurrency != stitch.DefaultConcurrency || cfg.JPEGQuality != 90 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Tesseract.Languages) != 2 || cfg.DocumentAI.Location != "us" {
		t.Fatalf("unexpected engine sections %+v", cfg)
	}
	if n := len(cfg.invokerOptions(zerolog.Nop())); n != 7 {
		t.Fatalf("expected 7 invoker options, got %d", n)
	}
}

func TestParseConfigZeroOverlap(t *testing.T) {
	cfg, err := parseConfig([]byte("engine: Tesseract\noverlap: 0\naxis_policy: alternate\n"))
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if cfg.Engine != "tesseract" || *cfg.Overlap != 0 {
		t.Fatalf("an explicit zero overlap must be kept, got %+v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown engine", "engine: abbyy"},
		{"negative size", "max_size_megabytes: -1"},
		{"axis policy", "axis_policy: diagonal"},
		{"jpeg quality", "jpeg_quality: 101"},
		{"documentai without processor", "engine: documentai\ndocumentai:\n  project_id: p\n"},
		{"malformed", "engine: [vision"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseConfig([]byte(tt.yaml)); err == nil {
				t.Fatalf("expected error for %q", tt.yaml)
			}
		})
	}

	if _, err := parseConfig([]byte("overlap: 1")); !errors.Is(err, partition.ErrInvalidOverlap) {
		t.Fatalf("expected ErrInvalidOverlap, got %v", err)
	}
}

func TestConfigLoader(t *testing.T) {
	cfg, err := parseConfig([]byte("jpeg_quality: 80\nstorage:\n  credentials_file: key.json\n  endpoint: http://localhost:4443/storage/v1/\n"))
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	l := cfg.loader()
	if l.Options.JPEGQuality != 80 || len(l.Storage) != 2 {
		t.Fatalf("unexpected loader %+v", l)
	}

	cfg, err = parseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	if l := cfg.loader(); len(l.Storage) != 0 {
		t.Fatalf("default loader should use application default credentials")
	}
}

func TestNewEngineTesseract(t *testing.T) {
	cfg, err := parseConfig([]byte("engine: tesseract\n"))
	if err != nil {
		t.Fatalf("parseConfig() error = %v", err)
	}
	eng, closeEngine, err := newEngine(context.Background(), cfg, false)
	if !tesseract.Enabled {
		if !errors.Is(err, tesseract.ErrNotCompiled) {
			t.Fatalf("expected ErrNotCompiled without the ocr build tag, got %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}
	defer closeEngine()
	if eng.Name() != tesseract.Name {
		t.Fatalf("unexpected engine %s", eng.Name())
	}
}
