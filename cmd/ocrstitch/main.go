// ocrstitch is a command-line tool for recognizing text in images that are too large for an OCR service.
//
// Images above the configured size are split recursively into overlapping halves until every piece fits the
// budget of the OCR engine. Each piece is recognized on its own and the results are merged back into a single
// annotation in the coordinates of the original image. The annotation can be saved as JSON, plain text, hOCR or
// as a searchable PDF with an invisible text layer over the original image.
//
// Configuration:
//
// The tool reads a YAML configuration file selecting the engine and the split settings:
//
//	engine: vision            # vision, documentai or tesseract
//	max_size_megabytes: 20
//	overlap: 0.25
//	axis_policy: dominant     # dominant or alternate
//	concurrency: 4
//	max_depth: 0              # 0 means unlimited
//	jpeg_quality: 90
//	dpi: 0                    # resolution used for the PDF page size
//	vision:
//	  credentials_file: ""
//	  api_key: ""
//	documentai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	tesseract:
//	  languages: [eng]
//	storage:                  # client for gs:// images
//	  credentials_file: ""
//
// Usage:
//
//	ocrstitch -config config.yml -image scan.png [options]
//
// Required flags:
//
//	-config string  Path to the YAML configuration file
//	-image string   Path, http(s) URL or gs://bucket/object of the input image
//
// Output options (at least one required):
//
//	-json string    Path to save the merged annotation as JSON
//	-text string    Path to save OCR text output
//	-hocr string    Path to save HOCR output
//	-output string  Path to save a searchable PDF of the image
//
// Debug options:
//
//	-debug-plan string  Path to save the split tree as JSON
//	-debug-api string   Path to save raw Document AI responses as JSON
//	-log-level string   Log level (debug, info, warn, error)
//
// Authentication:
//
// Google engines use the GOOGLE_APPLICATION_CREDENTIALS environment variable unless credentials are set in the
// configuration. Variables are also read from a .env file in the working directory. OCRSTITCH_LOG_LEVEL sets the
// log level when -log-level is not given.
//
// Building:
//
// The tesseract engine needs cgo and the Tesseract headers and is only compiled in with the ocr build tag:
//
//	go build -tags ocr ./cmd/ocrstitch
//
// Example:
//
//	export GOOGLE_APPLICATION_CREDENTIALS=/path/to/credentials.json
//	ocrstitch -config config.yml -image map.tif -text map.txt -hocr map.hocr -output map_ocr.pdf
//	ocrstitch -config config.yml -image https://example.com/plan.jpg -json plan.json -debug-plan tree.json
//	ocrstitch -config config.yml -image gs://geo_images/images-1.jpg -text images-1.txt
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/gardar/ocrstitch/pkg/hocr"
	"github.com/gardar/ocrstitch/pkg/pdfocr"
	"github.com/gardar/ocrstitch/pkg/stitch"
)

func main() {
	envErr := loadDotenv()

	// Required flags.
	configPath := flag.String("config", "", "Path to the config YAML file (required)")
	imageRef := flag.String("image", "", "Path, URL or gs:// reference of the input image (required)")

	// Output flags
	jsonPath := flag.String("json", "", "Path to save the merged annotation as JSON")
	textPath := flag.String("text", "", "Path to save OCR text output")
	hocrPath := flag.String("hocr", "", "Path to save HOCR output")
	pdfOcrPath := flag.String("output", "", "Path to save a searchable PDF of the image")
	debugPlanPath := flag.String("debug-plan", "", "Path to save the split tree as JSON for debugging purposes")
	debugAPIPath := flag.String("debug-api", "", "Path to save raw Document AI responses as JSON for debugging purposes")
	logLevel := flag.String("log-level", os.Getenv("OCRSTITCH_LOG_LEVEL"), "Log level (debug, info, warn, error)")

	flag.Parse()

	logger := newLogger(*logLevel)
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("Failed to load .env file")
	}

	// Create a map of provided flags to validate
	providedFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		providedFlags[f.Name] = true
	})

	if *configPath == "" || *imageRef == "" {
		fmt.Fprintln(os.Stderr, "Error: -config and -image flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Validate that provided output flags have values
	outputs := map[string]string{
		"json": *jsonPath, "text": *textPath, "hocr": *hocrPath, "output": *pdfOcrPath,
		"debug-plan": *debugPlanPath, "debug-api": *debugAPIPath,
	}
	hasError := false
	hasOutputFlag := false
	for name, value := range outputs {
		if !providedFlags[name] {
			continue
		}
		if value == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s flag requires a value\n", name)
			hasError = true
		}
		hasOutputFlag = true
	}
	if hasError {
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if !hasOutputFlag {
		fmt.Fprintln(os.Stderr, "Error: At least one output flag must be provided (-json, -text, -hocr, -output, -debug-plan or -debug-api)")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config from file.
	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeEngine, err := newEngine(ctx, cfg, *debugAPIPath != "")
	if err != nil {
		logger.Fatal().Err(err).Str("engine", cfg.Engine).Msg("Failed to create OCR engine")
	}
	defer closeEngine()

	iv := stitch.New(eng, cfg.invokerOptions(logger)...)

	img, err := iv.Load(ctx, *imageRef)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load image")
	}
	logger.Info().
		Str("image", *imageRef).
		Str("format", img.Format()).
		Int("width", img.Width()).
		Int("height", img.Height()).
		Msg("Processing image")

	res, err := iv.Run(ctx, img)
	if err != nil {
		var be *stitch.BranchError
		if errors.As(err, &be) {
			logger.Fatal().Err(be.Err).Str("path", be.Path).Msg("Error processing image")
		}
		logger.Fatal().Err(err).Msg("Error processing image")
	}
	doc := res.Annotation
	fmt.Printf("Recognized %d words with %d request(s) in %s\n", doc.Counts().Words, res.Calls, res.Duration.Round(time.Millisecond))

	// Merged annotations carry one page per piece; exports use the single page of the source image
	flat := doc.Flatten(img.Width(), img.Height())

	// Write annotation JSON if flag is provided.
	if *jsonPath != "" {
		writeJSON(logger, *jsonPath, doc, "Annotation JSON")
	}

	// Write OCR text output if flag is provided.
	if *textPath != "" {
		text := doc.Text
		if strings.TrimSpace(text) == "" {
			text = doc.PlainText()
		}
		writeFile(logger, *textPath, []byte(text), "Document text")
	}

	// Write hOCR output if flag is provided.
	if *hocrPath != "" {
		h := hocr.FromAnnotation(flat, hocr.Options{
			Title:     filepath.Base(*imageRef),
			ImageName: filepath.Base(*imageRef),
			System:    "ocrstitch " + eng.Name(),
		})
		html, err := hocr.Generate(h)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to render HOCR")
		}
		writeFile(logger, *hocrPath, []byte(html), "Rendered HOCR output")
	}

	// Generate a searchable PDF if flag is provided.
	if *pdfOcrPath != "" {
		data, _, err := img.Reencode()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to prepare image for PDF")
		}
		ocrConfig := pdfocr.DefaultConfig()
		ocrConfig.DPI = cfg.DPI
		ocrConfig.Logger = logger
		pdf, err := pdfocr.AssembleWithOCR(flat, [][]byte{data}, ocrConfig)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create PDF from image")
		}
		writeFile(logger, *pdfOcrPath, pdf, "OCR'ed PDF")
	}

	// Write the split tree if flag is provided.
	if *debugPlanPath != "" {
		writeJSON(logger, *debugPlanPath, res.Tree, "Split tree JSON")
	}

	// Write raw API responses if flag is provided.
	if *debugAPIPath != "" {
		dumper, ok := eng.(rawDumper)
		if !ok {
			fmt.Printf("Warning: raw API responses are not available for the %s engine\n", eng.Name())
			return
		}
		var buf bytes.Buffer
		if err := dumper.DumpRawResponses(&buf); err != nil {
			logger.Fatal().Err(err).Msg("Failed to convert API responses to JSON")
		}
		writeFile(logger, *debugAPIPath, buf.Bytes(), "API response JSON")
	}
}

// loadDotenv reads variables from the given .env files, ./.env by default.
// A missing file is not an error.
func loadDotenv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// newLogger writes human readable logs to stderr
func newLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func writeJSON(logger zerolog.Logger, path string, v any, what string) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msgf("Failed to convert %s", what)
	}
	writeFile(logger, path, data, what)
}

func writeFile(logger zerolog.Logger, path string, data []byte, what string) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		logger.Fatal().Err(err).Msgf("Failed to write %s", what)
	}
	fmt.Printf("%s saved to: %s\n", what, path)
}
