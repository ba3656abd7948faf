package pdfocr

import (
	"github.com/rs/zerolog"
)

// OCRConfig holds user options for building a searchable PDF
type OCRConfig struct {
	Debug     bool           // Draw the text in red with word boxes instead of hiding it
	LayerName string         // Base name of OCR layer (page number will be appended)
	DPI       float64        // Resolution of the source images; 0 maps one pixel to one point
	Logger    zerolog.Logger // Receives warnings about unencodable words
	Font      FontConfig
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() OCRConfig {
	return OCRConfig{
		LayerName: "OCR Text", // Will be formatted as "OCR Text (Page X)" in the final PDF
		Logger:    zerolog.Nop(),
		Font:      DefaultFont,
	}
}

// FontConfig contains font settings for OCR text rendering
type FontConfig struct {
	Name        string  // Font name (e.g., "Helvetica")
	Style       string  // Font style ("", "B", "I", "BI")
	Size        float64 // Default font size
	AscentRatio float64 // Vertical positioning ratio
}

// DefaultFont sets the default font to Helvetica which is tried and tested for the OCR layer
var DefaultFont = FontConfig{
	Name:        "Helvetica",
	Style:       "",
	Size:        10,
	AscentRatio: 0.718,
}
