// Package pdfocr assembles searchable PDFs from scanned images and their OCR
// results.
//
// Every image becomes one PDF page with the image as background and the
// recognized words drawn on top in an optional content layer. The text is:
// - Fully searchable
// - Selectable with mouse drag operations
// - Can be toggled on/off in compatible PDF readers, allowing users to view just the OCR layer
//
// OCR results are given as hOCR (raw HTML or parsed) or as an annotation.
// A stitched annotation has one page per recognized sub-image, so it should
// be flattened to the size of the source image before it is passed here.
//
// Main Functions:
//
// - AssembleWithOCR: Creates a new PDF from images with OCR text layer
package pdfocr

import (
	"fmt"

	"github.com/gardar/ocrstitch/pkg/annotation"
	"github.com/gardar/ocrstitch/pkg/hocr"
)

// AssembleWithOCR is a high-level function for creating a PDF from images
// and applying the OCR text overlay.
// It accepts raw hOCR data ([]byte), a parsed hOCR struct (*hocr.HOCR) or an
// annotation (*annotation.Document). The n-th page of the OCR result is
// drawn over the n-th image.
func AssembleWithOCR(
	ocrInput any,
	imagesData [][]byte,
	config OCRConfig,
) ([]byte, error) {
	var hocrStruct *hocr.HOCR
	var err error

	switch h := ocrInput.(type) {
	case []byte:
		hocrStruct, err = hocr.Parse(h)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HOCR data: %w", err)
		}
	case *hocr.HOCR:
		if h == nil {
			return nil, fmt.Errorf("HOCR struct is nil")
		}
		hocrStruct = h
	case *annotation.Document:
		if h == nil {
			return nil, fmt.Errorf("annotation is nil")
		}
		hocrStruct = hocr.FromAnnotation(h, hocr.Options{})
	default:
		return nil, fmt.Errorf("unsupported OCR input type: %T", ocrInput)
	}

	if len(hocrStruct.Pages) == 0 {
		return nil, fmt.Errorf("OCR data contains no pages")
	}
	if len(imagesData) == 0 {
		return nil, fmt.Errorf("no image data provided")
	}
	if len(imagesData) < len(hocrStruct.Pages) {
		return nil, fmt.Errorf("not enough images (%d) for OCR pages (%d)",
			len(imagesData), len(hocrStruct.Pages))
	}
	for i, imgData := range imagesData {
		if len(imgData) == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}
	}
	if config.Font.Name == "" {
		config.Font = DefaultFont
	}

	finalPDF, err := createPDFFromImage(hocrStruct, imagesData, config)
	if err != nil {
		return nil, fmt.Errorf("error creating PDF from images: %w", err)
	}
	return finalPDF, nil
}
