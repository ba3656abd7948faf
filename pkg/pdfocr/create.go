package pdfocr

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/ocrstitch/pkg/hocr"
)

// createPDFFromImage builds a new PDF from images with their corresponding OCR data.
// This function assumes inputs have been validated by the caller.
func createPDFFromImage(hOCRData *hocr.HOCR, imagesData [][]byte, config OCRConfig) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")

	for i, page := range hOCRData.Pages {
		data, imageType, size, err := embeddable(imagesData[i])
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}

		// hOCR page size in pixels, falling back to the image when the page has no bbox
		hw, hh := page.BBox.X2-page.BBox.X1, page.BBox.Y2-page.BBox.Y1
		if hw <= 0 || hh <= 0 {
			hw, hh = size.X, size.Y
		}
		w, h := pageSize(hw, hh, config.DPI)

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: imageType}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("failed to place image %d: %w", i+1, err)
		}

		ox, oy := float64(page.BBox.X1), float64(page.BBox.Y1)
		transform := func(x, y float64) (float64, float64) {
			return normalizeCoords(x-ox, y-oy, float64(hw), float64(hh), w, h)
		}

		if err := drawOCRLayer(pdf, page, config, i+1, transform); err != nil {
			return nil, fmt.Errorf("failed to draw OCR layer for page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
