package pdfocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/gardar/ocrstitch/pkg/imageio"
)

// normalizeCoords rescales hOCR Bounding Box (bbox) coords to the PDF coords.
func normalizeCoords(x, y, hocrW, hocrH, pdfW, pdfH float64) (float64, float64) {
	nx := (x / hocrW) * pdfW
	ny := (y / hocrH) * pdfH
	return nx, ny
}

// pageSize converts a page of w x h pixels to points
func pageSize(w, h int, dpi float64) (float64, float64) {
	if dpi <= 0 {
		return float64(w), float64(h)
	}
	return float64(w) * 72 / dpi, float64(h) * 72 / dpi
}

// embeddable returns image data fpdf can place on a page together with its
// type. JPEG, PNG and GIF are used as is; other formats are re-encoded.
func embeddable(data []byte) ([]byte, string, image.Point, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", image.Point{}, fmt.Errorf("failed to decode image config: %w", err)
	}
	size := image.Pt(cfg.Width, cfg.Height)
	switch format {
	case "jpeg", "png", "gif":
		return data, strings.ToUpper(format), size, nil
	}

	img, err := imageio.Decode(data, imageio.DefaultOptions())
	if err != nil {
		return nil, "", size, err
	}
	out, format, err := img.Reencode()
	if err != nil {
		return nil, "", size, fmt.Errorf("failed to re-encode %s image: %w", img.Format(), err)
	}
	return out, strings.ToUpper(format), size, nil
}
