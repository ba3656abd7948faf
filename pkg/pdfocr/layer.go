package pdfocr

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	anyascii "github.com/anyascii/go"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/ocrstitch/pkg/hocr"
)

// drawOCRLayer draws the OCR text onto a layer in a pdf page.
// The pageNum parameter is used to create unique layer names for each page.
func drawOCRLayer(
	pdf *fpdf.Fpdf,
	page hocr.Page,
	config OCRConfig,
	pageNum int,
	transform func(x, y float64) (float64, float64),
) error {
	formattedLayerName := config.LayerName
	if pageNum > 0 {
		formattedLayerName = fmt.Sprintf("%s (Page %d)", config.LayerName, pageNum)
	}

	layer := pdf.AddLayer(formattedLayerName, true)
	pdf.BeginLayer(layer)
	pdf.SetFont(config.Font.Name, config.Font.Style, config.Font.Size)

	if config.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
		pdf.SetDrawColor(255, 0, 0)
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	encodingErrors := 0
	wordCount := 0
	for _, area := range page.Areas {
		for _, paragraph := range area.Paragraphs {
			for _, line := range paragraph.Lines {
				for _, word := range line.Words {
					if !drawWord(pdf, word, transform, config) {
						encodingErrors++
						config.Logger.Debug().Str("word", word.ID).Str("text", word.Text).
							Msg("word transliterated to ASCII")
					}
					wordCount++
				}
			}
		}
	}

	if !config.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()

	// Report encoding issues if more than a threshold
	if wordCount > 0 && encodingErrors > wordCount/10 {
		config.Logger.Warn().Int("page", pageNum).Int("words", wordCount).Int("transliterated", encodingErrors).
			Msg("text layer has characters outside Latin-1; search will only match their ASCII form")
	}
	return pdf.Error()
}

// drawWord renders a single word onto the PDF layer. The standard PDF fonts
// only cover Latin-1, so other words are transliterated to ASCII and false
// is returned.
func drawWord(pdf *fpdf.Fpdf, word hocr.Word, transform func(x, y float64) (float64, float64),
	config OCRConfig) bool {

	x, y := transform(float64(word.BBox.X1), float64(word.BBox.Y1))
	x2, y2 := transform(float64(word.BBox.X2), float64(word.BBox.Y2))
	wordWidth := x2 - x

	// Convert text to ISO-8859-1 to avoid PDF encoding issues
	ok := true
	latin1, err := charmap.ISO8859_1.NewEncoder().String(word.Text)
	if err != nil {
		ok = false
		latin1 = anyascii.Transliterate(word.Text)
	}

	strWidth := pdf.GetStringWidth(latin1)
	if strWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(config.Font.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	baseline := y + fontSize*config.Font.AscentRatio

	pdf.Text(x, baseline, latin1)
	pdf.SetFontSize(config.Font.Size)

	if config.Debug {
		pdf.Rect(x, y, wordWidth, y2-y, "D")
	}
	return ok
}
