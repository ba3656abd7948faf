package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"io"
	"strings"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var hocrTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":       html.EscapeString,
	"bbox":      bboxProperty,
	"pageTitle": pageTitle,
	"lineTitle": lineTitle,
	"wordTitle": wordTitle,
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// Generate creates an hOCR HTML document from the HOCR struct
func Generate(doc *HOCR) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write renders doc as hOCR HTML to w
func Write(w io.Writer, doc *HOCR) error {
	if doc == nil {
		return fmt.Errorf("no hOCR document to render")
	}
	if err := hocrTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("error rendering hOCR template: %w", err)
	}
	return nil
}

func bboxProperty(b BoundingBox) string {
	return fmt.Sprintf("bbox %d %d %d %d", b.X1, b.Y1, b.X2, b.Y2)
}

func pageTitle(p Page) string {
	parts := []string{}
	if p.ImageName != "" {
		parts = append(parts, fmt.Sprintf("image %q", p.ImageName))
	}
	parts = append(parts, bboxProperty(p.BBox), fmt.Sprintf("ppageno %d", p.PageNumber))
	return html.EscapeString(strings.Join(parts, "; "))
}

func lineTitle(l Line) string {
	title := bboxProperty(l.BBox)
	if l.Baseline != "" {
		title += "; baseline " + l.Baseline
	}
	return html.EscapeString(title)
}

func wordTitle(w Word) string {
	return fmt.Sprintf("%s; x_wconf %d", bboxProperty(w.BBox), int(w.Confidence+0.5))
}
