package vision

import (
	"math"

	vision "google.golang.org/api/vision/v1"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

// FromTextAnnotation converts a Vision fullTextAnnotation.
// Polygons reported only with normalized vertices are scaled by the page size.
func FromTextAnnotation(ta *vision.TextAnnotation) *annotation.Document {
	doc := &annotation.Document{}
	if ta == nil {
		return doc
	}
	doc.Text = ta.Text

	for _, p := range ta.Pages {
		if p == nil {
			continue
		}
		w, h := int(p.Width), int(p.Height)
		page := &annotation.Page{
			Width:      w,
			Height:     h,
			Confidence: p.Confidence,
			Languages:  languages(p.Property),
		}
		for _, b := range p.Blocks {
			if b == nil {
				continue
			}
			block := &annotation.Block{
				BoundingBox: poly(b.BoundingBox, w, h),
				BlockType:   b.BlockType,
				Confidence:  b.Confidence,
			}
			for _, pa := range b.Paragraphs {
				if pa == nil {
					continue
				}
				para := &annotation.Paragraph{
					BoundingBox: poly(pa.BoundingBox, w, h),
					Confidence:  pa.Confidence,
				}
				for _, wd := range pa.Words {
					if wd == nil {
						continue
					}
					word := &annotation.Word{
						BoundingBox: poly(wd.BoundingBox, w, h),
						Confidence:  wd.Confidence,
					}
					for _, s := range wd.Symbols {
						if s == nil {
							continue
						}
						word.Symbols = append(word.Symbols, &annotation.Symbol{
							BoundingBox: poly(s.BoundingBox, w, h),
							Confidence:  s.Confidence,
							Text:        s.Text,
							Break:       detectedBreak(s.Property),
						})
					}
					para.Words = append(para.Words, word)
				}
				block.Paragraphs = append(block.Paragraphs, para)
			}
			page.Blocks = append(page.Blocks, block)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

func poly(bp *vision.BoundingPoly, w, h int) annotation.BoundingPoly {
	var out annotation.BoundingPoly
	if bp == nil {
		return out
	}
	if len(bp.Vertices) > 0 {
		out.Vertices = make([]annotation.Vertex, 0, len(bp.Vertices))
		for _, v := range bp.Vertices {
			if v == nil {
				out.Vertices = append(out.Vertices, annotation.Vertex{})
				continue
			}
			out.Vertices = append(out.Vertices, annotation.Vertex{X: int(v.X), Y: int(v.Y)})
		}
		return out
	}
	if len(bp.NormalizedVertices) > 0 {
		out.Vertices = make([]annotation.Vertex, 0, len(bp.NormalizedVertices))
		for _, v := range bp.NormalizedVertices {
			if v == nil {
				out.Vertices = append(out.Vertices, annotation.Vertex{})
				continue
			}
			out.Vertices = append(out.Vertices, annotation.Vertex{
				X: int(math.Round(v.X * float64(w))),
				Y: int(math.Round(v.Y * float64(h))),
			})
		}
	}
	return out
}

func languages(prop *vision.TextProperty) []string {
	if prop == nil {
		return nil
	}
	var langs []string
	for _, l := range prop.DetectedLanguages {
		if l != nil && l.LanguageCode != "" {
			langs = append(langs, l.LanguageCode)
		}
	}
	return langs
}

func detectedBreak(prop *vision.TextProperty) annotation.BreakType {
	if prop == nil || prop.DetectedBreak == nil {
		return annotation.BreakNone
	}
	switch prop.DetectedBreak.Type {
	case "SPACE":
		return annotation.BreakSpace
	case "SURE_SPACE":
		return annotation.BreakSureSpace
	case "EOL_SURE_SPACE":
		return annotation.BreakEOLSureSpace
	case "HYPHEN":
		return annotation.BreakHyphen
	case "LINE_BREAK":
		return annotation.BreakLine
	}
	return annotation.BreakNone
}
