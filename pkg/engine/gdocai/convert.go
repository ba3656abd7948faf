package gdocai

import (
	"math"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

// FromProto converts a Document AI response into an annotation.
//
// Blocks, paragraphs, tokens and symbols are flat lists on every page; the
// hierarchy is rebuilt from text anchors. Tokens become words. When the
// processor reported symbols they are attached to their token, otherwise
// the word carries the token text as Content.
func FromProto(doc *documentaipb.Document) *annotation.Document {
	out := &annotation.Document{}
	if doc == nil {
		return out
	}
	out.Text = doc.Text

	for _, page := range doc.Pages {
		out.Pages = append(out.Pages, convertPage(page, doc.Text))
	}
	return out
}

func convertPage(page *documentaipb.Document_Page, fullText string) *annotation.Page {
	var w, h float64
	if page.Dimension != nil {
		w, h = float64(page.Dimension.Width), float64(page.Dimension.Height)
	}
	out := &annotation.Page{
		Width:  int(math.Round(w)),
		Height: int(math.Round(h)),
	}
	if page.Layout != nil {
		out.Confidence = float64(page.Layout.Confidence)
	}
	for _, lang := range page.DetectedLanguages {
		if lang.LanguageCode != "" && lang.LanguageCode != "und" {
			out.Languages = append(out.Languages, lang.LanguageCode)
		}
	}

	for _, block := range page.Blocks {
		b := &annotation.Block{
			BoundingBox: boundingPoly(block.Layout, w, h),
			BlockType:   "TEXT",
			Confidence:  confidence(block.Layout),
		}
		for _, para := range page.Paragraphs {
			if !isElementInParent(para.Layout, block.Layout) {
				continue
			}
			p := &annotation.Paragraph{
				BoundingBox: boundingPoly(para.Layout, w, h),
				Confidence:  confidence(para.Layout),
			}
			for _, token := range page.Tokens {
				if !isElementInParent(token.Layout, para.Layout) {
					continue
				}
				p.Words = append(p.Words, convertToken(token, page.Symbols, fullText, w, h))
			}
			b.Paragraphs = append(b.Paragraphs, p)
		}
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

func convertToken(token *documentaipb.Document_Page_Token, symbols []*documentaipb.Document_Page_Symbol,
	fullText string, w, h float64) *annotation.Word {

	txt := textFromLayout(token.Layout, fullText)
	word := &annotation.Word{
		BoundingBox: boundingPoly(token.Layout, w, h),
		Confidence:  confidence(token.Layout),
	}

	for _, sym := range symbols {
		if !isElementInParent(sym.Layout, token.Layout) {
			continue
		}
		text := textFromLayout(sym.Layout, fullText)
		if strings.TrimSpace(text) == "" {
			continue
		}
		word.Symbols = append(word.Symbols, &annotation.Symbol{
			BoundingBox: boundingPoly(sym.Layout, w, h),
			Confidence:  confidence(sym.Layout),
			Text:        text,
		})
	}

	brk := tokenBreak(token, txt)
	if n := len(word.Symbols); n > 0 {
		word.Symbols[n-1].Break = brk
	} else {
		word.Content = strings.TrimSpace(txt)
	}
	return word
}

// tokenBreak maps the detected break of a token; a token whose text ends in
// a newline ends its line
func tokenBreak(token *documentaipb.Document_Page_Token, txt string) annotation.BreakType {
	if strings.HasSuffix(txt, "\n") {
		return annotation.BreakLine
	}
	if token.DetectedBreak == nil {
		return annotation.BreakNone
	}
	switch token.DetectedBreak.Type {
	case documentaipb.Document_Page_Token_DetectedBreak_SPACE:
		return annotation.BreakSpace
	case documentaipb.Document_Page_Token_DetectedBreak_WIDE_SPACE:
		return annotation.BreakSureSpace
	case documentaipb.Document_Page_Token_DetectedBreak_HYPHEN:
		return annotation.BreakHyphen
	}
	return annotation.BreakNone
}

// boundingPoly returns pixel vertices, scaling normalized vertices by the
// page dimension when the processor reported no pixel coordinates
func boundingPoly(layout *documentaipb.Document_Page_Layout, w, h float64) annotation.BoundingPoly {
	var out annotation.BoundingPoly
	if layout == nil || layout.BoundingPoly == nil {
		return out
	}
	bp := layout.BoundingPoly
	if len(bp.Vertices) > 0 {
		for _, v := range bp.Vertices {
			out.Vertices = append(out.Vertices, annotation.Vertex{X: int(v.X), Y: int(v.Y)})
		}
		return out
	}
	for _, v := range bp.NormalizedVertices {
		out.Vertices = append(out.Vertices, annotation.Vertex{
			X: int(math.Round(float64(v.X) * w)),
			Y: int(math.Round(float64(v.Y) * h)),
		})
	}
	return out
}

func confidence(layout *documentaipb.Document_Page_Layout) float64 {
	if layout == nil {
		return 0
	}
	return float64(layout.Confidence)
}

// textFromLayout extracts text from a layout's text anchor segments
func textFromLayout(layout *documentaipb.Document_Page_Layout, fullText string) string {
	if layout == nil || layout.TextAnchor == nil {
		return ""
	}
	runes := []rune(fullText)
	var sb strings.Builder
	for _, seg := range layout.TextAnchor.TextSegments {
		start := min(max(int(seg.StartIndex), 0), len(runes))
		end := min(max(int(seg.EndIndex), 0), len(runes))
		if start > end {
			start = end
		}
		sb.WriteString(string(runes[start:end]))
	}
	return sb.String()
}

// isElementInParent reports whether the first text segment of element lies
// inside the first text segment of parent
func isElementInParent(element, parent *documentaipb.Document_Page_Layout) bool {
	if element == nil || parent == nil ||
		element.TextAnchor == nil || parent.TextAnchor == nil ||
		len(element.TextAnchor.TextSegments) == 0 || len(parent.TextAnchor.TextSegments) == 0 {
		return false
	}
	e := element.TextAnchor.TextSegments[0]
	p := parent.TextAnchor.TextSegments[0]
	return e.StartIndex >= p.StartIndex && e.EndIndex <= p.EndIndex
}
