package hocr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gardar/ocrstitch/pkg/annotation"
)

// Capabilities lists the hOCR classes produced by FromAnnotation
const Capabilities = "ocr_page ocr_carea ocr_par ocr_line ocrx_word"

// Options control the document level properties of generated hOCR
type Options struct {
	Title     string
	ImageName string // Source image recorded on every page
	System    string // Value of the ocr-system meta tag
}

// FromAnnotation converts an annotation into hOCR.
//
// Blocks become areas and paragraphs stay paragraphs. Annotations have no
// line level, so a paragraph's words are split into lines after every word
// whose last symbol ends a line.
func FromAnnotation(doc *annotation.Document, opts Options) *HOCR {
	out := &HOCR{
		Title:    opts.Title,
		Metadata: map[string]string{"ocr-capabilities": Capabilities},
	}
	if opts.System != "" {
		out.Metadata["ocr-system"] = opts.System
	}
	if doc == nil {
		return out
	}

	langs := make(map[string]int)
	for pi, p := range doc.Pages {
		if p == nil {
			continue
		}
		page := Page{
			ID:         fmt.Sprintf("page_%d", pi+1),
			PageNumber: pi,
			ImageName:  opts.ImageName,
			BBox:       NewBoundingBox(0, 0, p.Width, p.Height),
		}
		if len(p.Languages) > 0 {
			page.Lang = p.Languages[0]
		}
		for _, lang := range p.Languages {
			langs[lang]++
		}

		var lineNo, wordNo int
		for bi, b := range p.Blocks {
			if b == nil {
				continue
			}
			area := Area{
				ID:   fmt.Sprintf("block_%d_%d", pi+1, bi+1),
				BBox: boxOf(b.BoundingBox),
			}
			for pa, para := range b.Paragraphs {
				if para == nil {
					continue
				}
				hp := Paragraph{
					ID:   fmt.Sprintf("par_%d_%d_%d", pi+1, bi+1, pa+1),
					BBox: boxOf(para.BoundingBox),
				}
				var line *Line
				for _, w := range para.Words {
					text := w.Text()
					if text == "" {
						continue
					}
					if line == nil {
						lineNo++
						hp.Lines = append(hp.Lines, Line{ID: fmt.Sprintf("line_%d_%d", pi+1, lineNo)})
						line = &hp.Lines[len(hp.Lines)-1]
					}
					wordNo++
					hw := Word{
						ID:         fmt.Sprintf("word_%d_%d", pi+1, wordNo),
						Text:       text,
						BBox:       boxOf(w.BoundingBox),
						Confidence: math.Round(w.Confidence * 100),
					}
					line.Words = append(line.Words, hw)
					line.BBox = line.BBox.Union(hw.BBox)
					if endsLine(w) {
						line = nil
					}
				}
				area.Paragraphs = append(area.Paragraphs, hp)
			}
			page.Areas = append(page.Areas, area)
		}
		out.Pages = append(out.Pages, page)
	}

	if len(langs) > 0 {
		best := ""
		for lang, n := range langs {
			if n > langs[best] || (n == langs[best] && lang < best) {
				best = lang
			}
		}
		out.Language = best
	}
	out.Metadata["ocr-number-of-pages"] = strconv.Itoa(len(out.Pages))
	return out
}

// Symbol is a character box reported outside the hOCR, such as the symbol
// level iterator of Tesseract
type Symbol struct {
	Text       string
	BBox       BoundingBox
	Confidence float64 // 0-100
}

// ToAnnotation converts hOCR into an annotation. Words carry their text as
// Content; the document text is the plain text of the hOCR.
func ToAnnotation(h *HOCR) *annotation.Document {
	return ToAnnotationWithSymbols(h, nil)
}

// ToAnnotationWithSymbols converts hOCR into an annotation and attaches each
// symbol to the word whose box contains the symbol's centre. The last symbol
// of a word records the break that follows it: a space inside a line, an
// end-of-line space between lines and a line break at the end of a
// paragraph. Words without symbols keep their text as Content.
func ToAnnotationWithSymbols(h *HOCR, symbols []Symbol) *annotation.Document {
	doc := &annotation.Document{}
	if h == nil {
		return doc
	}
	doc.Text = Text(h)
	used := make([]bool, len(symbols))

	for _, p := range h.Pages {
		page := &annotation.Page{
			Width:  p.BBox.X2 - p.BBox.X1,
			Height: p.BBox.Y2 - p.BBox.Y1,
		}
		if lang := firstNonEmpty(p.Lang, h.Language); lang != "" {
			page.Languages = []string{lang}
		}
		for _, a := range p.Areas {
			block := &annotation.Block{BoundingBox: polyOf(a.BBox), BlockType: "TEXT"}
			for _, hp := range a.Paragraphs {
				para := &annotation.Paragraph{BoundingBox: polyOf(hp.BBox)}
				var conf float64
				for li, l := range hp.Lines {
					for wi, w := range l.Words {
						word := &annotation.Word{
							BoundingBox: polyOf(w.BBox),
							Confidence:  w.Confidence / 100,
						}
						word.Symbols = claimSymbols(w.BBox, symbols, used)
						if n := len(word.Symbols); n > 0 {
							switch {
							case wi < len(l.Words)-1:
								word.Symbols[n-1].Break = annotation.BreakSpace
							case li < len(hp.Lines)-1:
								word.Symbols[n-1].Break = annotation.BreakEOLSureSpace
							default:
								word.Symbols[n-1].Break = annotation.BreakLine
							}
						} else {
							word.Content = w.Text
						}
						para.Words = append(para.Words, word)
						conf += word.Confidence
					}
				}
				if n := len(para.Words); n > 0 {
					para.Confidence = conf / float64(n)
				}
				block.Paragraphs = append(block.Paragraphs, para)
			}
			page.Blocks = append(page.Blocks, block)
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

// claimSymbols returns the unused symbols whose centre lies inside box and
// marks them as used
func claimSymbols(box BoundingBox, symbols []Symbol, used []bool) []*annotation.Symbol {
	if box.IsZero() {
		return nil
	}
	var out []*annotation.Symbol
	for i, s := range symbols {
		if used[i] {
			continue
		}
		cx, cy := (s.BBox.X1+s.BBox.X2)/2, (s.BBox.Y1+s.BBox.Y2)/2
		if cx < box.X1 || cx >= box.X2 || cy < box.Y1 || cy >= box.Y2 {
			continue
		}
		used[i] = true
		out = append(out, &annotation.Symbol{
			BoundingBox: polyOf(s.BBox),
			Confidence:  s.Confidence / 100,
			Text:        s.Text,
		})
	}
	return out
}

// Text extracts the text of an hOCR document: words of a line are joined by
// spaces, every line ends with a newline, and paragraphs and pages are
// separated by a blank line
func Text(h *HOCR) string {
	if h == nil {
		return ""
	}
	var paras []string
	for _, p := range h.Pages {
		for _, a := range p.Areas {
			for _, hp := range a.Paragraphs {
				var sb strings.Builder
				for _, l := range hp.Lines {
					words := make([]string, 0, len(l.Words))
					for _, w := range l.Words {
						words = append(words, w.Text)
					}
					if len(words) == 0 {
						continue
					}
					sb.WriteString(strings.Join(words, " "))
					sb.WriteString("\n")
				}
				if sb.Len() > 0 {
					paras = append(paras, sb.String())
				}
			}
		}
	}
	return strings.Join(paras, "\n")
}

func endsLine(w *annotation.Word) bool {
	if len(w.Symbols) == 0 || w.Symbols[len(w.Symbols)-1] == nil {
		return false
	}
	switch w.Symbols[len(w.Symbols)-1].Break {
	case annotation.BreakLine, annotation.BreakEOLSureSpace, annotation.BreakHyphen:
		return true
	}
	return false
}

func boxOf(p annotation.BoundingPoly) BoundingBox {
	x1, y1, x2, y2, ok := p.Rect()
	if !ok {
		return BoundingBox{}
	}
	return NewBoundingBox(x1, y1, x2, y2)
}

func polyOf(b BoundingBox) annotation.BoundingPoly {
	if b.IsZero() {
		return annotation.BoundingPoly{}
	}
	return annotation.NewBoundingBox(b.X1, b.Y1, b.X2, b.Y2)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
