package annotation

import (
	"slices"
	"strings"
)

// Counts holds the number of elements at each level of the hierarchy
type Counts struct {
	Pages      int `json:"pages"`
	Blocks     int `json:"blocks"`
	Paragraphs int `json:"paragraphs"`
	Words      int `json:"words"`
	Symbols    int `json:"symbols"`
}

// Add returns the element-wise sum of two counts
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Pages:      c.Pages + o.Pages,
		Blocks:     c.Blocks + o.Blocks,
		Paragraphs: c.Paragraphs + o.Paragraphs,
		Words:      c.Words + o.Words,
		Symbols:    c.Symbols + o.Symbols,
	}
}

// Counts walks the document and counts its elements
func (d *Document) Counts() Counts {
	var c Counts
	if d == nil {
		return c
	}
	for _, page := range d.Pages {
		if page == nil {
			continue
		}
		c.Pages++
		for _, block := range page.Blocks {
			if block == nil {
				continue
			}
			c.Blocks++
			for _, para := range block.Paragraphs {
				if para == nil {
					continue
				}
				c.Paragraphs++
				for _, word := range para.Words {
					if word == nil {
						continue
					}
					c.Words++
					for _, sym := range word.Symbols {
						if sym != nil {
							c.Symbols++
						}
					}
				}
			}
		}
	}
	return c
}

// Words returns every word of the document in reading order
func (d *Document) Words() []*Word {
	var words []*Word
	if d == nil {
		return nil
	}
	for _, page := range d.Pages {
		if page == nil {
			continue
		}
		for _, block := range page.Blocks {
			if block == nil {
				continue
			}
			for _, para := range block.Paragraphs {
				if para == nil {
					continue
				}
				for _, word := range para.Words {
					if word != nil {
						words = append(words, word)
					}
				}
			}
		}
	}
	return words
}

// PlainText rebuilds the text from the hierarchy, one block per paragraph
// of output and pages separated by blank lines. Use it when the document
// text was not reported by the engine.
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	var pages []string
	for _, page := range d.Pages {
		if page == nil {
			continue
		}
		var blocks []string
		for _, block := range page.Blocks {
			if txt := strings.TrimSpace(block.Text()); txt != "" {
				blocks = append(blocks, txt)
			}
		}
		pages = append(pages, strings.Join(blocks, "\n"))
	}
	return strings.Join(pages, "\n\n")
}

// Flatten folds every page into a single page of the given size.
// Merged annotations carry one page per leaf sub-image; exporters that
// expect the original single-page layout use the flattened form.
func (d *Document) Flatten(width, height int) *Document {
	out := &Document{Pages: []*Page{{Width: width, Height: height}}}
	if d == nil {
		return out
	}
	c := d.Clone()
	out.Text = c.Text
	page := out.Pages[0]
	var confSum float64
	pages := 0
	for _, p := range c.Pages {
		if p == nil {
			continue
		}
		pages++
		for _, b := range p.Blocks {
			if b != nil {
				page.Blocks = append(page.Blocks, b)
			}
		}
		confSum += p.Confidence
		for _, lang := range p.Languages {
			if !slices.Contains(page.Languages, lang) {
				page.Languages = append(page.Languages, lang)
			}
		}
	}
	if pages > 0 {
		page.Confidence = confSum / float64(pages)
	}
	return out
}

// Clone returns a deep copy of the document
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Text: d.Text}
	if d.Pages != nil {
		out.Pages = make([]*Page, len(d.Pages))
	}
	for i, p := range d.Pages {
		out.Pages[i] = p.clone()
	}
	return out
}

func (p *Page) clone() *Page {
	if p == nil {
		return nil
	}
	out := *p
	out.Languages = slices.Clone(p.Languages)
	if p.Blocks != nil {
		out.Blocks = make([]*Block, len(p.Blocks))
	}
	for i, b := range p.Blocks {
		out.Blocks[i] = b.clone()
	}
	return &out
}

func (b *Block) clone() *Block {
	if b == nil {
		return nil
	}
	out := *b
	out.BoundingBox = b.BoundingBox.clone()
	if b.Paragraphs != nil {
		out.Paragraphs = make([]*Paragraph, len(b.Paragraphs))
	}
	for i, p := range b.Paragraphs {
		out.Paragraphs[i] = p.clone()
	}
	return &out
}

func (p *Paragraph) clone() *Paragraph {
	if p == nil {
		return nil
	}
	out := *p
	out.BoundingBox = p.BoundingBox.clone()
	if p.Words != nil {
		out.Words = make([]*Word, len(p.Words))
	}
	for i, w := range p.Words {
		out.Words[i] = w.clone()
	}
	return &out
}

func (w *Word) clone() *Word {
	if w == nil {
		return nil
	}
	out := *w
	out.BoundingBox = w.BoundingBox.clone()
	if w.Symbols != nil {
		out.Symbols = make([]*Symbol, len(w.Symbols))
	}
	for i, s := range w.Symbols {
		if s == nil {
			continue
		}
		sym := *s
		sym.BoundingBox = s.BoundingBox.clone()
		out.Symbols[i] = &sym
	}
	return &out
}

func (p BoundingPoly) clone() BoundingPoly {
	return BoundingPoly{Vertices: slices.Clone(p.Vertices)}
}
