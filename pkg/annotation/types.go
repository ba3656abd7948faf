package annotation

import "strings"

// Document is the full text annotation returned for one image
// It mirrors the document -> page -> block -> paragraph -> word -> symbol
// hierarchy of a DOCUMENT_TEXT_DETECTION response
type Document struct {
	Text  string  `json:"text"`  // Full recognized text in reading order
	Pages []*Page `json:"pages"` // Pages in the annotation
}

// Page is a single page of recognized text
type Page struct {
	Width      int      `json:"width"`                // Page width in pixels
	Height     int      `json:"height"`               // Page height in pixels
	Confidence float64  `json:"confidence,omitempty"` // Recognition confidence (0-1)
	Languages  []string `json:"languages,omitempty"`  // Detected language codes
	Blocks     []*Block `json:"blocks"`               // Layout blocks on this page
}

// Block is a logical area of text on a page
type Block struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	BlockType   string       `json:"blockType,omitempty"`  // TEXT, TABLE, PICTURE...
	Confidence  float64      `json:"confidence,omitempty"` // Recognition confidence (0-1)
	Paragraphs  []*Paragraph `json:"paragraphs"`
}

// Paragraph is a run of words inside a block
type Paragraph struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Confidence  float64      `json:"confidence,omitempty"`
	Words       []*Word      `json:"words"`
}

// Word is a recognized word made of symbols
type Word struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Confidence  float64      `json:"confidence,omitempty"`
	Symbols     []*Symbol    `json:"symbols"`

	// Content holds the word text for engines that do not report symbols.
	// When symbols are present they take precedence.
	Content string `json:"content,omitempty"`
}

// Symbol is a single recognized character
type Symbol struct {
	BoundingBox BoundingPoly `json:"boundingBox"`
	Confidence  float64      `json:"confidence,omitempty"`
	Text        string       `json:"text"`
	Break       BreakType    `json:"break,omitempty"` // Break detected after this symbol
}

// BreakType describes whitespace that follows a symbol
type BreakType string

const (
	BreakNone         BreakType = ""
	BreakSpace        BreakType = "SPACE"
	BreakSureSpace    BreakType = "SURE_SPACE"
	BreakEOLSureSpace BreakType = "EOL_SURE_SPACE"
	BreakHyphen       BreakType = "HYPHEN"
	BreakLine         BreakType = "LINE_BREAK"
)

// BoundingPoly is an ordered sequence of vertices in pixel coordinates
type BoundingPoly struct {
	Vertices []Vertex `json:"vertices"`
}

// Vertex is a 2D point in pixel coordinates
type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NewBoundingBox creates the four-vertex polygon of an axis-aligned rectangle
// Vertices are clockwise starting at the top-left corner
func NewBoundingBox(x1, y1, x2, y2 int) BoundingPoly {
	return BoundingPoly{Vertices: []Vertex{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}}
}

// Rect returns the axis-aligned extent of the polygon.
// ok is false for a polygon without vertices.
func (p BoundingPoly) Rect() (x1, y1, x2, y2 int, ok bool) {
	if len(p.Vertices) == 0 {
		return 0, 0, 0, 0, false
	}
	x1, y1 = p.Vertices[0].X, p.Vertices[0].Y
	x2, y2 = x1, y1
	for _, v := range p.Vertices[1:] {
		x1 = min(x1, v.X)
		y1 = min(y1, v.Y)
		x2 = max(x2, v.X)
		y2 = max(y2, v.Y)
	}
	return x1, y1, x2, y2, true
}

// Text returns the word text without trailing whitespace
func (w *Word) Text() string {
	if w == nil {
		return ""
	}
	if len(w.Symbols) == 0 {
		return w.Content
	}
	var sb strings.Builder
	for _, s := range w.Symbols {
		if s != nil {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// Text returns the paragraph text, honouring detected breaks between symbols
func (p *Paragraph) Text() string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	for _, w := range p.Words {
		if w == nil {
			continue
		}
		sb.WriteString(w.Text())
		brk := BreakSpace
		if n := len(w.Symbols); n > 0 && w.Symbols[n-1] != nil {
			brk = w.Symbols[n-1].Break
		}
		switch brk {
		case BreakLine, BreakEOLSureSpace:
			sb.WriteString("\n")
		case BreakSpace, BreakSureSpace:
			sb.WriteString(" ")
		case BreakHyphen:
			sb.WriteString("-\n")
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// Text returns the block text with paragraphs separated by newlines
func (b *Block) Text() string {
	if b == nil {
		return ""
	}
	parts := make([]string, 0, len(b.Paragraphs))
	for _, p := range b.Paragraphs {
		if p != nil {
			parts = append(parts, strings.TrimRight(p.Text(), "\n"))
		}
	}
	return strings.Join(parts, "\n")
}
