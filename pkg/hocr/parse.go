package hocr

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var charsetPattern = regexp.MustCompile(`(?i)charset=["']?([a-z0-9_-]+)`)

// charsets maps the single-byte encodings seen in hOCR output to decoders
var charsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

// Parse converts raw hOCR data into a structured HOCR object.
// Documents declaring a Latin-1 or Windows-1252 charset are decoded first.
func Parse(data []byte) (*HOCR, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	result := &HOCR{Metadata: make(map[string]string)}
	extractDocumentMeta(result, root)

	for _, n := range findClass(root, "ocr_page") {
		result.Pages = append(result.Pages, parsePage(n))
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

func decode(data []byte) ([]byte, error) {
	head := data[:min(len(data), 1024)]
	m := charsetPattern.FindSubmatch(head)
	if m == nil {
		return data, nil
	}
	name := strings.ToLower(string(m[1]))
	if name == "utf-8" || name == "utf8" {
		return data, nil
	}
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported hOCR charset %q", name)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return decoded, nil
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBox extracts the bbox property of a title attribute
func ParseBoundingBox(props map[string][]string) (BoundingBox, bool) {
	v, ok := props["bbox"]
	if !ok || len(v) < 4 {
		return BoundingBox{}, false
	}
	var c [4]int
	for i := range c {
		n, err := strconv.Atoi(v[i])
		if err != nil {
			return BoundingBox{}, false
		}
		c[i] = n
	}
	return NewBoundingBox(c[0], c[1], c[2], c[3]), true
}

// extractDocumentMeta reads the html lang attribute, the title and the
// meta tags of the head section
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "html":
			if lang := attr(n, "lang"); lang != "" {
				result.Language = lang
			} else if lang := attr(n, "xml:lang"); lang != "" {
				result.Language = lang
			}
		case "title":
			if n.FirstChild != nil {
				result.Title = strings.TrimSpace(n.FirstChild.Data)
			}
		case "meta":
			name, content := attr(n, "name"), attr(n, "content")
			switch {
			case name == "" || content == "":
			case strings.HasPrefix(name, "ocr-"):
				result.Metadata[name] = content
			case name == "description":
				result.Description = content
			case name == "dc.language":
				result.Language = content
			}
		case "body":
			return false
		}
		return true
	})
}

func parsePage(n *html.Node) Page {
	props := ParseTitle(attr(n, "title"))
	page := Page{ID: attr(n, "id"), Lang: attr(n, "lang")}
	page.BBox, _ = ParseBoundingBox(props)
	if v := props["image"]; len(v) > 0 {
		page.ImageName = strings.Trim(strings.Join(v, " "), `"`)
	}
	if v := props["ppageno"]; len(v) > 0 {
		page.PageNumber, _ = strconv.Atoi(v[0])
	}

	areas := findClass(n, "ocr_carea")
	if len(areas) == 0 {
		area := Area{Paragraphs: parseParagraphs(n)}
		for _, p := range area.Paragraphs {
			area.BBox = area.BBox.Union(p.BBox)
		}
		page.Areas = []Area{area}
		return page
	}
	for _, a := range areas {
		area := Area{ID: attr(a, "id"), Lang: attr(a, "lang"), Paragraphs: parseParagraphs(a)}
		area.BBox, _ = ParseBoundingBox(ParseTitle(attr(a, "title")))
		page.Areas = append(page.Areas, area)
	}
	return page
}

func parseParagraphs(n *html.Node) []Paragraph {
	pars := findClass(n, "ocr_par")
	if len(pars) == 0 {
		p := Paragraph{Lines: parseLines(n)}
		for _, l := range p.Lines {
			p.BBox = p.BBox.Union(l.BBox)
		}
		return []Paragraph{p}
	}
	out := make([]Paragraph, 0, len(pars))
	for _, pn := range pars {
		p := Paragraph{ID: attr(pn, "id"), Lang: attr(pn, "lang"), Lines: parseLines(pn)}
		p.BBox, _ = ParseBoundingBox(ParseTitle(attr(pn, "title")))
		out = append(out, p)
	}
	return out
}

func parseLines(n *html.Node) []Line {
	lines := findClass(n, lineClasses...)
	if len(lines) == 0 {
		words := parseWords(n)
		if len(words) == 0 {
			return nil
		}
		l := Line{Words: words}
		for _, w := range words {
			l.BBox = l.BBox.Union(w.BBox)
		}
		return []Line{l}
	}
	out := make([]Line, 0, len(lines))
	for _, ln := range lines {
		props := ParseTitle(attr(ln, "title"))
		l := Line{ID: attr(ln, "id"), Lang: attr(ln, "lang"), Words: parseWords(ln)}
		l.BBox, _ = ParseBoundingBox(props)
		if v := props["baseline"]; len(v) > 0 {
			l.Baseline = strings.Join(v, " ")
		}
		out = append(out, l)
	}
	return out
}

func parseWords(n *html.Node) []Word {
	var out []Word
	for _, wn := range findClass(n, "ocrx_word") {
		props := ParseTitle(attr(wn, "title"))
		w := Word{
			ID:   attr(wn, "id"),
			Lang: attr(wn, "lang"),
			Text: strings.TrimSpace(textContent(wn)),
		}
		w.BBox, _ = ParseBoundingBox(props)
		if v := props["x_wconf"]; len(v) > 0 {
			w.Confidence, _ = strconv.ParseFloat(v[0], 64)
		}
		if w.Text != "" {
			out = append(out, w)
		}
	}
	return out
}

// findClass returns the outermost descendants of n carrying one of classes
func findClass(n *html.Node, classes ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(node *html.Node) bool {
			if node.Type == html.ElementNode && hasClass(node, classes) {
				out = append(out, node)
				return false
			}
			return true
		})
	}
	return out
}

func hasClass(n *html.Node, classes []string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if slices.Contains(classes, c) {
			return true
		}
	}
	return false
}

// walk visits n and its descendants in document order; fn returning false
// skips the children of a node
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
