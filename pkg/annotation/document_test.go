package annotation

import (
	"errors"
	"testing"
)

func TestFlatten(t *testing.T) {
	left := loadFixture(t, "left_response.json")
	right := loadFixture(t, "right_response.json")
	merged, err := Merge(84, left, right, Horizontal)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	flat := merged.Flatten(204, 90)
	if len(flat.Pages) != 1 {
		t.Fatalf("expected a single page, got %d", len(flat.Pages))
	}
	page := flat.Pages[0]
	if page.Width != 204 || page.Height != 90 {
		t.Fatalf("unexpected page size %dx%d", page.Width, page.Height)
	}
	if len(page.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(page.Blocks))
	}
	if len(page.Languages) != 1 || page.Languages[0] != "en" {
		t.Fatalf("languages not deduplicated: %v", page.Languages)
	}

	// Flatten must not share blocks with its input.
	page.Blocks[0].BoundingBox.Vertices[0].X = -1
	if merged.Pages[0].Blocks[0].BoundingBox.Vertices[0].X == -1 {
		t.Fatalf("flattened document shares memory with its source")
	}
}

func TestPlainText(t *testing.T) {
	doc := loadFixture(t, "left_response.json")
	if got := doc.PlainText(); got != "Large scan" {
		t.Fatalf("PlainText() = %q", got)
	}

	doc = &Document{Pages: []*Page{{Blocks: []*Block{{Paragraphs: []*Paragraph{{Words: []*Word{
		{Content: "no"},
		{Content: "symbols"},
	}}}}}}}}
	if got := doc.PlainText(); got != "no symbols" {
		t.Fatalf("PlainText() without symbols = %q", got)
	}
}

func TestWordsAndRect(t *testing.T) {
	doc := loadFixture(t, "right_response.json")
	words := doc.Words()
	if len(words) != 2 || words[1].Text() != "legend" {
		t.Fatalf("unexpected words: %d", len(words))
	}
	x1, y1, x2, y2, ok := words[1].BoundingBox.Rect()
	if !ok || x1 != 41 || y1 != 20 || x2 != 101 || y2 != 32 {
		t.Fatalf("Rect() = %d %d %d %d %v", x1, y1, x2, y2, ok)
	}
	if _, _, _, _, ok := (BoundingPoly{}).Rect(); ok {
		t.Fatalf("empty polygon must not report a rect")
	}
}

func TestAxisText(t *testing.T) {
	var a Axis
	if err := a.UnmarshalText([]byte("Vertical")); err != nil || a != Vertical {
		t.Fatalf("UnmarshalText() = %v, %v", a, err)
	}
	if err := a.UnmarshalText([]byte("diagonal")); !errors.Is(err, ErrInvalidAxis) {
		t.Fatalf("expected ErrInvalidAxis, got %v", err)
	}
	if b, err := Horizontal.MarshalText(); err != nil || string(b) != "horizontal" {
		t.Fatalf("MarshalText() = %s, %v", b, err)
	}
	if _, err := Axis(0).MarshalText(); !errors.Is(err, ErrInvalidAxis) {
		t.Fatalf("expected ErrInvalidAxis for zero axis, got %v", err)
	}
	if Horizontal.Other() != Vertical || Vertical.Other() != Horizontal {
		t.Fatalf("Other() is not symmetric")
	}
}
