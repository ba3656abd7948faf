package annotation

import (
	"fmt"
)

// Merge combines the annotations of two sibling sub-images into one.
//
// a is the annotation of the first sub-image, which is anchored at the origin
// of the split image, and is left untouched. b is the annotation of the second
// sub-image; every vertex of every bounding box in a copy of b is moved by
// offset along axis (x for Horizontal, y for Vertical).
//
// The pages of the shifted copy are appended after the pages of a and the
// full text is concatenated in the same order. Elements that were recognized
// in the overlap band of both halves are kept twice.
//
// Neither input is modified. Merging with a nil or empty b returns a.
func Merge(offset int, a, b *Document, axis Axis) (*Document, error) {
	if !axis.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis))
	}
	if b.IsEmpty() {
		return a, nil
	}

	shifted := b.Clone()
	if axis == Horizontal {
		shifted.Translate(offset, 0)
	} else {
		shifted.Translate(0, offset)
	}
	if a == nil {
		return shifted, nil
	}

	merged := a.Clone()
	merged.Text += shifted.Text
	merged.Pages = append(merged.Pages, shifted.Pages...)
	return merged, nil
}

// IsEmpty reports whether the document carries neither pages nor text
func (d *Document) IsEmpty() bool {
	return d == nil || (len(d.Pages) == 0 && d.Text == "")
}

// Translate moves every vertex in the document by (dx, dy) in place
func (d *Document) Translate(dx, dy int) {
	if d == nil {
		return
	}
	// nil elements are kept by Clone and skipped here
	for _, page := range d.Pages {
		if page == nil {
			continue
		}
		for _, block := range page.Blocks {
			if block == nil {
				continue
			}
			block.BoundingBox.translate(dx, dy)
			for _, para := range block.Paragraphs {
				if para == nil {
					continue
				}
				para.BoundingBox.translate(dx, dy)
				for _, word := range para.Words {
					if word == nil {
						continue
					}
					word.BoundingBox.translate(dx, dy)
					for _, sym := range word.Symbols {
						if sym != nil {
							sym.BoundingBox.translate(dx, dy)
						}
					}
				}
			}
		}
	}
}

func (p *BoundingPoly) translate(dx, dy int) {
	for i := range p.Vertices {
		p.Vertices[i].X += dx
		p.Vertices[i].Y += dy
	}
}
