// Package annotation holds the structured OCR annotation model and the
// merge step that stitches the annotations of two sibling sub-images back
// into the coordinate space of the image they were split from.
//
// The hierarchy is Document → Pages → Blocks → Paragraphs → Words → Symbols.
// Every element carries a bounding polygon in pixel coordinates of the image
// it was recognized on.
//
// Main Functions:
//
// - Merge: Combines two sibling annotations along an axis with an offset
// - Document.Flatten: Folds merged pages back into one page
// - Document.Counts: Counts elements at every level
package annotation
