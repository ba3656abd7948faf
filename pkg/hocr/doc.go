// Package hocr parses and generates hOCR, the HTML based format for OCR
// results, and converts between hOCR and the annotation model.
//
// The object model follows the hOCR hierarchy:
// Document → Pages → Areas → Paragraphs → Lines → Words.
// Parsing normalizes the tree: paragraphs outside an area, lines outside a
// paragraph and words outside a line are wrapped in a synthetic parent, so
// every level is always present.
//
// Main Functions:
//
// - Parse: Parses hOCR HTML into the object model
// - Generate: Renders the object model as hOCR HTML
// - FromAnnotation / ToAnnotation: Convert to and from annotation.Document
// - Text: Extracts plain text
package hocr
