// Package partition decides how an image that exceeds an OCR payload budget
// is divided into pieces that fit.
//
// Split computes the two overlapping halves of a region along an axis.
// Partitioner.Plan applies it recursively and records the result as an
// explicit Tree, so the OCR calls and the merge order are known before any
// request is made.
package partition
