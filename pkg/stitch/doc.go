// Package stitch runs OCR on images larger than an engine accepts.
//
// The Invoker plans a split tree with package partition, sends one request
// per leaf through an engine.Engine (concurrently, up to a limit) and merges
// the leaf annotations bottom-up with annotation.Merge, so the result has
// the coordinates of the full image. A single failing leaf fails the whole
// image with a *BranchError naming the leaf.
//
// Basic usage:
//
//	iv := stitch.New(eng, stitch.WithMaxMegabytes(20), stitch.WithOverlap(0.25))
//	doc, err := iv.Invoke(ctx, "scan.tiff")
package stitch
