// Package imageio is the image I/O capability used by the partitioner: it
// loads encoded images from files, http(s) URLs and Cloud Storage, crops
// rectangular regions without copying pixels and measures the exact encoded
// size of every region.
//
// JPEG, PNG and GIF are decoded by the standard library; TIFF, BMP and WebP
// by golang.org/x/image. Crops of JPEG and TIFF images stay in their source
// format, everything else is written as PNG. JPEG crops are encoded at no
// more than the quality of their source.
package imageio
