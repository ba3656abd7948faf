package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNoSubImage is returned when a decoded image cannot be cropped without copying
var ErrNoSubImage = errors.New("image does not support sub-image")

// ErrEmptyRegion is returned when a crop rectangle does not intersect the image
var ErrEmptyRegion = errors.New("region outside image bounds")

// DefaultJPEGQuality is used when re-encoding JPEG crops
const DefaultJPEGQuality = 90

// Options control how crops are encoded
type Options struct {
	// Quality for JPEG crops (1-100). Crops of a JPEG source never exceed the
	// quality estimated from its quantization tables, so a crop stays smaller
	// than its source.
	JPEGQuality int
}

// DefaultOptions returns the encoding defaults
func DefaultOptions() Options {
	return Options{JPEGQuality: DefaultJPEGQuality}
}

// Image is a raster together with the encoded form that is sent to an OCR engine.
//
// The root image keeps the bytes it was loaded from, so its encoded size is
// exact without re-encoding. Crops share the decoded pixels of the root and
// encode themselves on first use; the encoding is cached and is the exact
// payload later transmitted.
type Image struct {
	bounds image.Rectangle
	format string
	mime   string
	opts   Options

	pixels  func() (image.Image, error)
	encoded func() ([]byte, error)
}

// Decode reads the header of an encoded image and prepares it for cropping.
// Pixel data is only decoded when the image is first cropped.
func Decode(data []byte, opts Options) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if format == "jpeg" {
		if q, ok := EstimateJPEGQuality(data); ok {
			opts.JPEGQuality = min(opts.JPEGQuality, q)
		}
	}

	raw := data
	return &Image{
		bounds: image.Rect(0, 0, cfg.Width, cfg.Height),
		format: format,
		mime:   "image/" + format,
		opts:   opts,
		pixels: sync.OnceValues(func() (image.Image, error) {
			img, _, err := image.Decode(bytes.NewReader(raw))
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
			}
			return img, nil
		}),
		encoded: func() ([]byte, error) { return raw, nil },
	}, nil
}

// FromImage wraps an already decoded raster. It is encoded in format on demand.
func FromImage(img image.Image, format string, opts Options) *Image {
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	im := &Image{
		bounds: img.Bounds(),
		format: format,
		opts:   opts,
		pixels: func() (image.Image, error) { return img, nil },
	}
	im.mime = "image/" + im.encodeFormat()
	im.encoded = sync.OnceValues(func() ([]byte, error) { return im.encode(img) })
	return im
}

// Bounds returns the region covered by the image in the coordinates of the
// image it was cropped from
func (im *Image) Bounds() image.Rectangle { return im.bounds }

// Width returns the width in pixels
func (im *Image) Width() int { return im.bounds.Dx() }

// Height returns the height in pixels
func (im *Image) Height() int { return im.bounds.Dy() }

// Format returns the name of the source format (jpeg, png, tiff...)
func (im *Image) Format() string { return im.format }

// MIMEType returns the content type of the encoded payload
func (im *Image) MIMEType() string { return im.mime }

// Encoded returns the bytes that represent this image on the wire
func (im *Image) Encoded() ([]byte, error) {
	return im.encoded()
}

// Crop returns the part of the image inside r, which is given in the same
// coordinates as Bounds. The crop shares pixels with its parent.
func (im *Image) Crop(r image.Rectangle) (*Image, error) {
	r = r.Intersect(im.bounds)
	if r.Empty() {
		return nil, ErrEmptyRegion
	}
	if r == im.bounds {
		return im, nil
	}

	src, err := im.pixels()
	if err != nil {
		return nil, err
	}
	sub, ok := src.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, ErrNoSubImage
	}

	// Sub-images keep the coordinates of their parent, so r applies unchanged
	// at any depth of cropping.
	cropped := sub.SubImage(r)
	out := &Image{
		bounds: r,
		format: im.format,
		mime:   "image/" + im.encodeFormat(),
		opts:   im.opts,
		pixels: func() (image.Image, error) { return cropped, nil },
	}
	out.encoded = sync.OnceValues(func() ([]byte, error) { return out.encode(cropped) })
	return out, nil
}

// encodeFormat maps the source format to the format crops are written in.
// Formats without an encoder are written as PNG.
func (im *Image) encodeFormat() string {
	switch im.format {
	case "jpeg", "tiff":
		return im.format
	default:
		return "png"
	}
}

func (im *Image) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := im.encodeTo(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode %s crop: %w", im.encodeFormat(), err)
	}
	return buf.Bytes(), nil
}

func (im *Image) encodeTo(w io.Writer, img image.Image) error {
	switch im.encodeFormat() {
	case "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: im.opts.JPEGQuality})
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return png.Encode(w, img)
	}
}

// Reencode writes the whole image in a format the PDF writer accepts (JPEG
// or PNG) and returns the bytes with the format name.
func (im *Image) Reencode() ([]byte, string, error) {
	switch im.format {
	case "jpeg", "png":
		data, err := im.Encoded()
		return data, im.format, err
	}
	src, err := im.pixels()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, "", fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), "png", nil
}
