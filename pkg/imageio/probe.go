package imageio

import "fmt"

// Measure reports the exact size in bytes of the payload that would be sent
// for img. For crops this encodes the image once; the bytes are kept for
// the request that follows.
func Measure(img *Image) (int64, error) {
	data, err := img.Encoded()
	if err != nil {
		return 0, fmt.Errorf("failed to measure image: %w", err)
	}
	return int64(len(data)), nil
}
