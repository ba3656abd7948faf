package imageio

import "math"

// stdLuminanceQuant is the luminance quantization table of the JPEG standard
// (section K.1) in zig-zag order. libjpeg and image/jpeg scale it by quality.
var stdLuminanceQuant = [64]int{
	16, 11, 12, 14, 12, 10, 16, 14,
	13, 14, 18, 17, 16, 19, 24, 40,
	26, 24, 22, 22, 24, 49, 35, 37,
	29, 40, 58, 51, 61, 60, 57, 51,
	56, 55, 64, 72, 92, 78, 64, 68,
	87, 69, 55, 56, 80, 109, 81, 87,
	95, 98, 103, 104, 103, 62, 77, 113,
	121, 112, 100, 120, 92, 101, 103, 99,
}

// EstimateJPEGQuality estimates the quality a JPEG was encoded with by
// comparing its luminance quantization table against the standard table.
// The estimate is exact for encoders using the libjpeg quality scaling with
// qualities from 20 to 99. ok is false when data has no quantization table.
func EstimateJPEGQuality(data []byte) (quality int, ok bool) {
	table, ok := luminanceTable(data)
	if !ok {
		return 0, false
	}
	var sum, std int
	for i, q := range table {
		sum += q
		std += stdLuminanceQuant[i]
	}
	scale := float64(sum*100) / float64(std)
	var q float64
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}
	return min(max(int(math.Round(q)), 1), 100), true
}

// luminanceTable returns quantization table 0 from the DQT segments that
// precede the first scan
func luminanceTable(data []byte) ([]int, bool) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, false
	}
	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return nil, false
		}
		marker := data[i+1]
		switch {
		case marker == 0xFF: // fill byte
			i++
			continue
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7): // no payload
			i += 2
			continue
		case marker == 0xDA || marker == 0xD9: // start of scan, end of image
			return nil, false
		}

		length := int(data[i+2])<<8 | int(data[i+3])
		if length < 2 || i+2+length > len(data) {
			return nil, false
		}
		if marker == 0xDB {
			seg := data[i+4 : i+2+length]
			for len(seg) > 0 {
				precision, id := seg[0]>>4, seg[0]&0x0F
				size := 64
				if precision == 1 {
					size = 128
				}
				if len(seg) < 1+size {
					return nil, false
				}
				if id == 0 {
					table := make([]int, 64)
					for k := range table {
						if precision == 1 {
							table[k] = int(seg[1+2*k])<<8 | int(seg[2+2*k])
						} else {
							table[k] = int(seg[1+k])
						}
					}
					return table, true
				}
				seg = seg[1+size:]
			}
		}
		i += 2 + length
	}
	return nil, false
}
