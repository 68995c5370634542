package pngdec

import "github.com/aplefull/vexel/internal/info"

// unfilterRow reverses one of the five PNG filter types in place. prev is
// the previously reconstructed row (all zero for the first row of a pass),
// cur holds the filtered bytes on entry and the reconstructed bytes on
// exit. bpp is the number of bytes per whole pixel, or 1 if a pixel is
// narrower than a byte. A filter type outside 0-4 is treated as None (left
// unmodified) and recorded as a note, rather than failing the row.
func unfilterRow(filterType byte, cur, prev []byte, bpp int, meta *info.Info) {
	switch filterType {
	case 0: // None
	case 1: // Sub
		for i := bpp; i < len(cur); i++ {
			cur[i] += cur[i-bpp]
		}
	case 2: // Up
		if prev != nil {
			for i := range cur {
				cur[i] += prev[i]
			}
		}
	case 3: // Average
		for i := range cur {
			var a, b int
			if i >= bpp {
				a = int(cur[i-bpp])
			}
			if prev != nil {
				b = int(prev[i])
			}
			cur[i] += byte((a + b) / 2)
		}
	case 4: // Paeth
		for i := range cur {
			var a, b, c int
			if i >= bpp {
				a = int(cur[i-bpp])
			}
			if prev != nil {
				b = int(prev[i])
			}
			if i >= bpp && prev != nil {
				c = int(prev[i-bpp])
			}
			cur[i] += paeth(a, b, c)
		}
	default:
		meta.Note("invalid filter byte %d, treated as None", filterType)
	}
}

func paeth(a, b, c int) byte {
	p := a + b - c
	pa := abs(p - a)
	pb := abs(p - b)
	pc := abs(p - c)
	switch {
	case pa <= pb && pa <= pc:
		return byte(a)
	case pb <= pc:
		return byte(b)
	default:
		return byte(c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// bytesPerPixel returns the whole-byte footprint of one pixel for filter
// purposes; sub-byte depths (1/2/4-bit grayscale/indexed) still use 1, since
// the PNG filter algorithms operate on whole bytes regardless of bit depth.
func bytesPerPixel(channels, bitDepth int) int {
	bpp := (channels*bitDepth + 7) / 8
	if bpp < 1 {
		return 1
	}
	return bpp
}

// unfilterPass reverses filtering across every scanline of one pass (the
// whole image for non-interlaced PNGs, or one Adam7 pass). rowBytes is the
// filtered-row width in bytes, not counting the leading filter-type byte.
// Each reconstructed row is handed to rowFn in a buffer borrowed from
// bytePool; the buffer is only valid for the duration of the call, so rowFn
// must copy out anything it needs to keep. Returns the number of rows
// reconstructed before the stream ran out, if it ran out mid-pass; an
// invalid filter byte does not stop the pass, only the row it appears on.
func unfilterPass(data []byte, rowBytes, rows, bpp int, meta *info.Info, rowFn func(row []byte)) int {
	var prev []byte
	pos := 0
	for r := 0; r < rows; r++ {
		if pos+1+rowBytes > len(data) {
			releaseBuffer(prev)
			return r
		}
		ft := data[pos]
		cur := borrowBuffer(rowBytes)
		copy(cur, data[pos+1:pos+1+rowBytes])
		pos += 1 + rowBytes
		unfilterRow(ft, cur, prev, bpp, meta)
		rowFn(cur)
		releaseBuffer(prev)
		prev = cur
	}
	releaseBuffer(prev)
	return rows
}
