// Package bmpdec implements the Windows/OS2 BMP decoder: the file header
// and DIB header family (core/info/V2/V3/V4/V5), palette handling, RLE4/RLE8
// decompression, packed and bitfield-masked direct color, and bottom-up or
// top-down row order.
package bmpdec

import (
	"fmt"

	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "bmpdec: " + e.Detail }

type ErrUnsupportedFeature struct{ Feature string }

func (e *ErrUnsupportedFeature) Error() string { return "bmpdec: unsupported feature: " + e.Feature }

type Options struct {
	MaxPixels int64
}

const defaultMaxPixels = 1 << 28

// Decode runs the full BMP decode pipeline over data.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatBMP)

	defer func() {
		if r := recover(); r != nil {
			if img == nil {
				err = &ErrStructural{Detail: fmt.Sprintf("recovered from internal error: %v", r)}
				return
			}
			meta.Note("recovered from internal error while finishing decode")
			err = nil
		}
	}()

	if len(data) < 14 || data[0] != 'B' || data[1] != 'M' {
		return nil, meta, &ErrStructural{Detail: "missing BM signature"}
	}
	pixelOffset := int(le32(data[10:14]))

	if len(data) < 14+4 {
		return nil, meta, &ErrStructural{Detail: "truncated DIB header"}
	}
	hdr, ok := parseDIBHeader(data[14:])
	if !ok {
		return nil, meta, &ErrStructural{Detail: "malformed DIB header"}
	}
	if hdr.width <= 0 || hdr.height <= 0 {
		return nil, meta, &ErrStructural{Detail: "non-positive image dimensions"}
	}
	if hdr.compression == compJPEG || hdr.compression == compPNG {
		return nil, meta, &ErrUnsupportedFeature{Feature: "embedded JPEG/PNG payload"}
	}

	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = defaultMaxPixels
	}
	if raster.WouldOverflow(int64(hdr.width), int64(hdr.height), 4) || int64(hdr.width)*int64(hdr.height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	dibEnd := 14 + hdr.size
	paletteBytes := 0
	entrySize := 4
	if hdr.size == 12 {
		entrySize = 3
	}
	var palette raster.Palette
	if hdr.bitCount <= 8 {
		clrUsed := hdr.clrUsed
		if clrUsed == 0 {
			meta.Note("clrUsed is zero, defaulting to full palette for this bit depth")
			clrUsed = 1 << uint(hdr.bitCount)
		}
		paletteBytes = clrUsed * entrySize
		if dibEnd+paletteBytes > len(data) {
			meta.Note("truncated color table")
			paletteBytes = max0(len(data) - dibEnd)
		}
		palette = parseBMPPalette(data[dibEnd:dibEnd+paletteBytes], entrySize)
	}

	if pixelOffset <= 0 || pixelOffset > len(data) {
		meta.Note("invalid pixel data offset, using end of color table")
		pixelOffset = dibEnd + paletteBytes
	}
	pixelData := data[min(pixelOffset, len(data)):]

	rMask, gMask, bMask := hdr.rMask, hdr.gMask, hdr.bMask
	if hdr.compression != compBitfields && hdr.compression != compAlphaBitfields && !hdr.hasAlphaMask {
		rMask, gMask, bMask = defaultMasksFor(hdr.bitCount)
	}
	rInfo, gInfo, bInfo := analyzeMask(rMask), analyzeMask(gMask), analyzeMask(bMask)
	aInfo := analyzeMask(hdr.aMask)

	switch {
	case hdr.compression == compRLE8 && hdr.bitCount == 8:
		indices, truncated := decodeRLE(pixelData, hdr.width, hdr.height, false)
		if truncated {
			meta.Note("truncated RLE8 data")
		}
		img = buildIndexedImage(hdr, indices, palette)

	case hdr.compression == compRLE4 && hdr.bitCount == 4:
		indices, truncated := decodeRLE(pixelData, hdr.width, hdr.height, true)
		if truncated {
			meta.Note("truncated RLE4 data")
		}
		img = buildIndexedImage(hdr, indices, palette)

	case hdr.bitCount == 1, hdr.bitCount == 4, hdr.bitCount == 8:
		img, err = decodeUncompressedIndexed(hdr, pixelData, palette, meta)

	case hdr.bitCount == 16 || hdr.bitCount == 24 || hdr.bitCount == 32:
		img, err = decodeUncompressedDirect(hdr, pixelData, rInfo, gInfo, bInfo, aInfo, meta)

	case hdr.bitCount == 64:
		img, err = decodeUncompressedDirect64(hdr, pixelData, meta)

	default:
		return nil, meta, &ErrUnsupportedFeature{Feature: fmt.Sprintf("%d-bit depth", hdr.bitCount)}
	}
	if err != nil {
		return nil, meta, err
	}
	if verr := img.Validate(); verr != nil {
		return nil, meta, &ErrStructural{Detail: verr.Error()}
	}

	meta.Width, meta.Height = hdr.width, hdr.height
	meta.BitDepth = hdr.bitCount
	if hdr.bitCount <= 8 {
		meta.ColorType = info.ColorIndexed
	} else if img.Kind == raster.KindRGBA8 || img.Kind == raster.KindRGBA16 {
		meta.ColorType = info.ColorRGBA
	} else {
		meta.ColorType = info.ColorRGB
	}
	meta.FrameCount = 1
	meta.Set("Compression", compressionName(hdr.compression))
	return img, meta, nil
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func compressionName(c int) string {
	switch c {
	case compRGB:
		return "RGB"
	case compRLE8:
		return "RLE8"
	case compRLE4:
		return "RLE4"
	case compBitfields:
		return "Bitfields"
	case compAlphaBitfields:
		return "AlphaBitfields"
	default:
		return "Unknown"
	}
}

func parseBMPPalette(data []byte, entrySize int) raster.Palette {
	n := len(data) / entrySize
	pal := make(raster.Palette, n)
	for i := 0; i < n; i++ {
		off := i * entrySize
		pal[i] = raster.RGBA{B: data[off], G: data[off+1], R: data[off+2], A: 255}
	}
	return pal
}

func rowStride(width, bitCount int) int {
	bitsPerRow := width * bitCount
	bytes := (bitsPerRow + 7) / 8
	return (bytes + 3) &^ 3
}

// rowOrder returns the y coordinates to read pixel rows in, from the first
// row of file data to the last: BMP stores rows bottom-up by default.
func rowOrder(hdr dibHeader) []int {
	order := make([]int, hdr.height)
	if hdr.topDown {
		for i := range order {
			order[i] = i
		}
	} else {
		for i := range order {
			order[i] = hdr.height - 1 - i
		}
	}
	return order
}

func buildIndexedImage(hdr dibHeader, indices []byte, palette raster.Palette) *raster.Image {
	img := raster.NewIndexed(hdr.width, hdr.height, palette)
	// decodeRLE already produced a buffer in file row order via its own y
	// cursor driven by end-of-line escapes, but BMP's row 0 is the bottom
	// row unless the header says otherwise; flip here if needed.
	if hdr.topDown {
		copy(img.Samples, indices)
	} else {
		for y := 0; y < hdr.height; y++ {
			src := (hdr.height - 1 - y) * hdr.width
			dst := y * hdr.width
			copy(img.Samples[dst:dst+hdr.width], indices[src:src+hdr.width])
		}
	}
	img.ClampIndices()
	return img
}

func decodeUncompressedIndexed(hdr dibHeader, data []byte, palette raster.Palette, meta *info.Info) (*raster.Image, error) {
	stride := rowStride(hdr.width, hdr.bitCount)
	img := raster.NewIndexed(hdr.width, hdr.height, palette)
	order := rowOrder(hdr)
	for dstY, srcY := range order {
		start := srcY * stride
		if start+stride > len(data) {
			meta.Note("truncated pixel data, stopping short of declared height")
			break
		}
		row := unpackIndexRow(data[start:start+stride], hdr.bitCount, hdr.width)
		copy(img.Samples[dstY*hdr.width:], row)
	}
	img.ClampIndices()
	return img, nil
}

// decodeUncompressedDirect64 handles 64-bit-per-pixel BMP: four 16-bit
// little-endian channels per pixel in B,G,R,A order, the same channel order
// the 24/32-bit direct-color path defaults to. Bitfield masks aren't used
// at this depth; every 64bpp encoder vexel has seen stores full-width
// samples with no packing to unmask.
func decodeUncompressedDirect64(hdr dibHeader, data []byte, meta *info.Info) (*raster.Image, error) {
	stride := rowStride(hdr.width, hdr.bitCount)
	img := raster.New(raster.KindRGBA16, hdr.width, hdr.height)

	order := rowOrder(hdr)
	for dstY, srcY := range order {
		start := srcY * stride
		if start+stride > len(data) {
			meta.Note("truncated pixel data, stopping short of declared height")
			break
		}
		row := data[start : start+stride]
		for x := 0; x < hdr.width; x++ {
			off := x * 8
			if off+8 > len(row) {
				break
			}
			b := le16(row[off : off+2])
			g := le16(row[off+2 : off+4])
			r := le16(row[off+4 : off+6])
			a := le16(row[off+6 : off+8])
			outOff := (dstY*hdr.width + x) * 8
			img.Samples[outOff] = byte(r >> 8)
			img.Samples[outOff+1] = byte(r)
			img.Samples[outOff+2] = byte(g >> 8)
			img.Samples[outOff+3] = byte(g)
			img.Samples[outOff+4] = byte(b >> 8)
			img.Samples[outOff+5] = byte(b)
			img.Samples[outOff+6] = byte(a >> 8)
			img.Samples[outOff+7] = byte(a)
		}
	}
	return img, nil
}

func decodeUncompressedDirect(hdr dibHeader, data []byte, rInfo, gInfo, bInfo, aInfo maskInfo, meta *info.Info) (*raster.Image, error) {
	bytesPerPixel := hdr.bitCount / 8
	stride := rowStride(hdr.width, hdr.bitCount)
	hasAlpha := aInfo.bits > 0

	kind := raster.KindRGB8
	if hasAlpha {
		kind = raster.KindRGBA8
	}
	img := raster.New(kind, hdr.width, hdr.height)
	spp := kind.SamplesPerPixel()

	order := rowOrder(hdr)
	for dstY, srcY := range order {
		start := srcY * stride
		if start+stride > len(data) {
			meta.Note("truncated pixel data, stopping short of declared height")
			break
		}
		row := data[start : start+stride]
		for x := 0; x < hdr.width; x++ {
			off := x * bytesPerPixel
			if off+bytesPerPixel > len(row) {
				break
			}
			var pixel uint32
			for i := 0; i < bytesPerPixel; i++ {
				pixel |= uint32(row[off+i]) << uint(i*8)
			}
			outOff := (dstY*hdr.width + x) * spp
			img.Samples[outOff] = extractChannel(pixel, rInfo)
			img.Samples[outOff+1] = extractChannel(pixel, gInfo)
			img.Samples[outOff+2] = extractChannel(pixel, bInfo)
			if hasAlpha {
				img.Samples[outOff+3] = extractChannel(pixel, aInfo)
			}
		}
	}
	return img, nil
}
