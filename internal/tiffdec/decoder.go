// Package tiffdec implements a baseline uncompressed TIFF reader: endian
// detection, IFD walking, and strip concatenation for grayscale, RGB, and
// RGBA images.
package tiffdec

import (
	"encoding/binary"
	"fmt"

	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "tiffdec: " + e.Detail }

type ErrUnsupportedFeature struct{ Feature string }

func (e *ErrUnsupportedFeature) Error() string { return "tiffdec: unsupported feature: " + e.Feature }

type Options struct {
	MaxPixels int64
}

const defaultMaxPixels = 1 << 28

// Decode runs the full TIFF decode pipeline over data. Only Compression==1
// (none) is supported; other compression schemes report
// ErrUnsupportedFeature rather than guessing at pixels.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatTIFF)

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

	if len(data) < 8 {
		return nil, meta, &ErrStructural{Detail: "too short for a TIFF header"}
	}
	var bo byteOrder
	switch {
	case data[0] == 'I' && data[1] == 'I':
		bo = binary.LittleEndian
	case data[0] == 'M' && data[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, meta, &ErrStructural{Detail: "missing byte order mark"}
	}
	if bo.Uint16(data[2:4]) != 42 {
		return nil, meta, &ErrStructural{Detail: "bad TIFF magic number"}
	}
	firstIFD := int(bo.Uint32(data[4:8]))

	entries, _, ok := readIFD(data, firstIFD, bo)
	if !ok || len(entries) == 0 {
		return nil, meta, &ErrStructural{Detail: "missing or malformed IFD"}
	}

	widthEntry, hasWidth := findEntry(entries, tagImageWidth)
	heightEntry, hasHeight := findEntry(entries, tagImageLength)
	if !hasWidth || !hasHeight {
		return nil, meta, &ErrStructural{Detail: "IFD missing image dimensions"}
	}
	width := int(firstOf(widthEntry.values(data, bo)))
	height := int(firstOf(heightEntry.values(data, bo)))
	if width <= 0 || height <= 0 {
		return nil, meta, &ErrStructural{Detail: "non-positive image dimensions"}
	}

	compression := 1
	if e, ok := findEntry(entries, tagCompression); ok {
		compression = int(firstOf(e.values(data, bo)))
	}
	if compression != 1 {
		return nil, meta, &ErrUnsupportedFeature{Feature: fmt.Sprintf("compression scheme %d", compression)}
	}

	samplesPerPixel := 1
	if e, ok := findEntry(entries, tagSamplesPerPixel); ok {
		samplesPerPixel = int(firstOf(e.values(data, bo)))
	}
	bitsPerSample := 8
	if e, ok := findEntry(entries, tagBitsPerSample); ok {
		vals := e.values(data, bo)
		if len(vals) > 0 {
			bitsPerSample = int(vals[0])
		}
	}
	photometric := 1
	if e, ok := findEntry(entries, tagPhotometric); ok {
		photometric = int(firstOf(e.values(data, bo)))
	}
	planarConfig := 1
	if e, ok := findEntry(entries, tagPlanarConfig); ok {
		planarConfig = int(firstOf(e.values(data, bo)))
	}
	if planarConfig != 1 {
		return nil, meta, &ErrUnsupportedFeature{Feature: "planar (non-chunky) sample layout"}
	}
	if bitsPerSample != 8 {
		return nil, meta, &ErrUnsupportedFeature{Feature: fmt.Sprintf("%d-bit samples", bitsPerSample)}
	}

	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = defaultMaxPixels
	}
	if raster.WouldOverflow(int64(width), int64(height), int64(samplesPerPixel)) || int64(width)*int64(height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	offsetsEntry, hasOffsets := findEntry(entries, tagStripOffsets)
	countsEntry, hasCounts := findEntry(entries, tagStripByteCounts)
	if !hasOffsets || !hasCounts {
		return nil, meta, &ErrStructural{Detail: "missing strip offsets or byte counts"}
	}
	offsets := offsetsEntry.values(data, bo)
	counts := countsEntry.values(data, bo)
	rowsPerStrip := height
	if e, ok := findEntry(entries, tagRowsPerStrip); ok {
		if v := firstOf(e.values(data, bo)); v > 0 {
			rowsPerStrip = int(v)
		}
	}

	kind := kindForTIFF(samplesPerPixel, photometric)
	img = raster.New(kind, width, height)
	spp := kind.SamplesPerPixel()
	rowBytes := width * spp

	row := 0
	for i := 0; i < len(offsets) && i < len(counts) && row < height; i++ {
		off, n := int(offsets[i]), int(counts[i])
		if off < 0 || off+n > len(data) {
			meta.Note("strip data out of bounds, stopping")
			break
		}
		strip := data[off : off+n]
		stripRows := rowsPerStrip
		if row+stripRows > height {
			stripRows = height - row
		}
		need := stripRows * rowBytes
		if need > len(strip) {
			meta.Note("truncated strip data")
			need = len(strip) - len(strip)%rowBytes
		}
		copy(img.Samples[row*rowBytes:], strip[:need])
		row += stripRows
	}
	if row < height {
		meta.Note("fewer strips than declared height, remaining rows left blank")
	}

	if photometric == 0 {
		invertGray(img)
	}

	meta.Width, meta.Height = width, height
	meta.BitDepth = bitsPerSample
	meta.ColorType = colorTypeForTIFF(samplesPerPixel, photometric)
	meta.FrameCount = 1
	meta.Set("Photometric", photometric)
	return img, meta, nil
}

func firstOf(v []uint32) uint32 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func kindForTIFF(samplesPerPixel, photometric int) raster.Kind {
	switch samplesPerPixel {
	case 1:
		return raster.KindL8
	case 2:
		return raster.KindLA8
	case 4:
		return raster.KindRGBA8
	default:
		return raster.KindRGB8
	}
}

func colorTypeForTIFF(samplesPerPixel, photometric int) info.ColorType {
	switch samplesPerPixel {
	case 1:
		return info.ColorGrayscale
	case 2:
		return info.ColorGrayscaleAlpha
	case 4:
		return info.ColorRGBA
	default:
		return info.ColorRGB
	}
}

// invertGray flips WhiteIsZero photometric samples so 0 always means black,
// matching every other Vexel decoder's convention.
func invertGray(img *raster.Image) {
	for i, v := range img.Samples {
		img.Samples[i] = 255 - v
	}
}
