// Package pngdec implements the PNG/APNG decoder: chunk stream walking,
// IHDR/PLTE/tRNS parsing, zlib inflate of IDAT/fdAT, scanline filter
// reversal, Adam7 deinterlacing, and APNG frame composition.
//
// gomantics-imx/png.go reads the chunk stream far enough to report IHDR
// fields and detect iCCP/eXIf; it never inflates IDAT. That chunk-walking
// shape (length, type, data, discard-the-CRC-but-keep-going) is kept and
// generalized here into a full pixel decoder built on internal/inflate and
// internal/raster.
package pngdec

import (
	"fmt"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/inflate"
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

// ErrStructural indicates the container is unparseable to the point that no
// pixels can be produced.
type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "pngdec: " + e.Detail }

// Options configures a decode call.
type Options struct {
	// MaxPixels bounds width*height; zero means use the
	// package default.
	MaxPixels int64
	// Strict turns integrity recoveries that would otherwise only add a
	// note (a chunk CRC mismatch) into a hard ErrStructural.
	Strict bool
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Decode runs the full PNG/APNG decode pipeline over data.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatPNG)

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

	br := bitio.NewByteReader(data)
	sig, sigErr := br.ReadExact(8)
	if sigErr != nil || !matchesSignature(sig) {
		return nil, meta, &ErrStructural{Detail: "missing PNG signature"}
	}

	chunks, err := readChunks(br, meta, opts.Strict)
	if err != nil {
		return nil, meta, err
	}
	hdr, ok := findIHDR(chunks)
	if !ok {
		return nil, meta, &ErrStructural{Detail: "missing or malformed IHDR chunk"}
	}

	channels := channelsFor(hdr.colorType)
	if channels == 0 {
		meta.Note("unrecognized color type, decoding as RGB")
		hdr.colorType = 2
		channels = 3
	}
	if !validBitDepth(hdr.bitDepth) {
		meta.Note("unrecognized bit depth, defaulting to 8")
		hdr.bitDepth = 8
	}
	switch hdr.colorType {
	case 2, 4, 6:
		if hdr.bitDepth != 8 && hdr.bitDepth != 16 {
			meta.Note("bit depth not valid for this color type, defaulting to 8")
			hdr.bitDepth = 8
		}
	case 3:
		if hdr.bitDepth == 16 {
			meta.Note("indexed color cannot use 16-bit depth, defaulting to 8")
			hdr.bitDepth = 8
		}
	}

	if hdr.width <= 0 || hdr.height <= 0 {
		return nil, meta, &ErrStructural{Detail: "non-positive image dimensions"}
	}
	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = defaultMaxPixels
	}
	if raster.WouldOverflow(int64(hdr.width), int64(hdr.height), int64(channels)*2) ||
		int64(hdr.width)*int64(hdr.height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	var palette raster.Palette
	if p, ok := findChunk(chunks, "PLTE"); ok {
		palette = parsePLTE(p.data)
	}
	if hdr.colorType == 3 && palette == nil {
		meta.Note("indexed image missing PLTE, using empty palette")
		palette = raster.Palette{}
	}

	var trnsGray *uint16
	var trnsRGB *[3]uint16
	if t, ok := findChunk(chunks, "tRNS"); ok {
		switch hdr.colorType {
		case 0:
			if len(t.data) >= 2 {
				v := uint16(t.data[0])<<8 | uint16(t.data[1])
				trnsGray = &v
			}
		case 2:
			if len(t.data) >= 6 {
				var arr [3]uint16
				for i := 0; i < 3; i++ {
					arr[i] = uint16(t.data[i*2])<<8 | uint16(t.data[i*2+1])
				}
				trnsRGB = &arr
			}
		case 3:
			if applyTRNS(t.data, hdr.colorType, palette) {
				meta.Note("tRNS chunk longer than palette, truncated")
			}
		}
	}

	readAncillaryMetadata(chunks, meta)

	loopCount := 0
	isAPNG := false
	if a, ok := findChunk(chunks, "acTL"); ok && len(a.data) >= 8 {
		isAPNG = true
		loopCount = int(be32(a.data[4:8]))
	}

	if isAPNG {
		img, err = decodeAPNG(chunks, hdr, channels, palette, trnsGray, trnsRGB, loopCount, meta)
		if err != nil {
			return nil, meta, err
		}
		meta.Width, meta.Height = hdr.width, hdr.height
		meta.BitDepth = hdr.bitDepth
		meta.ColorType = colorTypeInfo(hdr.colorType, trnsGray != nil, trnsRGB != nil)
		return img, meta, nil
	}

	var idat []byte
	for _, c := range chunks {
		if c.typ == "IDAT" {
			idat = append(idat, c.data...)
		}
	}
	if len(idat) == 0 {
		return nil, meta, &ErrStructural{Detail: "no IDAT chunks present"}
	}

	zr := inflate.Zlib(idat)
	if zr.AdlerChecked && !zr.AdlerMatched {
		meta.Note("zlib Adler-32 checksum mismatch in image data")
	}
	if zr.Truncated {
		meta.Note("inflate stopped before consuming the full compressed stream")
	}

	plane := decodeSamplePlane(hdr, channels, zr.Output, meta)
	img = buildImage(hdr, channels, plane, palette, trnsGray, trnsRGB)
	if verr := img.Validate(); verr != nil {
		return nil, meta, &ErrStructural{Detail: verr.Error()}
	}

	meta.Width, meta.Height = hdr.width, hdr.height
	meta.BitDepth = hdr.bitDepth
	meta.ColorType = colorTypeInfo(hdr.colorType, trnsGray != nil, trnsRGB != nil)
	meta.FrameCount = 1
	return img, meta, nil
}

const defaultMaxPixels = 1 << 28

func matchesSignature(b []byte) bool {
	if len(b) != 8 {
		return false
	}
	for i, v := range signature {
		if b[i] != v {
			return false
		}
	}
	return true
}

func findChunk(chunks []chunk, typ string) (chunk, bool) {
	for _, c := range chunks {
		if c.typ == typ {
			return c, true
		}
	}
	return chunk{}, false
}

func findIHDR(chunks []chunk) (header, bool) {
	c, ok := findChunk(chunks, "IHDR")
	if !ok {
		return header{}, false
	}
	return parseIHDR(c.data)
}

func colorTypeInfo(colorType int, upgradedGray, upgradedRGB bool) info.ColorType {
	switch colorType {
	case 0:
		if upgradedGray {
			return info.ColorGrayscaleAlpha
		}
		return info.ColorGrayscale
	case 2:
		if upgradedRGB {
			return info.ColorRGBA
		}
		return info.ColorRGB
	case 3:
		return info.ColorIndexed
	case 4:
		return info.ColorGrayscaleAlpha
	case 6:
		return info.ColorRGBA
	default:
		return info.ColorUnknown
	}
}

func readAncillaryMetadata(chunks []chunk, meta *info.Info) {
	for _, c := range chunks {
		switch c.typ {
		case "gAMA":
			if len(c.data) >= 4 {
				meta.Gamma = float64(be32(c.data)) / 100000
				meta.HasGamma = true
			}
		case "cHRM":
			if len(c.data) >= 32 {
				f := func(off int) float64 { return float64(be32(c.data[off:])) / 100000 }
				meta.Chromaticity = &info.Chromaticity{
					WhiteX: f(0), WhiteY: f(4),
					RedX: f(8), RedY: f(12),
					GreenX: f(16), GreenY: f(20),
					BlueX: f(24), BlueY: f(28),
				}
			}
		case "sRGB":
			meta.Set("sRGB", true)
		case "iCCP":
			meta.Set("HasICCProfile", true)
		case "tIME":
			if len(c.data) >= 7 {
				meta.Set("ModifiedTime", fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
					int(c.data[0])<<8|int(c.data[1]), c.data[2], c.data[3], c.data[4], c.data[5], c.data[6]))
			}
		case "pHYs":
			if len(c.data) >= 9 {
				meta.Set("PixelsPerUnitX", int(be32(c.data[0:4])))
				meta.Set("PixelsPerUnitY", int(be32(c.data[4:8])))
				meta.Set("PixelUnitIsMeter", c.data[8] == 1)
			}
		case "eXIf":
			meta.Set("Exif", append([]byte(nil), c.data...))
		case "tEXt":
			key, value, ok := splitTextChunk(c.data)
			if ok {
				meta.Set("Text:"+key, value)
			}
		}
	}
}

func splitTextChunk(data []byte) (key, value string, ok bool) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), string(data[i+1:]), true
		}
	}
	return "", "", false
}
