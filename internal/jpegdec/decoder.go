// Package jpegdec implements a JPEG decoder: marker scanning, segment
// parsing, baseline/progressive/lossless scan decoding, dequantization,
// IDCT, upsampling and color conversion, favoring best-effort recovery
// over hard failure whenever any pixels can be produced.
//
// gomantics-imx's jpeg.go only walks markers far enough to read SOF
// dimensions and APP1/APP2 metadata; it never touches entropy-coded data.
// The pixel pipeline here is grounded instead on gen2brain-jpegn (bitstream
// fill/refill discipline in bitio.BitReader, AAN IDCT in idct.go, and the
// progressive DC/AC first/refine algorithm in scan.go), rewritten around
// Vexel's own bitio/raster/info types and its own naming.
package jpegdec

import (
	"fmt"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

// ErrUnsupportedFeature is returned when a segment names a feature this
// decoder deliberately excludes (arithmetic coding, extended sequential
// SOF1).
type ErrUnsupportedFeature struct{ Feature string }

func (e *ErrUnsupportedFeature) Error() string {
	return fmt.Sprintf("jpegdec: unsupported feature: %s", e.Feature)
}

// ErrStructural indicates the container is unparseable to the point that no
// pixels can be produced.
type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "jpegdec: " + e.Detail }

const (
	markerSOI = 0xD8
	markerEOI = 0xD9
	markerDQT = 0xDB
	markerDHT = 0xC4
	markerDRI = 0xDD
	markerSOS = 0xDA
	markerCOM = 0xFE
)

func isSOF(m byte) bool {
	switch m {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7, 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}
	return false
}

func isRST(m byte) bool { return m >= 0xD0 && m <= 0xD7 }
func isAPPn(m byte) bool { return m >= 0xE0 && m <= 0xEF }

type frameKind int

const (
	frameNone frameKind = iota
	frameBaseline
	frameProgressive
	frameLossless
	frameExtendedSequential
)

// decoder is the transient state for a single JPEG decode call.
type decoder struct {
	br   *bitio.ByteReader
	info *info.Info

	frame       frameKind
	precision   int
	width       int
	height      int
	components  []*component
	compByID    map[int]*component
	restartN    int
	losslessPredictor int

	quant [4]quantTable
	dcHuff [4]*huffTable
	acHuff [4]*huffTable

	maxH, maxV int
	mcusPerLine, mcusPerColumn int

	producedAnyBlock bool
	strict           bool
}

// Decode runs the full JPEG decode pipeline over data.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatJPEG)
	d := &decoder{
		br:       bitio.NewByteReader(data),
		info:     meta,
		compByID: make(map[int]*component),
		strict:   opts.Strict,
	}

	defer func() {
		if r := recover(); r != nil {
			if img == nil {
				err = &ErrStructural{Detail: fmt.Sprintf("recovered from internal error: %v", r)}
				return
			}
			meta.Note("recovered from internal error while finishing decode: %v", r)
			err = nil
		}
	}()

	if err := d.scanMarkers(opts); err != nil {
		return nil, meta, err
	}
	if len(d.components) == 0 {
		return nil, meta, &ErrStructural{Detail: "missing SOF, no frame parameters"}
	}
	if d.width == 0 || d.height == 0 {
		return nil, meta, &ErrStructural{Detail: "zero-dimension frame header"}
	}

	img, err = d.assemble(opts)
	if err != nil {
		return nil, meta, err
	}
	meta.Width, meta.Height = d.width, d.height
	meta.BitDepth = d.precision
	switch len(d.components) {
	case 1:
		meta.ColorType = info.ColorGrayscale
	case 3:
		meta.ColorType = info.ColorRGB
	case 4:
		meta.ColorType = info.ColorRGBA
	default:
		meta.ColorType = info.ColorUnknown
	}
	meta.Set("Components", len(d.components))
	meta.Set("Progressive", d.frame == frameProgressive)
	return img, meta, nil
}

// Options configures a decode call.
type Options struct {
	// MaxPixels bounds width*height to guard against DimensionsTooLarge;
	// zero means use the package default.
	MaxPixels int64
	// Strict turns SOF field recoveries that would otherwise clamp to a
	// safe value and add a note (out-of-range component count or sampling
	// factors) into a hard ErrStructural.
	Strict bool
}

func (d *decoder) scanMarkers(opts Options) error {
	b, err := d.br.ReadExact(2)
	if err != nil || b[0] != 0xFF || b[1] != markerSOI {
		return &ErrStructural{Detail: "missing SOI marker"}
	}

	for {
		marker, ok := d.nextMarker()
		if !ok {
			// Ran out of bytes without EOI: emit whatever we parsed so far.
			d.info.Note("premature end of stream")
			return nil
		}
		switch {
		case marker == markerEOI:
			return nil
		case isRST(marker):
			continue // stray restart marker outside a scan; ignore and resync
		case marker == 0x01: // TEM
			continue
		}

		length, lok := d.readSegmentLength()
		if !lok {
			d.info.Note("truncated segment length, stopping at marker 0x%02X", marker)
			return nil
		}

		switch {
		case isSOF(marker):
			if err := d.parseSOF(marker, length); err != nil {
				return err
			}
			maxPixels := opts.MaxPixels
			if maxPixels == 0 {
				maxPixels = 1 << 28
			}
			if int64(d.width)*int64(d.height) > maxPixels {
				return &ErrStructural{Detail: "declared dimensions too large to allocate"}
			}
		case marker == markerDQT:
			d.parseDQT(length)
		case marker == markerDHT:
			d.parseDHT(length)
		case marker == markerDRI:
			d.parseDRI(length)
		case marker == markerSOS:
			if err := d.parseAndDecodeSOS(length); err != nil {
				return err
			}
		case isAPPn(marker):
			d.parseAPPn(marker, length)
		case marker == markerCOM:
			d.br.Skip(length - 2)
		default:
			d.br.Skip(length - 2)
		}
	}
}

// nextMarker scans forward to the next 0xFF-prefixed marker byte, skipping
// fill bytes (0xFF 0xFF ...).
func (d *decoder) nextMarker() (byte, bool) {
	for {
		b, err := d.br.ReadExact(1)
		if err != nil {
			return 0, false
		}
		if b[0] != 0xFF {
			continue
		}
		for {
			m, err := d.br.ReadExact(1)
			if err != nil {
				return 0, false
			}
			if m[0] == 0xFF {
				continue // fill byte
			}
			if m[0] == 0x00 {
				break // stray stuffed byte outside entropy data; resync
			}
			return m[0], true
		}
	}
}

func (d *decoder) readSegmentLength() (int, bool) {
	b, err := d.br.ReadExact(2)
	if err != nil {
		return 0, false
	}
	l := int(b[0])<<8 | int(b[1])
	if l < 2 {
		return 0, false
	}
	return l, true
}

func (d *decoder) parseAPPn(marker byte, length int) {
	data := d.br.ReadAvailable(length - 2)
	if marker == 0xE0 && len(data) >= 5 && string(data[0:5]) == "JFIF\x00" {
		if len(data) >= 14 {
			xd := int(data[9])<<8 | int(data[10])
			yd := int(data[11])<<8 | int(data[12])
			d.info.Set("JFIFDensityX", xd)
			d.info.Set("JFIFDensityY", yd)
		}
	}
	if marker == 0xE1 && len(data) >= 6 && string(data[0:6]) == "Exif\x00\x00" {
		d.info.Set("Exif", append([]byte(nil), data[6:]...))
	}
}
