// Package pbmdec implements the NetPBM family: ASCII and binary
// PBM/PGM/PPM (P1-P6) and the PAM container (P7).
package pbmdec

import (
	"fmt"
	"strconv"

	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "pbmdec: " + e.Detail }

type Options struct {
	MaxPixels int64
}

const defaultMaxPixels = 1 << 28

// Decode runs the full NetPBM decode pipeline over data.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatNetPBM)

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

	if len(data) < 2 || data[0] != 'P' {
		return nil, meta, &ErrStructural{Detail: "missing NetPBM magic number"}
	}
	magic := data[1]
	meta.Set("Magic", "P"+string(magic))

	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = defaultMaxPixels
	}

	if magic == '7' {
		return decodePAM(data, meta, maxPixels)
	}
	return decodeSimple(data, magic, meta, maxPixels)
}

// tokenizer walks whitespace-and-comment-delimited tokens the way every
// non-PAM NetPBM header does, then hands the remaining raw bytes back for
// binary formats.
type tokenizer struct {
	data []byte
	pos  int
}

func (t *tokenizer) skipWhitespaceAndComments() {
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		if c == '#' {
			for t.pos < len(t.data) && t.data[t.pos] != '\n' {
				t.pos++
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			t.pos++
			continue
		}
		break
	}
}

func (t *tokenizer) next() (string, bool) {
	t.skipWhitespaceAndComments()
	start := t.pos
	for t.pos < len(t.data) {
		c := t.data[t.pos]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '#' {
			break
		}
		t.pos++
	}
	if t.pos == start {
		return "", false
	}
	return string(t.data[start:t.pos]), true
}

func (t *tokenizer) nextInt() (int, bool) {
	s, ok := t.next()
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func decodeSimple(data []byte, magic byte, meta *info.Info, maxPixels int64) (*raster.Image, *info.Info, error) {
	t := &tokenizer{data: data, pos: 2}
	width, ok1 := t.nextInt()
	height, ok2 := t.nextInt()
	if !ok1 || !ok2 || width <= 0 || height <= 0 {
		return nil, meta, &ErrStructural{Detail: "missing or invalid width/height"}
	}
	isBitmap := magic == '1' || magic == '4'
	maxval := 1
	if !isBitmap {
		v, ok := t.nextInt()
		if !ok || v <= 0 {
			return nil, meta, &ErrStructural{Detail: "missing or invalid maxval"}
		}
		maxval = v
	}

	if raster.WouldOverflow(int64(width), int64(height), 4) || int64(width)*int64(height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	channels := 1
	if magic == '3' || magic == '6' {
		channels = 3
	}

	is16 := maxval > 255
	kind := raster.KindL8
	switch {
	case channels == 3 && is16:
		kind = raster.KindRGB16
	case channels == 3:
		kind = raster.KindRGB8
	case is16:
		kind = raster.KindL16
	}
	img := raster.New(kind, width, height)
	total := width * height * channels

	switch magic {
	case '1', '2', '3': // ASCII
		samples := make([]int, total)
		got := 0
		for got < total {
			v, ok := t.nextInt()
			if !ok {
				meta.Note("truncated ASCII pixel data")
				break
			}
			if magic == '1' {
				v = 1 - v // PBM: 1 means black, invert to a gray sample where 0=black
			}
			samples[got] = v
			got++
		}
		writePBMSamples(img, samples, maxval, is16)

	default: // '4', '5', '6' binary
		t.pos++ // single whitespace byte separates header from binary data, per the format
		body := data[t.pos:]
		if magic == '4' {
			decodeBinaryBitmap(img, body, width, height, meta)
		} else {
			decodeBinarySamples(img, body, total, maxval, is16, meta)
		}
	}

	meta.Width, meta.Height = width, height
	meta.BitDepth = 8
	if is16 {
		meta.BitDepth = 16
	}
	if channels == 3 {
		meta.ColorType = info.ColorRGB
	} else {
		meta.ColorType = info.ColorGrayscale
	}
	meta.FrameCount = 1
	meta.Set("Maxval", maxval)
	return img, meta, nil
}

// writeScaledSample rescales one raw sample from 0..maxval up to the full
// 0..255 (or 0..65535 at 16-bit) output range and writes it into samplesOut
// at index i. Every NetPBM sample source (ASCII tokens, raw binary bytes,
// PAM tuples) funnels through this so a P3 file and its equivalent P6 file
// decode to identical pixel values regardless of maxval.
func writeScaledSample(samplesOut []byte, i, v, maxval int, is16 bool) {
	if v < 0 {
		v = 0
	}
	if v > maxval {
		v = maxval
	}
	if is16 {
		s16 := v * 65535 / maxval
		samplesOut[i*2] = byte(s16 >> 8)
		samplesOut[i*2+1] = byte(s16)
		return
	}
	scaled := v
	if maxval != 255 {
		scaled = v * 255 / maxval
	}
	samplesOut[i] = byte(scaled)
}

func writePBMSamples(img *raster.Image, samples []int, maxval int, is16 bool) {
	for i, v := range samples {
		writeScaledSample(img.Samples, i, v, maxval, is16)
	}
}

func decodeBinaryBitmap(img *raster.Image, body []byte, width, height int, meta *info.Info) {
	stride := (width + 7) / 8
	for y := 0; y < height; y++ {
		start := y * stride
		if start+stride > len(body) {
			meta.Note("truncated binary bitmap data")
			return
		}
		row := body[start : start+stride]
		for x := 0; x < width; x++ {
			bit := (row[x/8] >> uint(7-x%8)) & 1
			v := byte(255)
			if bit == 1 {
				v = 0 // PBM: 1 is black
			}
			img.Samples[y*width+x] = v
		}
	}
}

func decodeBinarySamples(img *raster.Image, body []byte, total, maxval int, is16 bool, meta *info.Info) {
	bytesPerSample := 1
	if is16 {
		bytesPerSample = 2
	}
	need := total * bytesPerSample
	if len(body) < need {
		meta.Note("truncated binary pixel data")
		need = len(body) - len(body)%bytesPerSample
	}
	n := need / bytesPerSample
	for i := 0; i < n; i++ {
		var v int
		if is16 {
			v = int(body[i*2])<<8 | int(body[i*2+1])
		} else {
			v = int(body[i])
		}
		writeScaledSample(img.Samples, i, v, maxval, is16)
	}
}

func decodePAM(data []byte, meta *info.Info, maxPixels int64) (*raster.Image, *info.Info, error) {
	t := &tokenizer{data: data, pos: 2}
	var width, height, depth, maxval int
	var tupleType string
	for {
		tok, ok := t.next()
		if !ok {
			return nil, meta, &ErrStructural{Detail: "PAM header ended without ENDHDR"}
		}
		switch tok {
		case "WIDTH":
			width, _ = t.nextInt()
		case "HEIGHT":
			height, _ = t.nextInt()
		case "DEPTH":
			depth, _ = t.nextInt()
		case "MAXVAL":
			maxval, _ = t.nextInt()
		case "TUPLTYPE":
			tupleType, _ = t.next()
		case "ENDHDR":
			t.pos++ // single newline before binary data
			goto headerDone
		}
	}
headerDone:

	if width <= 0 || height <= 0 || depth <= 0 || maxval <= 0 {
		return nil, meta, &ErrStructural{Detail: "incomplete PAM header"}
	}
	if raster.WouldOverflow(int64(width), int64(height), int64(depth)*2) || int64(width)*int64(height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	is16 := maxval > 255
	kind := pamKind(depth, is16)
	var img *raster.Image
	if kind == raster.KindIndexed8 {
		img = raster.NewIndexed(width, height, nil)
	} else {
		img = raster.New(kind, width, height)
	}

	body := data[t.pos:]
	bytesPerSample := 1
	if is16 {
		bytesPerSample = 2
	}
	need := width * height * depth * bytesPerSample
	if len(body) < need {
		meta.Note("truncated PAM pixel data")
		need = len(body) - len(body)%bytesPerSample
	}
	n := need / bytesPerSample
	for i := 0; i < n; i++ {
		var v int
		if is16 {
			v = int(body[i*2])<<8 | int(body[i*2+1])
		} else {
			v = int(body[i])
		}
		writeScaledSample(img.Samples, i, v, maxval, is16)
	}

	meta.Width, meta.Height = width, height
	meta.BitDepth = 8
	if is16 {
		meta.BitDepth = 16
	}
	meta.ColorType = pamColorType(depth)
	meta.FrameCount = 1
	meta.Set("Maxval", maxval)
	meta.Set("TupleType", tupleType)
	return img, meta, nil
}

func pamKind(depth int, is16 bool) raster.Kind {
	switch depth {
	case 1:
		if is16 {
			return raster.KindL16
		}
		return raster.KindL8
	case 2:
		if is16 {
			return raster.KindLA16
		}
		return raster.KindLA8
	case 3:
		if is16 {
			return raster.KindRGB16
		}
		return raster.KindRGB8
	case 4:
		if is16 {
			return raster.KindRGBA16
		}
		return raster.KindRGBA8
	default:
		if is16 {
			return raster.KindL16
		}
		return raster.KindL8
	}
}

func pamColorType(depth int) info.ColorType {
	switch depth {
	case 1:
		return info.ColorGrayscale
	case 2:
		return info.ColorGrayscaleAlpha
	case 3:
		return info.ColorRGB
	case 4:
		return info.ColorRGBA
	default:
		return info.ColorUnknown
	}
}
