package pngdec

import (
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

// decodeSamplePlane defilters already-inflated IDAT/fdAT payload bytes into a
// flat plane of raw (unscaled) samples, handling both the non-interlaced
// and Adam7 layouts.
func decodeSamplePlane(hdr header, channels int, inflated []byte, meta *info.Info) []uint16 {
	plane := make([]uint16, hdr.width*hdr.height*channels)
	bpp := bytesPerPixel(channels, hdr.bitDepth)

	if hdr.interlace == 0 {
		rowBytes := (hdr.width*channels*hdr.bitDepth + 7) / 8
		y := 0
		got := unfilterPass(inflated, rowBytes, hdr.height, bpp, meta, func(row []byte) {
			samples := unpackRowU16(row, hdr.bitDepth, channels, hdr.width)
			copy(plane[y*hdr.width*channels:], samples)
			y++
		})
		if got < hdr.height {
			meta.Note("truncated pixel data: decoded rows")
		}
		return plane
	}

	pos := 0
	for pass := 0; pass < 7; pass++ {
		pw, ph := adam7PassDims(pass, hdr.width, hdr.height)
		if pw == 0 || ph == 0 {
			continue
		}
		rowBytes := (pw*channels*hdr.bitDepth + 7) / 8
		if pos > len(inflated) {
			break
		}
		var passRows [][]uint16
		got := unfilterPass(inflated[pos:], rowBytes, ph, bpp, meta, func(row []byte) {
			passRows = append(passRows, unpackRowU16(row, hdr.bitDepth, channels, pw))
		})
		pos += got * (1 + rowBytes)
		if got < ph {
			meta.Note("truncated interlaced pass")
		}
		scatterPassU16(pass, passRows, channels, plane, hdr.width)
		if got < ph {
			break
		}
	}
	return plane
}

// buildImage turns a raw sample plane into the concrete raster.Image kind
// matching the color type, upgrading grayscale/RGB to an alpha-bearing kind
// when a tRNS color key is present.
func buildImage(hdr header, channels int, plane []uint16, palette raster.Palette, trnsGray *uint16, trnsRGB *[3]uint16) *raster.Image {
	switch hdr.colorType {
	case 3:
		img := raster.NewIndexed(hdr.width, hdr.height, palette)
		for i, v := range plane {
			img.Samples[i] = byte(v)
		}
		img.ClampIndices()
		return img

	case 0:
		if trnsGray != nil {
			kind := raster.KindLA8
			if hdr.bitDepth == 16 {
				kind = raster.KindLA16
			}
			img := raster.New(kind, hdr.width, hdr.height)
			writeGrayAlpha(img, plane, hdr.bitDepth, *trnsGray)
			return img
		}
		img := raster.New(kindFor(0, hdr.bitDepth), hdr.width, hdr.height)
		writeDirect(img, plane, hdr.bitDepth, hdr.bitDepth < 8)
		return img

	case 2:
		if trnsRGB != nil {
			kind := raster.KindRGBA8
			if hdr.bitDepth == 16 {
				kind = raster.KindRGBA16
			}
			img := raster.New(kind, hdr.width, hdr.height)
			writeRGBAlpha(img, plane, hdr.bitDepth, *trnsRGB)
			return img
		}
		img := raster.New(kindFor(2, hdr.bitDepth), hdr.width, hdr.height)
		writeDirect(img, plane, hdr.bitDepth, false)
		return img

	case 4:
		img := raster.New(kindFor(4, hdr.bitDepth), hdr.width, hdr.height)
		writeDirect(img, plane, hdr.bitDepth, false)
		return img

	default: // 6, or a recovered-to-default color type
		img := raster.New(kindFor(6, hdr.bitDepth), hdr.width, hdr.height)
		writeDirect(img, plane, hdr.bitDepth, false)
		return img
	}
}

// writeDirect copies a raw sample plane straight into an image's Samples,
// scaling sub-byte grayscale values to 0..255 when scaleGray is set.
func writeDirect(img *raster.Image, plane []uint16, bitDepth int, scaleGray_ bool) {
	if bitDepth == 16 {
		for i, v := range plane {
			img.Samples[i*2] = byte(v >> 8)
			img.Samples[i*2+1] = byte(v)
		}
		return
	}
	for i, v := range plane {
		if scaleGray_ {
			img.Samples[i] = scaleGray(v, bitDepth)
		} else {
			img.Samples[i] = byte(v)
		}
	}
}

func writeGrayAlpha(img *raster.Image, plane []uint16, bitDepth int, key uint16) {
	if bitDepth == 16 {
		for i, v := range plane {
			off := i * 4
			img.Samples[off] = byte(v >> 8)
			img.Samples[off+1] = byte(v)
			a := uint16(0xFFFF)
			if v == key {
				a = 0
			}
			img.Samples[off+2] = byte(a >> 8)
			img.Samples[off+3] = byte(a)
		}
		return
	}
	for i, v := range plane {
		off := i * 2
		img.Samples[off] = scaleGray(v, bitDepth)
		a := byte(255)
		if v == key {
			a = 0
		}
		img.Samples[off+1] = a
	}
}

func writeRGBAlpha(img *raster.Image, plane []uint16, bitDepth int, key [3]uint16) {
	n := len(plane) / 3
	if bitDepth == 16 {
		for p := 0; p < n; p++ {
			r, g, b := plane[p*3], plane[p*3+1], plane[p*3+2]
			off := p * 8
			img.Samples[off] = byte(r >> 8)
			img.Samples[off+1] = byte(r)
			img.Samples[off+2] = byte(g >> 8)
			img.Samples[off+3] = byte(g)
			img.Samples[off+4] = byte(b >> 8)
			img.Samples[off+5] = byte(b)
			a := uint16(0xFFFF)
			if r == key[0] && g == key[1] && b == key[2] {
				a = 0
			}
			img.Samples[off+6] = byte(a >> 8)
			img.Samples[off+7] = byte(a)
		}
		return
	}
	for p := 0; p < n; p++ {
		r, g, b := plane[p*3], plane[p*3+1], plane[p*3+2]
		off := p * 4
		img.Samples[off] = byte(r)
		img.Samples[off+1] = byte(g)
		img.Samples[off+2] = byte(b)
		a := byte(255)
		if r == key[0] && g == key[1] && b == key[2] {
			a = 0
		}
		img.Samples[off+3] = a
	}
}

// imageToRGBA8 flattens any concrete image kind into a width*height*4 RGBA
// byte plane, used as the common canvas format for APNG compositing.
func imageToRGBA8(img *raster.Image) []byte {
	n := img.Width * img.Height
	out := make([]byte, n*4)
	switch img.Kind {
	case raster.KindL8:
		for i := 0; i < n; i++ {
			v := img.Samples[i]
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = v, v, v, 255
		}
	case raster.KindL16:
		for i := 0; i < n; i++ {
			v := img.Samples[i*2]
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = v, v, v, 255
		}
	case raster.KindLA8:
		for i := 0; i < n; i++ {
			v, a := img.Samples[i*2], img.Samples[i*2+1]
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = v, v, v, a
		}
	case raster.KindLA16:
		for i := 0; i < n; i++ {
			v, a := img.Samples[i*4], img.Samples[i*4+2]
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = v, v, v, a
		}
	case raster.KindRGB8:
		for i := 0; i < n; i++ {
			copy(out[i*4:i*4+3], img.Samples[i*3:i*3+3])
			out[i*4+3] = 255
		}
	case raster.KindRGB16:
		for i := 0; i < n; i++ {
			out[i*4] = img.Samples[i*6]
			out[i*4+1] = img.Samples[i*6+2]
			out[i*4+2] = img.Samples[i*6+4]
			out[i*4+3] = 255
		}
	case raster.KindRGBA8:
		copy(out, img.Samples)
	case raster.KindRGBA16:
		for i := 0; i < n; i++ {
			out[i*4] = img.Samples[i*8]
			out[i*4+1] = img.Samples[i*8+2]
			out[i*4+2] = img.Samples[i*8+4]
			out[i*4+3] = img.Samples[i*8+6]
		}
	case raster.KindIndexed8:
		for i := 0; i < n; i++ {
			idx := img.Samples[i]
			var c raster.RGBA
			if int(idx) < len(img.Palette) {
				c = img.Palette[idx]
			}
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = c.R, c.G, c.B, c.A
		}
	}
	return out
}
