package jpegdec

import (
	"github.com/aplefull/vexel/internal/raster"
)

// assemble runs the final per-block dequantize+IDCT pass once per block
// after all scans, upsamples every component to the full image grid with
// nearest-neighbor, and performs color conversion.
func (d *decoder) assemble(opts Options) (*raster.Image, error) {
	if raster.WouldOverflow(int64(d.width), int64(d.height), 4) {
		return nil, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	if d.frame != frameLossless {
		for _, c := range d.components {
			q := d.quant[c.quantSel]
			if !q.present {
				d.info.Note("missing DQT table %d referenced by component %d, using zero table", c.quantSel, c.id)
			}
			for by := 0; by < c.blocksPerColumn; by++ {
				for bx := 0; bx < c.blocksPerLine; bx++ {
					idx := by*c.blocksPerLine + bx
					var block [64]int32
					src := &c.coeffs[idx]
					for i := 0; i < 64; i++ {
						block[i] = src[i] * int32(q.values[i])
					}
					outOff := by*8*c.stride + bx*8
					idct8x8(&block, c.plane, outOff, c.stride)
				}
			}
		}
	}

	switch len(d.components) {
	case 1:
		return d.assembleGray(), nil
	case 3:
		return d.assembleColor(), nil
	case 4:
		return d.assembleCMYK(), nil
	default:
		return d.assembleGray(), nil
	}
}

// sampleAt fetches component c's sample for full-resolution pixel (x, y)
// using nearest-neighbor upsampling from its subsampled plane.
func (c *component) sampleAt(x, y, maxH, maxV int) byte {
	sx := x * c.h / maxH
	sy := y * c.v / maxV
	if sx >= c.pw {
		sx = c.pw - 1
	}
	if sy >= c.ph {
		sy = c.ph - 1
	}
	return c.plane[sy*c.stride+sx]
}

func (d *decoder) assembleGray() *raster.Image {
	img := raster.New(raster.KindL8, d.width, d.height)
	c := d.components[0]
	for y := 0; y < d.height; y++ {
		row := img.Samples[y*d.width : (y+1)*d.width]
		for x := 0; x < d.width; x++ {
			row[x] = c.sampleAt(x, y, d.maxH, d.maxV)
		}
	}
	return img
}

func (d *decoder) assembleColor() *raster.Image {
	img := raster.New(raster.KindRGB8, d.width, d.height)
	y0, cb, cr := d.components[0], d.components[1], d.components[2]
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			Y := int32(y0.sampleAt(x, y, d.maxH, d.maxV))
			Cb := int32(cb.sampleAt(x, y, d.maxH, d.maxV)) - 128
			Cr := int32(cr.sampleAt(x, y, d.maxH, d.maxV)) - 128
			r, g, b := ycbcrToRGB(Y, Cb, Cr)
			off := (y*d.width + x) * 3
			img.Samples[off] = r
			img.Samples[off+1] = g
			img.Samples[off+2] = b
		}
	}
	return img
}

// ycbcrToRGB applies the JFIF conversion matrix.
func ycbcrToRGB(y, cb, cr int32) (byte, byte, byte) {
	r := y + (91881*cr)>>16
	g := y - (22554*cb+46802*cr)>>16
	b := y + (116130*cb)>>16
	return clampSample(r), clampSample(g), clampSample(b)
}

// assembleCMYK handles 4-component frames. Vexel treats them as
// Adobe-style inverted YCCK/CMYK: convert the first three channels via the
// standard YCbCr matrix into CMY, keep K, then flatten to RGB. Full CMYK
// color management is out of scope, so this is an approximation flagged in
// the notes.
func (d *decoder) assembleCMYK() *raster.Image {
	d.info.Note("4-component JPEG decoded as approximate inverted YCCK, not full CMYK color management")
	img := raster.New(raster.KindRGB8, d.width, d.height)
	c0, c1, c2, c3 := d.components[0], d.components[1], d.components[2], d.components[3]
	for y := 0; y < d.height; y++ {
		for x := 0; x < d.width; x++ {
			Y := int32(c0.sampleAt(x, y, d.maxH, d.maxV))
			Cb := int32(c1.sampleAt(x, y, d.maxH, d.maxV)) - 128
			Cr := int32(c2.sampleAt(x, y, d.maxH, d.maxV)) - 128
			k := int32(c3.sampleAt(x, y, d.maxH, d.maxV))
			r, g, b := ycbcrToRGB(Y, Cb, Cr)
			// Adobe APP14-style inversion: channels are stored inverted.
			r = clampSample(int32(r) * k / 255)
			g = clampSample(int32(g) * k / 255)
			b = clampSample(int32(b) * k / 255)
			off := (y*d.width + x) * 3
			img.Samples[off] = r
			img.Samples[off+1] = g
			img.Samples[off+2] = b
		}
	}
	return img
}
