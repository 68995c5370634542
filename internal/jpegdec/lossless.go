package jpegdec

import "github.com/aplefull/vexel/internal/bitio"

// decodeLosslessScan implements SOF3 predictive decoding: each sample
// equals predictor(neighbors) + a Huffman-decoded diff, with no DCT and no
// dequantization. The predicted/reconstructed values are stored directly
// into each component's plane (reusing the same 8-bit plane other frame
// kinds populate via IDCT; sources with more than 8 bits of precision
// clamp into the byte plane with a recovery note).
func (d *decoder) decodeLosslessScan(br *bitio.BitReader, comps []scanComponent, predictor, pointTransform int) {
	if predictor < 0 || predictor > 7 {
		d.info.Note("lossless predictor selector %d out of range, defaulting to 1", predictor)
		predictor = 1
	}
	if d.precision > 8 {
		d.info.Note("lossless sample precision %d exceeds 8 bits, samples clamped", d.precision)
	}
	for _, sc := range comps {
		sc.comp.plane = make([]byte, sc.comp.pw*sc.comp.ph)
	}

	width, height := d.width, d.height
	restartCounter := d.restartN

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for _, sc := range comps {
				c := sc.comp
				dc := d.dcHuff[c.dcTableSel]
				sym, ok := decodeSymbol(br, dc)
				diff := int32(0)
				if ok && sym > 0 {
					diff = receiveExtend(br, int(sym))
				}

				var pred int32
				switch {
				case x == 0 && y == 0:
					pred = int32(1) << uint(d.precision-1)
				case y == 0:
					pred = int32(c.plane[x-1])
				case x == 0:
					pred = int32(c.plane[(y-1)*c.stride])
				default:
					a := int32(c.plane[y*c.stride+x-1])
					b := int32(c.plane[(y-1)*c.stride+x])
					cc := int32(c.plane[(y-1)*c.stride+x-1])
					pred = losslessPredict(predictor, a, b, cc)
				}
				val := pred + (diff << uint(pointTransform))
				c.plane[y*c.stride+x] = clampSample(val)
			}
			if d.restartN > 0 {
				restartCounter--
				if restartCounter == 0 {
					if !d.resyncRestart(br, comps) {
						return
					}
					restartCounter = d.restartN
					for _, sc := range comps {
						sc.comp.dcPred = 0
					}
				}
			}
		}
	}
}

func losslessPredict(selector int, a, b, c int32) int32 {
	switch selector {
	case 1:
		return a
	case 2:
		return b
	case 3:
		return c
	case 4:
		return a + b - c
	case 5:
		return a + (b-c)/2
	case 6:
		return b + (a-c)/2
	case 7:
		return (a + b) / 2
	default:
		return a
	}
}
