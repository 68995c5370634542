// Package gifdec implements the GIF87a/GIF89a decoder: logical screen and
// color table parsing, variable-width LZW decoding over sub-blocks,
// Graphic Control Extensions, interlaced row reordering, and disposal-based
// frame composition into an animation.
package gifdec

import (
	"fmt"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

type ErrStructural struct{ Detail string }

func (e *ErrStructural) Error() string { return "gifdec: " + e.Detail }

type Options struct {
	MaxPixels int64
}

const defaultMaxPixels = 1 << 28

type pendingFrame struct {
	desc imageDescriptor
	gc   graphicControl
	pal  raster.Palette
	rows [][]byte
}

// Decode runs the full GIF decode pipeline over data.
func Decode(data []byte, opts Options) (img *raster.Image, meta *info.Info, err error) {
	meta = info.New(info.FormatGIF)

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
	sig, sigErr := br.ReadExact(6)
	if sigErr != nil || (string(sig) != "GIF87a" && string(sig) != "GIF89a") {
		return nil, meta, &ErrStructural{Detail: "missing GIF signature"}
	}
	meta.Set("Version", string(sig))

	lsdBytes, err2 := br.ReadExact(7)
	if err2 != nil {
		return nil, meta, &ErrStructural{Detail: "truncated logical screen descriptor"}
	}
	sd, ok := parseScreenDescriptor(lsdBytes)
	if !ok || sd.width <= 0 || sd.height <= 0 {
		return nil, meta, &ErrStructural{Detail: "invalid logical screen descriptor"}
	}

	maxPixels := opts.MaxPixels
	if maxPixels == 0 {
		maxPixels = defaultMaxPixels
	}
	if raster.WouldOverflow(int64(sd.width), int64(sd.height), 4) || int64(sd.width)*int64(sd.height) > maxPixels {
		return nil, meta, &ErrStructural{Detail: "declared dimensions too large to allocate"}
	}

	var globalPal raster.Palette
	if sd.globalCT {
		ctBytes, e := br.ReadExact(sd.ctSize * 3)
		if e != nil {
			meta.Note("truncated global color table")
		} else {
			globalPal = parseColorTable(ctBytes, sd.ctSize)
		}
	}

	var frames []pendingFrame
	loopCount := 0
	var currentGC graphicControl
	haveGC := false

	for {
		marker, mErr := br.ReadExact(1)
		if mErr != nil {
			meta.Note("stream ended before trailer")
			break
		}
		switch marker[0] {
		case 0x3B: // trailer
			goto done
		case 0x21: // extension introducer
			label, lErr := br.ReadExact(1)
			if lErr != nil {
				meta.Note("truncated extension")
				goto done
			}
			switch label[0] {
			case 0xF9: // graphic control
				block := readSubBlocksRaw(br)
				currentGC = parseGCE(block)
				haveGC = true
			case 0xFF: // application extension (NETSCAPE loop count)
				block := readSubBlocksRaw(br)
				if len(block) >= 14 && string(block[0:11]) == "NETSCAPE2.0" {
					loopCount = int(block[12]) | int(block[13])<<8
				}
			default:
				readSubBlocksRaw(br)
			}
		case 0x2C: // image descriptor
			idBytes, e := br.ReadExact(9)
			if e != nil {
				meta.Note("truncated image descriptor")
				goto done
			}
			id, _ := parseImageDescriptor(idBytes)

			pal := globalPal
			if id.localCT {
				ctBytes, e := br.ReadExact(id.ctSize * 3)
				if e != nil {
					meta.Note("truncated local color table")
				} else {
					pal = parseColorTable(ctBytes, id.ctSize)
				}
			}

			minCodeSize, e := br.ReadU8()
			if e != nil {
				meta.Note("truncated LZW header")
				goto done
			}
			subBlocks := readSubBlocksFramed(br)
			indices, truncated := lzwDecode(subBlocks, int(minCodeSize))
			if truncated {
				meta.Note("truncated or malformed LZW data in frame")
			}

			rows, rowsTruncated := indicesToRows(indices, id.width, id.height)
			if rowsTruncated {
				meta.Note("frame pixel data shorter than declared dimensions")
			}
			if id.interlaced {
				rows = deinterlace(rows, id.height)
			}

			gc := graphicControl{}
			if haveGC {
				gc = currentGC
				haveGC = false
			}
			frames = append(frames, pendingFrame{desc: id, gc: gc, pal: pal, rows: rows})
		default:
			meta.Note("unrecognized block introducer, stopping")
			goto done
		}
	}
done:

	if len(frames) == 0 {
		return nil, meta, &ErrStructural{Detail: "no image data found"}
	}

	meta.Width, meta.Height = sd.width, sd.height
	meta.BitDepth = 8
	meta.ColorType = info.ColorIndexed
	meta.FrameCount = len(frames)
	meta.LoopCount = loopCount
	meta.Set("BackgroundColorIndex", sd.backgroundIdx)

	if len(frames) == 1 {
		f := frames[0]
		if f.desc.x == 0 && f.desc.y == 0 && f.desc.width == sd.width && f.desc.height == sd.height {
			img = raster.NewIndexed(sd.width, sd.height, f.pal)
			for y, row := range f.rows {
				copy(img.Samples[y*sd.width:], row)
			}
			img.ClampIndices()
			return img, meta, nil
		}
	}

	img, err = composeGIFAnimation(sd, frames, loopCount)
	return img, meta, err
}

// readSubBlocksRaw concatenates sub-block payloads, discarding the length
// framing; used for extension data where only the bytes matter.
func readSubBlocksRaw(br *bitio.ByteReader) []byte {
	var out []byte
	for {
		lenByte, err := br.ReadU8()
		if err != nil || lenByte == 0 {
			return out
		}
		chunk, err := br.ReadExact(int(lenByte))
		if err != nil {
			return out
		}
		out = append(out, chunk...)
	}
}

// readSubBlocksFramed returns the sub-block stream with length framing
// intact (including the trailing zero terminator), as subBlockReader
// expects for LZW code extraction.
func readSubBlocksFramed(br *bitio.ByteReader) []byte {
	var out []byte
	for {
		lenByte, err := br.ReadU8()
		if err != nil {
			return out
		}
		out = append(out, lenByte)
		if lenByte == 0 {
			return out
		}
		chunk, err := br.ReadExact(int(lenByte))
		if err != nil {
			return out
		}
		out = append(out, chunk...)
	}
}
