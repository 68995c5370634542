package pngdec

import (
	"github.com/aplefull/vexel/internal/inflate"
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/raster"
)

type frameControl struct {
	width, height  int
	xOffset, yOffset int
	delayMS        int
	disposal       raster.Disposal
	blend          raster.Blend
}

func parseFCTL(data []byte) (frameControl, bool) {
	if len(data) < 26 {
		return frameControl{}, false
	}
	be32 := func(b []byte) int {
		return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	}
	be16 := func(b []byte) int {
		return int(b[0])<<8 | int(b[1])
	}
	fc := frameControl{
		width:    be32(data[4:8]),
		height:   be32(data[8:12]),
		xOffset:  be32(data[12:16]),
		yOffset:  be32(data[16:20]),
	}
	delayNum := be16(data[20:22])
	delayDen := be16(data[22:24])
	if delayDen == 0 {
		delayDen = 100
	}
	fc.delayMS = delayNum * 1000 / delayDen

	switch data[24] {
	case 1:
		fc.disposal = raster.DisposeBackground
	case 2:
		fc.disposal = raster.DisposePrevious
	default:
		fc.disposal = raster.DisposeNone
	}
	if data[25] == 1 {
		fc.blend = raster.BlendOver
	} else {
		fc.blend = raster.BlendSource
	}
	return fc, true
}

// collectAPNGFrames walks the chunk stream once, grouping fcTL/IDAT/fdAT
// runs into (control, payload) pairs. A default image made of IDAT chunks
// before the first fcTL is folded into frame zero when that frame's own
// fcTL chunk never gathered its own IDAT/fdAT data, matching the common
// case where the default image doubles as the first animation frame.
func collectAPNGFrames(chunks []chunk) ([]frameControl, [][]byte) {
	var controls []frameControl
	var buffers [][]byte
	var defaultData []byte
	current := -1

	for _, c := range chunks {
		switch c.typ {
		case "fcTL":
			fc, ok := parseFCTL(c.data)
			if !ok {
				continue
			}
			controls = append(controls, fc)
			buffers = append(buffers, nil)
			current = len(controls) - 1
		case "IDAT":
			if current == -1 {
				defaultData = append(defaultData, c.data...)
			} else {
				buffers[current] = append(buffers[current], c.data...)
			}
		case "fdAT":
			if len(c.data) < 4 || current == -1 {
				continue
			}
			buffers[current] = append(buffers[current], c.data[4:]...)
		}
	}
	if len(controls) > 0 && len(buffers[0]) == 0 && len(defaultData) > 0 {
		buffers[0] = defaultData
	}
	return controls, buffers
}

// decodeAPNG builds a full animation, compositing each frame onto a shared
// canvas the way an APNG-aware viewer would, then storing the composited
// canvas as that step's Frame.Image alongside the source disposal/blend op.
func decodeAPNG(chunks []chunk, hdr header, channels int, palette raster.Palette, trnsGray *uint16, trnsRGB *[3]uint16, loopCount int, meta *info.Info) (*raster.Image, error) {
	controls, buffers := collectAPNGFrames(chunks)
	if len(controls) == 0 {
		return nil, &ErrStructural{Detail: "acTL present but no fcTL frames found"}
	}

	canvas := make([]byte, hdr.width*hdr.height*4)
	frames := make([]raster.Frame, 0, len(controls))

	for i, fc := range controls {
		disposal := fc.disposal
		if i == 0 && disposal == raster.DisposePrevious {
			disposal = raster.DisposeNone
		}

		subHdr := hdr
		subHdr.width, subHdr.height = fc.width, fc.height
		if subHdr.width <= 0 || subHdr.height <= 0 {
			meta.Note("APNG frame has non-positive dimensions, skipping")
			continue
		}

		zr := inflate.Zlib(buffers[i])
		if zr.Truncated {
			meta.Note("truncated APNG frame payload")
		}
		plane := decodeSamplePlane(subHdr, channels, zr.Output, meta)
		sub := buildImage(subHdr, channels, plane, palette, trnsGray, trnsRGB)
		subRGBA := imageToRGBA8(sub)

		preState := append([]byte(nil), canvas...)
		blendInto(canvas, hdr.width, hdr.height, subRGBA, fc.xOffset, fc.yOffset, fc.width, fc.height, fc.blend)

		frameImg := &raster.Image{Kind: raster.KindRGBA8, Width: hdr.width, Height: hdr.height, Samples: append([]byte(nil), canvas...)}
		frames = append(frames, raster.Frame{Image: frameImg, DelayMS: fc.delayMS, Disposal: fc.disposal, Blend: fc.blend})

		switch disposal {
		case raster.DisposeBackground:
			clearRect(canvas, hdr.width, hdr.height, fc.xOffset, fc.yOffset, fc.width, fc.height)
		case raster.DisposePrevious:
			canvas = preState
		}
	}

	if len(frames) == 0 {
		return nil, &ErrStructural{Detail: "APNG produced zero usable frames"}
	}
	meta.FrameCount = len(frames)
	meta.LoopCount = loopCount
	return raster.NewAnimation(hdr.width, hdr.height, loopCount, frames), nil
}

func blendInto(canvas []byte, canvasW, canvasH int, sub []byte, x, y, subW, subH int, blend raster.Blend) {
	for row := 0; row < subH; row++ {
		dy := y + row
		if dy < 0 || dy >= canvasH {
			continue
		}
		for col := 0; col < subW; col++ {
			dx := x + col
			if dx < 0 || dx >= canvasW {
				continue
			}
			si := (row*subW + col) * 4
			if si+3 >= len(sub) {
				continue
			}
			di := (dy*canvasW + dx) * 4
			sr, sg, sb, sa := sub[si], sub[si+1], sub[si+2], sub[si+3]

			if blend == raster.BlendSource || sa == 255 {
				canvas[di], canvas[di+1], canvas[di+2], canvas[di+3] = sr, sg, sb, sa
				continue
			}
			if sa == 0 {
				continue
			}
			a := float64(sa) / 255
			da := float64(canvas[di+3]) / 255
			for k := 0; k < 3; k++ {
				canvas[di+k] = byte(float64(sub[si+k])*a + float64(canvas[di+k])*(1-a))
			}
			canvas[di+3] = byte((a + da*(1-a)) * 255)
		}
	}
}

func clearRect(canvas []byte, canvasW, canvasH, x, y, w, h int) {
	for row := 0; row < h; row++ {
		dy := y + row
		if dy < 0 || dy >= canvasH {
			continue
		}
		for col := 0; col < w; col++ {
			dx := x + col
			if dx < 0 || dx >= canvasW {
				continue
			}
			off := (dy*canvasW + dx) * 4
			canvas[off], canvas[off+1], canvas[off+2], canvas[off+3] = 0, 0, 0, 0
		}
	}
}
