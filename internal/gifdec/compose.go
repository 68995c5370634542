package gifdec

import "github.com/aplefull/vexel/internal/raster"

// composeGIFAnimation renders each frame's indices onto a shared canvas the
// way an animated GIF viewer would, applying each frame's disposal method
// before the next frame draws.
func composeGIFAnimation(sd screenDescriptor, frames []pendingFrame, loopCount int) (*raster.Image, error) {
	canvas := make([]byte, sd.width*sd.height*4)
	out := make([]raster.Frame, 0, len(frames))

	for i, f := range frames {
		disposal := f.gc.disposal
		if i == 0 && disposal == raster.DisposePrevious {
			disposal = raster.DisposeNone
		}

		sub := indexedFrame(f.rows, f.desc.width, f.desc.height, f.pal, f.gc)

		var preState []byte
		if disposal == raster.DisposePrevious {
			preState = append([]byte(nil), canvas...)
		}

		blendGIFFrame(canvas, sd.width, sd.height, sub, f.desc.x, f.desc.y, f.desc.width, f.desc.height)

		frameImg := &raster.Image{
			Kind:    raster.KindRGBA8,
			Width:   sd.width,
			Height:  sd.height,
			Samples: append([]byte(nil), canvas...),
		}
		out = append(out, raster.Frame{
			Image:    frameImg,
			DelayMS:  f.gc.delayMS,
			Disposal: f.gc.disposal,
			Blend:    raster.BlendOver,
		})

		switch disposal {
		case raster.DisposeBackground:
			clearRegion(canvas, sd.width, sd.height, f.desc.x, f.desc.y, f.desc.width, f.desc.height)
		case raster.DisposePrevious:
			canvas = preState
		}
	}

	return raster.NewAnimation(sd.width, sd.height, loopCount, out), nil
}

func blendGIFFrame(canvas []byte, canvasW, canvasH int, sub []byte, x, y, w, h int) {
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
			si := (row*w + col) * 4
			if si+3 >= len(sub) {
				continue
			}
			if sub[si+3] == 0 {
				continue // transparent GIF pixel: leave the canvas untouched
			}
			di := (dy*canvasW + dx) * 4
			copy(canvas[di:di+4], sub[si:si+4])
		}
	}
}

func clearRegion(canvas []byte, canvasW, canvasH, x, y, w, h int) {
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
