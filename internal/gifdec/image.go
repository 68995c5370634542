package gifdec

import "github.com/aplefull/vexel/internal/raster"

type imageDescriptor struct {
	x, y, width, height int
	localCT             bool
	ctSize              int
	interlaced          bool
}

func parseImageDescriptor(data []byte) (imageDescriptor, bool) {
	if len(data) < 9 {
		return imageDescriptor{}, false
	}
	id := imageDescriptor{
		x:      int(data[0]) | int(data[1])<<8,
		y:      int(data[2]) | int(data[3])<<8,
		width:  int(data[4]) | int(data[5])<<8,
		height: int(data[6]) | int(data[7])<<8,
	}
	flags := data[8]
	id.localCT = flags&0x80 != 0
	id.interlaced = flags&0x40 != 0
	id.ctSize = 2 << uint(flags&0x07)
	return id, true
}

// deinterlace reorders GIF's four-pass interlaced row order (8/8/4/2 step,
// starting rows 0/4/2/1) back into top-to-bottom order.
func deinterlace(rows [][]byte, height int) [][]byte {
	out := make([][]byte, height)
	starts := [4]int{0, 4, 2, 1}
	steps := [4]int{8, 8, 4, 2}
	src := 0
	for pass := 0; pass < 4; pass++ {
		for y := starts[pass]; y < height && src < len(rows); y += steps[pass] {
			out[y] = rows[src]
			src++
		}
	}
	return out
}

// indicesToRows splits a flat index buffer into height rows of width bytes,
// truncating the last row if the LZW stream ran short.
func indicesToRows(indices []byte, width, height int) ([][]byte, bool) {
	rows := make([][]byte, 0, height)
	truncated := false
	for y := 0; y < height; y++ {
		start := y * width
		if start+width > len(indices) {
			if start < len(indices) {
				rows = append(rows, indices[start:])
			}
			truncated = true
			break
		}
		rows = append(rows, indices[start:start+width])
	}
	return rows, truncated
}

// indexedFrame renders one frame's indices+palette into an RGBA8 buffer,
// treating the transparent index (if any) as fully transparent.
func indexedFrame(rows [][]byte, width, height int, pal raster.Palette, gc graphicControl) []byte {
	out := make([]byte, width*height*4)
	for y := 0; y < height && y < len(rows); y++ {
		row := rows[y]
		for x := 0; x < width && x < len(row); x++ {
			idx := row[x]
			off := (y*width + x) * 4
			if gc.transparent && int(idx) == gc.transparentIdx {
				continue // leave fully transparent
			}
			if int(idx) < len(pal) {
				c := pal[idx]
				out[off], out[off+1], out[off+2], out[off+3] = c.R, c.G, c.B, 255
			}
		}
	}
	return out
}
