package gifdec

import "github.com/aplefull/vexel/internal/raster"

type screenDescriptor struct {
	width, height int
	globalCT      bool
	ctSize        int
	backgroundIdx int
}

func parseScreenDescriptor(data []byte) (screenDescriptor, bool) {
	if len(data) < 7 {
		return screenDescriptor{}, false
	}
	sd := screenDescriptor{
		width:  int(data[0]) | int(data[1])<<8,
		height: int(data[2]) | int(data[3])<<8,
	}
	flags := data[4]
	sd.globalCT = flags&0x80 != 0
	sd.ctSize = 2 << uint(flags&0x07)
	sd.backgroundIdx = int(data[5])
	return sd, true
}

func parseColorTable(data []byte, size int) raster.Palette {
	n := size
	if n*3 > len(data) {
		n = len(data) / 3
	}
	pal := make(raster.Palette, n)
	for i := 0; i < n; i++ {
		pal[i] = raster.RGBA{R: data[i*3], G: data[i*3+1], B: data[i*3+2], A: 255}
	}
	return pal
}
