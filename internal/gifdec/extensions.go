package gifdec

import "github.com/aplefull/vexel/internal/raster"

type graphicControl struct {
	disposal      raster.Disposal
	transparent   bool
	transparentIdx int
	delayMS       int
}

func parseGCE(data []byte) graphicControl {
	gc := graphicControl{}
	if len(data) < 4 {
		return gc
	}
	flags := data[0]
	switch (flags >> 2) & 0x07 {
	case 2:
		gc.disposal = raster.DisposeBackground
	case 3:
		gc.disposal = raster.DisposePrevious
	default:
		gc.disposal = raster.DisposeNone
	}
	gc.transparent = flags&0x01 != 0
	delay := int(data[1]) | int(data[2])<<8
	gc.delayMS = delay * 10
	gc.transparentIdx = int(data[3])
	return gc
}
