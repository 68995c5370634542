package pngdec

import "github.com/aplefull/vexel/internal/raster"

type header struct {
	width, height       int
	bitDepth, colorType int
	interlace           int
}

func parseIHDR(data []byte) (header, bool) {
	if len(data) < 13 {
		return header{}, false
	}
	w := int(data[0])<<24 | int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	h := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
	return header{
		width:     w,
		height:    h,
		bitDepth:  int(data[8]),
		colorType: int(data[9]),
		interlace: int(data[12]),
	}, true
}

func validBitDepth(d int) bool {
	switch d {
	case 1, 2, 4, 8, 16:
		return true
	}
	return false
}

// channelsFor returns the number of samples per pixel for a color type, or
// 0 if the type is unrecognized.
func channelsFor(colorType int) int {
	switch colorType {
	case 0:
		return 1 // grayscale
	case 2:
		return 3 // RGB
	case 3:
		return 1 // indexed
	case 4:
		return 2 // gray+alpha
	case 6:
		return 4 // RGBA
	default:
		return 0
	}
}

func kindFor(colorType, bitDepth int) raster.Kind {
	wide := bitDepth == 16
	switch colorType {
	case 0:
		if wide {
			return raster.KindL16
		}
		return raster.KindL8
	case 2:
		if wide {
			return raster.KindRGB16
		}
		return raster.KindRGB8
	case 3:
		return raster.KindIndexed8
	case 4:
		if wide {
			return raster.KindLA16
		}
		return raster.KindLA8
	case 6:
		if wide {
			return raster.KindRGBA16
		}
		return raster.KindRGBA8
	default:
		return raster.KindRGB8
	}
}

func colorSpaceFor(colorType int) string {
	switch colorType {
	case 0:
		return "Grayscale"
	case 2:
		return "RGB"
	case 3:
		return "Indexed"
	case 4:
		return "GrayscaleAlpha"
	case 6:
		return "RGBA"
	default:
		return "Unknown"
	}
}

func parsePLTE(data []byte) raster.Palette {
	n := len(data) / 3
	pal := make(raster.Palette, n)
	for i := 0; i < n; i++ {
		pal[i] = raster.RGBA{R: data[i*3], G: data[i*3+1], B: data[i*3+2], A: 255}
	}
	return pal
}

// applyTRNS overlays palette alpha for indexed images. Grayscale and RGB
// transparent-color keys are handled by the caller before this is reached.
func applyTRNS(data []byte, colorType int, pal raster.Palette) (truncatedNote bool) {
	if colorType != 3 {
		return false
	}
	if len(data) > len(pal) {
		data = data[:len(pal)]
		truncatedNote = true
	}
	for i, a := range data {
		pal[i].A = a
	}
	return truncatedNote
}
