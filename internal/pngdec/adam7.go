package pngdec

// Adam7 splits an image into seven interleaved passes. xStart/yStart give
// the top-left sample of the pass, xStep/yStep the spacing between
// consecutive samples in that pass.
var adam7XStart = [7]int{0, 4, 0, 2, 0, 1, 0}
var adam7YStart = [7]int{0, 0, 4, 0, 2, 0, 1}
var adam7XStep = [7]int{8, 8, 4, 4, 2, 2, 1}
var adam7YStep = [7]int{8, 8, 8, 4, 4, 2, 2}

func adam7PassDims(pass, width, height int) (w, h int) {
	xs, ys := adam7XStart[pass], adam7YStart[pass]
	xstep, ystep := adam7XStep[pass], adam7YStep[pass]
	if xs >= width || ys >= height {
		return 0, 0
	}
	w = (width - xs + xstep - 1) / xstep
	h = (height - ys + ystep - 1) / ystep
	return w, h
}
