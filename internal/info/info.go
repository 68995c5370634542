// Package info implements the ImageInfo aggregator: it merges
// format-specific metadata into a uniform value and accumulates the
// append-only recovery-note log every decoder writes into.
//
// It generalizes gomantics-imx/metadata.go's ImageMetadata: the same shape
// (dimensions, color description, a lazily-allocated side-table of
// format-specific facts) plus an ordered notes log the teacher has no
// equivalent of.
package info

import "fmt"

// Format is the source container Vexel identified.
type Format string

const (
	FormatUnknown Format = ""
	FormatJPEG    Format = "JPEG"
	FormatPNG     Format = "PNG"
	FormatGIF     Format = "GIF"
	FormatBMP     Format = "BMP"
	FormatNetPBM  Format = "NetPBM"
	FormatTIFF    Format = "TIFF"
)

// ColorType is a coarse description of the pixel format the source declared.
type ColorType string

const (
	ColorUnknown        ColorType = "Unknown"
	ColorGrayscale      ColorType = "Grayscale"
	ColorGrayscaleAlpha ColorType = "GrayscaleAlpha"
	ColorRGB            ColorType = "RGB"
	ColorRGBA           ColorType = "RGBA"
	ColorIndexed        ColorType = "Indexed"
)

// Info is the ImageInfo value returned alongside every decoded Image.
type Info struct {
	Format       Format
	Width        int
	Height       int
	BitDepth     int
	ColorType    ColorType
	FrameCount   int
	LoopCount    int
	Gamma        float64
	HasGamma     bool
	Chromaticity *Chromaticity

	// Additional carries format-specific facts (JFIF density, BMP
	// compression name, GIF background index, ...) the way
	// gomantics-imx.ImageMetadata.Additional does.
	Additional map[string]interface{}

	// Notes is the append-only recovery log: stable strings, appended in
	// the order the recoverable condition occurred.
	Notes []string
}

// Chromaticity mirrors PNG's cHRM chunk (white point + 3 primaries).
type Chromaticity struct {
	WhiteX, WhiteY float64
	RedX, RedY     float64
	GreenX, GreenY float64
	BlueX, BlueY   float64
}

// New allocates an Info for the given format.
func New(format Format) *Info {
	return &Info{Format: format}
}

// Set stores a value lazily in Additional, mirroring
// gomantics-imx.ImageMetadata.setAdditional.
func (in *Info) Set(key string, value interface{}) {
	if in.Additional == nil {
		in.Additional = make(map[string]interface{})
	}
	in.Additional[key] = value
}

// Note appends a recovery note. Notes are part of the public contract:
// callers assert on their presence, so callers of Note should pass stable,
// descriptive strings rather than ones containing volatile values like
// pointers.
func (in *Info) Note(format string, args ...interface{}) {
	in.Notes = append(in.Notes, fmt.Sprintf(format, args...))
}

// HasNote reports whether any recorded note matches s exactly. Used by
// tests to assert recovery-path coverage.
func (in *Info) HasNote(s string) bool {
	for _, n := range in.Notes {
		if n == s {
			return true
		}
	}
	return false
}
