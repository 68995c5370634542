// Package vexel decodes JPEG, PNG/APNG, GIF, BMP, NetPBM, and TIFF images
// into a common pixel representation, favoring partial results with
// recorded recovery notes over hard failure whenever any pixels can be
// produced at all.
//
// Grounded on gomantics-imx's Metadata/MetadataFromReader entry points
// (detect format from the header, dispatch to a per-format extractor,
// wrap the extractor's error), generalized from metadata-only extraction
// to full pixel decoding.
package vexel

import (
	"fmt"
	"os"
	"strings"

	"github.com/aplefull/vexel/internal/bmpdec"
	"github.com/aplefull/vexel/internal/gifdec"
	"github.com/aplefull/vexel/internal/info"
	"github.com/aplefull/vexel/internal/jpegdec"
	"github.com/aplefull/vexel/internal/pbmdec"
	"github.com/aplefull/vexel/internal/pngdec"
	"github.com/aplefull/vexel/internal/raster"
	"github.com/aplefull/vexel/internal/tiffdec"
	"github.com/aplefull/vexel/internal/xformat"
)

// Image and ImageInfo are the public names for the shared decode result
// types; both live in internal packages so every format decoder shares one
// definition without exposing internal-only helpers.
type Image = raster.Image
type ImageInfo = info.Info

// Options configures a Decoder.
type Options struct {
	// MaxPixels caps width*height for any decoded image or animation
	// frame; zero uses each format decoder's own default (currently
	// 1<<28 pixels across every format).
	MaxPixels int64
	// Strict turns certain best-effort recoveries into hard errors instead
	// of a recorded note: a PNG chunk CRC mismatch, or a JPEG SOF segment
	// with an out-of-range component count or sampling factor. Formats
	// without a strict-mode policy of their own ignore this field.
	Strict bool
}

// Option mutates an Options value.
type Option func(*Options)

// WithMaxPixels bounds the pixel count a single decode call will attempt
// to allocate.
func WithMaxPixels(n int64) Option {
	return func(o *Options) { o.MaxPixels = n }
}

// WithStrict enables strict mode, rejecting inputs that would otherwise
// decode with a recovery note.
func WithStrict() Option {
	return func(o *Options) { o.Strict = true }
}

// Decoder decodes images with a fixed set of Options, and remembers the
// ImageInfo of its most recent decode, including one that failed.
type Decoder struct {
	opts     Options
	lastInfo *ImageInfo
}

// NewDecoder builds a Decoder from the given options.
func NewDecoder(opts ...Option) *Decoder {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	return &Decoder{opts: o}
}

// Decode detects the format of data and decodes it, returning the pixel
// image. Info about the most recent call, including any recovery notes,
// is available afterward via Info.
func (d *Decoder) Decode(data []byte) (*Image, error) {
	img, meta, err := decodeDispatch(data, d.opts)
	d.lastInfo = meta
	return img, err
}

// DecodeFile reads path and decodes it.
func (d *Decoder) DecodeFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return d.Decode(data)
}

// Info returns the ImageInfo produced by the most recent Decode or
// DecodeFile call, or nil if none has run yet.
func (d *Decoder) Info() *ImageInfo {
	return d.lastInfo
}

// Open reads and decodes the image at path using default options.
func Open(path string) (*Image, *ImageInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return FromBytes(data)
}

// FromBytes decodes an already-loaded buffer using default options, or the
// given Options overrides.
func FromBytes(data []byte, opts ...Option) (*Image, *ImageInfo, error) {
	var o Options
	for _, apply := range opts {
		apply(&o)
	}
	return decodeDispatch(data, o)
}

func decodeDispatch(data []byte, opts Options) (*Image, *ImageInfo, error) {
	format := xformat.Detect(data)

	switch format {
	case info.FormatJPEG:
		img, meta, err := jpegdec.Decode(data, jpegdec.Options{MaxPixels: opts.MaxPixels, Strict: opts.Strict})
		return img, meta, wrapError(err)
	case info.FormatPNG:
		img, meta, err := pngdec.Decode(data, pngdec.Options{MaxPixels: opts.MaxPixels, Strict: opts.Strict})
		return img, meta, wrapError(err)
	case info.FormatGIF:
		img, meta, err := gifdec.Decode(data, gifdec.Options{MaxPixels: opts.MaxPixels})
		return img, meta, wrapError(err)
	case info.FormatBMP:
		img, meta, err := bmpdec.Decode(data, bmpdec.Options{MaxPixels: opts.MaxPixels})
		return img, meta, wrapError(err)
	case info.FormatNetPBM:
		img, meta, err := pbmdec.Decode(data, pbmdec.Options{MaxPixels: opts.MaxPixels})
		return img, meta, wrapError(err)
	case info.FormatTIFF:
		img, meta, err := tiffdec.Decode(data, tiffdec.Options{MaxPixels: opts.MaxPixels})
		return img, meta, wrapError(err)
	default:
		return nil, nil, ErrUnsupportedFormat
	}
}

// wrapError maps a format decoder's local error type onto the package's
// sentinel taxonomy so callers can use errors.Is regardless of which
// decoder produced it.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *jpegdec.ErrUnsupportedFeature:
		return fmt.Errorf("%w: %s", ErrUnsupportedFeature, e.Feature)
	case *jpegdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	case *pngdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	case *gifdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	case *bmpdec.ErrUnsupportedFeature:
		return fmt.Errorf("%w: %s", ErrUnsupportedFeature, e.Feature)
	case *bmpdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	case *pbmdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	case *tiffdec.ErrUnsupportedFeature:
		return fmt.Errorf("%w: %s", ErrUnsupportedFeature, e.Feature)
	case *tiffdec.ErrStructural:
		return structuralOrDimensions(e.Detail)
	default:
		return fmt.Errorf("%w: %v", ErrStructuralError, err)
	}
}

func structuralOrDimensions(detail string) error {
	if strings.Contains(detail, "too large") {
		return fmt.Errorf("%w: %s", ErrDimensionsTooLarge, detail)
	}
	return fmt.Errorf("%w: %s", ErrStructuralError, detail)
}
