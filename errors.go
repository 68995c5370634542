package vexel

import "errors"

// The sentinel errors every decoder call can return. Use errors.Is to test
// for them; format-specific decoders wrap one of these with a more precise
// message.
var (
	// ErrUnsupportedFormat means the source's magic bytes don't match any
	// format Vexel knows how to read.
	ErrUnsupportedFormat = errors.New("vexel: unsupported format")

	// ErrUnsupportedFeature means the format was recognized but uses a
	// feature this decoder deliberately does not implement (arithmetic
	// JPEG coding, embedded JPEG/PNG payloads inside BMP, exotic TIFF
	// compression schemes, and similar).
	ErrUnsupportedFeature = errors.New("vexel: unsupported feature")

	// ErrDimensionsTooLarge means the declared width/height would require
	// an allocation past the configured or default pixel budget.
	ErrDimensionsTooLarge = errors.New("vexel: dimensions too large")

	// ErrUnexpectedEOF means the source ended before even a minimal header
	// could be parsed.
	ErrUnexpectedEOF = errors.New("vexel: unexpected end of file")

	// ErrStructuralError means the container is corrupt enough that no
	// pixels could be produced, even with recovery.
	ErrStructuralError = errors.New("vexel: structural error")

	// ErrIO wraps a failure reading the underlying file or stream.
	ErrIO = errors.New("vexel: io error")
)
