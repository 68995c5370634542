package vexel

import (
	"errors"
	"testing"

	"github.com/aplefull/vexel/internal/bmpdec"
	"github.com/aplefull/vexel/internal/jpegdec"
	"github.com/aplefull/vexel/internal/pngdec"
)

func TestWrapErrorNil(t *testing.T) {
	if wrapError(nil) != nil {
		t.Fatal("wrapError(nil) != nil")
	}
}

func TestWrapErrorUnsupportedFeature(t *testing.T) {
	err := wrapError(&jpegdec.ErrUnsupportedFeature{Feature: "arithmetic coding"})
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Fatalf("wrapError() = %v, want wrapping ErrUnsupportedFeature", err)
	}
}

func TestWrapErrorStructural(t *testing.T) {
	err := wrapError(&pngdec.ErrStructural{Detail: "missing IHDR"})
	if !errors.Is(err, ErrStructuralError) {
		t.Fatalf("wrapError() = %v, want wrapping ErrStructuralError", err)
	}
}

func TestWrapErrorDimensionsTooLarge(t *testing.T) {
	err := wrapError(&bmpdec.ErrStructural{Detail: "declared dimensions too large to allocate"})
	if !errors.Is(err, ErrDimensionsTooLarge) {
		t.Fatalf("wrapError() = %v, want wrapping ErrDimensionsTooLarge", err)
	}
}

func TestWrapErrorUnknownTypeFallsBackToStructural(t *testing.T) {
	err := wrapError(errors.New("some unrelated error"))
	if !errors.Is(err, ErrStructuralError) {
		t.Fatalf("wrapError() = %v, want wrapping ErrStructuralError", err)
	}
}

func TestStructuralOrDimensions(t *testing.T) {
	if !errors.Is(structuralOrDimensions("too large to allocate"), ErrDimensionsTooLarge) {
		t.Error("expected ErrDimensionsTooLarge for a 'too large' detail")
	}
	if !errors.Is(structuralOrDimensions("missing signature"), ErrStructuralError) {
		t.Error("expected ErrStructuralError for an unrelated detail")
	}
}

func TestFromBytesUnsupportedFormat(t *testing.T) {
	_, _, err := FromBytes([]byte{0x00, 0x01, 0x02, 0x03})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("FromBytes() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestFromBytesDispatchesToPNGDecoder(t *testing.T) {
	// A truncated PNG signature is enough to reach pngdec.Decode and get a
	// wrapped structural error back, confirming the dispatch and wrapping
	// path without needing a fully valid file.
	sig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	_, _, err := FromBytes(sig)
	if err == nil {
		t.Fatal("FromBytes() error = nil, want a structural error for a signature-only PNG")
	}
	if !errors.Is(err, ErrStructuralError) {
		t.Fatalf("FromBytes() error = %v, want wrapping ErrStructuralError", err)
	}
}

func TestDecoderRemembersLastInfo(t *testing.T) {
	d := NewDecoder()
	if d.Info() != nil {
		t.Fatal("Info() before any Decode call should be nil")
	}
	sig := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	_, _ = d.Decode(sig)
	if d.Info() == nil {
		t.Fatal("Info() after a Decode call should be non-nil even on error")
	}
}

func TestWithMaxPixelsOption(t *testing.T) {
	d := NewDecoder(WithMaxPixels(1000))
	if d.opts.MaxPixels != 1000 {
		t.Fatalf("opts.MaxPixels = %d, want 1000", d.opts.MaxPixels)
	}
}

func TestWithStrictOption(t *testing.T) {
	d := NewDecoder(WithStrict())
	if !d.opts.Strict {
		t.Fatal("opts.Strict = false, want true")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, _, err := Open("/nonexistent/path/to/an/image.png")
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Open() error = %v, want wrapping ErrIO", err)
	}
}
