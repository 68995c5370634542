package xformat

import (
	"testing"

	"github.com/aplefull/vexel/internal/info"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want info.Format
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0}, info.FormatJPEG},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, info.FormatPNG},
		{"GIF87a", []byte("GIF87a"), info.FormatGIF},
		{"GIF89a", []byte("GIF89a"), info.FormatGIF},
		{"BMP", []byte{'B', 'M', 0, 0}, info.FormatBMP},
		{"NetPBM P6", []byte("P6\n"), info.FormatNetPBM},
		{"NetPBM P7", []byte("P7\n"), info.FormatNetPBM},
		{"TIFF little-endian", []byte{'I', 'I', 0x2A, 0x00}, info.FormatTIFF},
		{"TIFF big-endian", []byte{'M', 'M', 0x00, 0x2A}, info.FormatTIFF},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, info.FormatUnknown},
		{"empty", nil, info.FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.buf); got != tt.want {
				t.Errorf("Detect(%v) = %v, want %v", tt.buf, got, tt.want)
			}
		})
	}
}

func TestDetectDoesNotPanicOnShortInput(t *testing.T) {
	for i := 0; i <= 8; i++ {
		buf := make([]byte, i)
		Detect(buf) // must not panic regardless of length
	}
}
