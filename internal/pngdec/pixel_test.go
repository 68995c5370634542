package pngdec

import "testing"

func TestUnpackRowU16BitDepth8(t *testing.T) {
	out := unpackRowU16([]byte{10, 20, 30}, 8, 1, 3)
	want := []uint16{10, 20, 30}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
}

func TestUnpackRowU16BitDepth16(t *testing.T) {
	out := unpackRowU16([]byte{0x01, 0x02, 0x03, 0x04}, 16, 1, 2)
	want := []uint16{0x0102, 0x0304}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
}

func TestUnpackRowU16SubByteDepth(t *testing.T) {
	// bitDepth=1, 8 samples packed into one byte, MSB first: 10110010
	out := unpackRowU16([]byte{0xB2}, 1, 1, 8)
	want := []uint16{1, 0, 1, 1, 0, 0, 1, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d] = %d, want %d (full: %v)", i, out[i], want[i], out)
		}
	}
}

func TestUnpackRowU16FourBitDepth(t *testing.T) {
	// bitDepth=4, two samples per byte: high nibble then low nibble.
	out := unpackRowU16([]byte{0xA5}, 4, 1, 2)
	if out[0] != 0xA || out[1] != 0x5 {
		t.Fatalf("out = %v, want [10 5]", out)
	}
}

func TestScaleGray(t *testing.T) {
	tests := []struct {
		v        uint16
		bitDepth int
		want     byte
	}{
		{1, 1, 255},
		{0, 1, 0},
		{3, 2, 255},
		{1, 2, 85},
		{15, 4, 255},
		{200, 8, 200},
	}
	for _, tt := range tests {
		if got := scaleGray(tt.v, tt.bitDepth); got != tt.want {
			t.Errorf("scaleGray(%d, %d) = %d, want %d", tt.v, tt.bitDepth, got, tt.want)
		}
	}
}

func TestScatterPassU16(t *testing.T) {
	// Pass 0 starts at (0,0), so its first sample always lands at the
	// plane's origin regardless of step size.
	full := make([]uint16, 4*4*1)
	passRows := [][]uint16{{7}}
	scatterPassU16(0, passRows, 1, full, 4)
	if full[0] != 7 {
		t.Fatalf("full[0] = %d, want 7", full[0])
	}
	for i := 1; i < len(full); i++ {
		if full[i] != 0 {
			t.Fatalf("full[%d] = %d, want 0 (untouched)", i, full[i])
		}
	}
}

func TestScatterPassU16Pass1PlacesAtOffsetFour(t *testing.T) {
	// Pass 1 starts at x=4, so in an 8-wide plane the first sample lands
	// at column 4 of row 0.
	full := make([]uint16, 8*8*1)
	passRows := [][]uint16{{9}}
	scatterPassU16(1, passRows, 1, full, 8)
	if full[4] != 9 {
		t.Fatalf("full[4] = %d, want 9", full[4])
	}
}
