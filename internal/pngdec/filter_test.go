package pngdec

import (
	"testing"

	"github.com/aplefull/vexel/internal/info"
)

func TestUnfilterRowNone(t *testing.T) {
	cur := []byte{1, 2, 3}
	unfilterRow(0, cur, nil, 1, info.New(info.FormatPNG))
	want := []byte{1, 2, 3}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v", cur, want)
		}
	}
}

func TestUnfilterRowSub(t *testing.T) {
	// bpp=1: each byte is the running sum of itself and every prior byte.
	cur := []byte{10, 5, 5}
	unfilterRow(1, cur, nil, 1, info.New(info.FormatPNG))
	want := []byte{10, 15, 20}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v", cur, want)
		}
	}
}

func TestUnfilterRowUp(t *testing.T) {
	prev := []byte{100, 100, 100}
	cur := []byte{1, 2, 3}
	unfilterRow(2, cur, prev, 1, info.New(info.FormatPNG))
	want := []byte{101, 102, 103}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v", cur, want)
		}
	}
}

func TestUnfilterRowAverage(t *testing.T) {
	// bpp=1, no previous row: each byte gets floor(left/2) added.
	cur := []byte{10, 10, 10}
	unfilterRow(3, cur, nil, 1, info.New(info.FormatPNG))
	// byte0: a=0,b=0 -> avg 0 -> cur[0]=10+0=10
	// byte1: a=cur[0]=10,b=0 -> avg 5 -> cur[1]=10+5=15
	// byte2: a=cur[1]=15 (already updated),b=0 -> avg 7 -> cur[2]=10+7=17
	want := []byte{10, 15, 17}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v", cur, want)
		}
	}
}

func TestUnfilterRowPaeth(t *testing.T) {
	prev := []byte{0, 0}
	cur := []byte{5, 3}
	unfilterRow(4, cur, prev, 1, info.New(info.FormatPNG))
	// byte0: a=0,b=0,c=0 -> predictor 0 -> +0 = 5
	// byte1: a=cur[0]=5,b=prev[1]=0,c=prev[0]=0 -> p=5+0-0=5, pa=|5-5|=0 -> picks a=5 -> +5 = 8
	want := []byte{5, 8}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v", cur, want)
		}
	}
}

func TestUnfilterRowUnknownTypeFallsBackToNone(t *testing.T) {
	meta := info.New(info.FormatPNG)
	cur := []byte{1, 2, 3}
	unfilterRow(5, cur, nil, 1, meta)
	want := []byte{1, 2, 3}
	for i := range want {
		if cur[i] != want[i] {
			t.Fatalf("cur = %v, want %v (unknown filter type should pass through unmodified)", cur, want)
		}
	}
	if !meta.HasNote("invalid filter byte 5, treated as None") {
		t.Errorf("Notes = %v, want an invalid-filter-byte note", meta.Notes)
	}
}

func TestPaeth(t *testing.T) {
	tests := []struct {
		a, b, c int
		want    byte
	}{
		{0, 0, 0, 0},
		{10, 20, 0, 20},  // p=30, pa=|30-10|=20, pb=|30-20|=10, pc=|30-0|=30 -> b wins
		{10, 10, 10, 10}, // p=10, all distances 0 -> a wins (first tie)
		{0, 0, 5, 0},     // p=-5, pa=5, pb=5, pc=10 -> a wins on tie
	}
	for _, tt := range tests {
		if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d,%d,%d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		channels, bitDepth, want int
	}{
		{1, 8, 1},
		{3, 8, 3},
		{4, 8, 4},
		{1, 1, 1}, // sub-byte depth still rounds up to 1
		{1, 16, 2},
		{3, 16, 6},
	}
	for _, tt := range tests {
		if got := bytesPerPixel(tt.channels, tt.bitDepth); got != tt.want {
			t.Errorf("bytesPerPixel(%d,%d) = %d, want %d", tt.channels, tt.bitDepth, got, tt.want)
		}
	}
}

func TestUnfilterPassStopsOnTruncation(t *testing.T) {
	// Declares 3 rows of 2 bytes each (plus filter-type byte = 3 bytes per
	// row) but supplies only enough data for 2 full rows.
	data := []byte{
		0, 1, 2, // row 0: None, [1,2]
		0, 3, 4, // row 1: None, [3,4]
	}
	var rows [][]byte
	n := unfilterPass(data, 2, 3, 1, info.New(info.FormatPNG), func(row []byte) {
		rows = append(rows, append([]byte(nil), row...))
	})
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
}

func TestUnfilterPassFullRun(t *testing.T) {
	data := []byte{
		0, 1, 2,
		1, 1, 1, // Sub: [1, 1+1=2]
	}
	var rows [][]byte
	n := unfilterPass(data, 2, 2, 1, info.New(info.FormatPNG), func(row []byte) {
		rows = append(rows, append([]byte(nil), row...))
	})
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if rows[1][0] != 1 || rows[1][1] != 2 {
		t.Fatalf("rows[1] = %v, want [1 2]", rows[1])
	}
}
