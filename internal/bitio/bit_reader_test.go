package bitio

import "testing"

func TestBitReaderReadBitsAcrossByteBoundary(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0xB2, 0x5A})) // 10110010 01011010
	if v := br.ReadBits(4); v != 0xB {
		t.Fatalf("first nibble = %#x, want 0xB", v)
	}
	if v := br.ReadBits(4); v != 0x2 {
		t.Fatalf("second nibble = %#x, want 0x2", v)
	}
	if v := br.ReadBits(8); v != 0x5A {
		t.Fatalf("third byte = %#x, want 0x5A", v)
	}
}

func TestBitReaderPeekBitsDoesNotConsume(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0xF0}))
	if v := br.PeekBits(4); v != 0xF {
		t.Fatalf("PeekBits(4) = %#x, want 0xF", v)
	}
	if v := br.PeekBits(4); v != 0xF {
		t.Fatalf("second PeekBits(4) = %#x, want 0xF (unchanged)", v)
	}
	br.SkipBits(4)
	if v := br.ReadBits(4); v != 0x0 {
		t.Fatalf("ReadBits(4) after skip = %#x, want 0x0", v)
	}
}

func TestBitReaderUnstuffsZeroAfterFF(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0xFF, 0x00, 0xAB}))
	if v := br.ReadBits(16); v != 0xFFAB {
		t.Fatalf("ReadBits(16) = %#x, want 0xFFAB (stuffed zero dropped)", v)
	}
}

func TestBitReaderStopsAtUnstuffedMarker(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0x12, 0xFF, 0xD9}))
	if v := br.ReadBits(8); v != 0x12 {
		t.Fatalf("ReadBits(8) = %#x, want 0x12", v)
	}
	marker, ok := br.AtMarker()
	if !ok || marker != 0xD9 {
		t.Fatalf("AtMarker() = %#x,%v, want 0xD9,true", marker, ok)
	}
	// Once at a marker, further reads synthesize zero bits and flag EOF.
	if v := br.ReadBits(8); v != 0 {
		t.Fatalf("ReadBits(8) past marker = %#x, want 0", v)
	}
	if !br.EOFWhileDecoding {
		t.Fatal("EOFWhileDecoding = false, want true after reading past a marker")
	}
}

func TestBitReaderClearMarkerAllowsResync(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0xFF, 0xD9}))
	br.fill()
	if _, ok := br.AtMarker(); !ok {
		t.Fatal("AtMarker() ok = false, want true")
	}
	br.ClearMarker()
	if _, ok := br.AtMarker(); ok {
		t.Fatal("AtMarker() ok = true after ClearMarker, want false")
	}
}

func TestBitReaderAlignToByteRewindsUnconsumedBytes(t *testing.T) {
	src := NewByteReader([]byte{0xAB, 0xCD, 0xEF})
	br := NewBitReader(src)
	if v := br.ReadBits(4); v != 0xA {
		t.Fatalf("ReadBits(4) = %#x, want 0xA", v)
	}
	// All 3 bytes were pulled into the window by fill(); AlignToByte must
	// rewind the underlying reader past every buffered-but-unconsumed byte,
	// not just the one nibble already returned.
	br.AlignToByte()
	if src.Position() != 0 {
		t.Fatalf("src.Position() = %d, want 0", src.Position())
	}
}

func TestBitReaderReadBitReadsOneBitAtATime(t *testing.T) {
	br := NewBitReader(NewByteReader([]byte{0x80})) // 10000000
	if v := br.ReadBit(); v != 1 {
		t.Fatalf("ReadBit() = %d, want 1", v)
	}
	if v := br.ReadBit(); v != 0 {
		t.Fatalf("ReadBit() = %d, want 0", v)
	}
}
