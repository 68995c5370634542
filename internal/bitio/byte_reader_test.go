package bitio

import (
	"errors"
	"testing"
)

func TestByteReaderReadExact(t *testing.T) {
	r := NewByteReader([]byte{1, 2, 3, 4, 5})
	b, err := r.ReadExact(3)
	if err != nil {
		t.Fatalf("ReadExact() error = %v", err)
	}
	if string(b) != string([]byte{1, 2, 3}) {
		t.Errorf("ReadExact() = %v, want [1 2 3]", b)
	}
	if r.Position() != 3 {
		t.Errorf("Position() = %d, want 3", r.Position())
	}
	if r.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", r.Remaining())
	}
}

func TestByteReaderReadExactPastEnd(t *testing.T) {
	r := NewByteReader([]byte{1, 2})
	_, err := r.ReadExact(3)
	if !errors.Is(err, ErrUnexpectedEOF) {
		t.Fatalf("ReadExact() error = %v, want ErrUnexpectedEOF", err)
	}
	if r.Position() != 0 {
		t.Errorf("Position() = %d after failed read, want 0 (unchanged)", r.Position())
	}
}

func TestByteReaderReadAvailable(t *testing.T) {
	r := NewByteReader([]byte{1, 2, 3})
	b := r.ReadAvailable(10)
	if len(b) != 3 {
		t.Fatalf("ReadAvailable(10) len = %d, want 3", len(b))
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestByteReaderSeekClamps(t *testing.T) {
	r := NewByteReader([]byte{1, 2, 3})
	r.Seek(-5)
	if r.Position() != 0 {
		t.Errorf("Seek(-5) Position() = %d, want 0", r.Position())
	}
	r.Seek(100)
	if r.Position() != 3 {
		t.Errorf("Seek(100) Position() = %d, want 3", r.Position())
	}
}

func TestByteReaderPeekDoesNotAdvance(t *testing.T) {
	r := NewByteReader([]byte{1, 2, 3})
	p := r.Peek(2)
	if len(p) != 2 || p[0] != 1 || p[1] != 2 {
		t.Fatalf("Peek(2) = %v, want [1 2]", p)
	}
	if r.Position() != 0 {
		t.Errorf("Position() after Peek = %d, want 0", r.Position())
	}
}

func TestByteReaderMultiByteReads(t *testing.T) {
	r := NewByteReader([]byte{0x01, 0x02, 0x03, 0x04})
	be, err := r.ReadU16BE()
	if err != nil || be != 0x0102 {
		t.Fatalf("ReadU16BE() = %#x, %v, want 0x0102, nil", be, err)
	}
	r.Seek(0)
	le, err := r.ReadU16LE()
	if err != nil || le != 0x0201 {
		t.Fatalf("ReadU16LE() = %#x, %v, want 0x0201, nil", le, err)
	}
	r.Seek(0)
	be32, err := r.ReadU32BE()
	if err != nil || be32 != 0x01020304 {
		t.Fatalf("ReadU32BE() = %#x, %v, want 0x01020304, nil", be32, err)
	}
	r.Seek(0)
	le32, err := r.ReadU32LE()
	if err != nil || le32 != 0x04030201 {
		t.Fatalf("ReadU32LE() = %#x, %v, want 0x04030201, nil", le32, err)
	}
}

func TestBitReaderReadBitsMSBFirst(t *testing.T) {
	br := NewByteReader([]byte{0b10110010, 0b01010101})
	bits := NewBitReader(br)

	if got := bits.ReadBits(4); got != 0b1011 {
		t.Fatalf("ReadBits(4) = %04b, want 1011", got)
	}
	if got := bits.ReadBits(4); got != 0b0010 {
		t.Fatalf("ReadBits(4) = %04b, want 0010", got)
	}
	if got := bits.ReadBits(8); got != 0b01010101 {
		t.Fatalf("ReadBits(8) = %08b, want 01010101", got)
	}
}

func TestBitReaderByteStuffing(t *testing.T) {
	// 0xFF 0x00 is a stuffed 0xFF; the stuffed zero must not appear as data.
	br := NewByteReader([]byte{0xFF, 0x00, 0xAA})
	bits := NewBitReader(br)

	if got := bits.ReadBits(8); got != 0xFF {
		t.Fatalf("ReadBits(8) = %#x, want 0xff", got)
	}
	if got := bits.ReadBits(8); got != 0xAA {
		t.Fatalf("ReadBits(8) = %#x, want 0xaa", got)
	}
}

func TestBitReaderStopsAtMarker(t *testing.T) {
	// 0xFF 0xD9 is an unstuffed marker (EOI); the reader must stop before it.
	br := NewByteReader([]byte{0xAB, 0xFF, 0xD9})
	bits := NewBitReader(br)

	if got := bits.ReadBits(8); got != 0xAB {
		t.Fatalf("ReadBits(8) = %#x, want 0xab", got)
	}
	// Further reads run out of real data and synthesize zero bits.
	bits.ReadBits(8)
	if !bits.EOFWhileDecoding {
		t.Error("EOFWhileDecoding not set after running past a marker")
	}
	marker, atMarker := bits.AtMarker()
	if !atMarker || marker != 0xD9 {
		t.Errorf("AtMarker() = %#x, %v, want 0xd9, true", marker, atMarker)
	}
}

func TestBitReaderPeekThenSkip(t *testing.T) {
	br := NewByteReader([]byte{0b11110000})
	bits := NewBitReader(br)

	peeked := bits.PeekBits(4)
	if peeked != 0b1111 {
		t.Fatalf("PeekBits(4) = %04b, want 1111", peeked)
	}
	// Peeking again should return the same value since nothing was consumed.
	if again := bits.PeekBits(4); again != peeked {
		t.Fatalf("second PeekBits(4) = %04b, want %04b (unchanged)", again, peeked)
	}
	bits.SkipBits(4)
	if got := bits.ReadBits(4); got != 0b0000 {
		t.Fatalf("ReadBits(4) after skip = %04b, want 0000", got)
	}
}

func TestBitReaderAlignToByte(t *testing.T) {
	br := NewByteReader([]byte{0xAB, 0xCD, 0xEF, 0x12})
	bits := NewBitReader(br)

	// Consuming exactly one whole byte (8 bits) leaves the window holding
	// three fully-unconsumed buffered bytes; AlignToByte should rewind the
	// underlying cursor to resume right after the consumed byte.
	if got := bits.ReadBits(8); got != 0xAB {
		t.Fatalf("ReadBits(8) = %#x, want 0xab", got)
	}
	bits.AlignToByte()

	next, err := bits.Underlying().ReadExact(1)
	if err != nil {
		t.Fatalf("ReadExact after AlignToByte error = %v", err)
	}
	if next[0] != 0xCD {
		t.Fatalf("byte after AlignToByte = %#x, want 0xcd", next[0])
	}
}
