package gifdec

import "testing"

func TestLZWDecodeLiteralRuns(t *testing.T) {
	// minCodeSize=2: clearCode=4, endCode=5. Encodes clear, then the
	// literal code for index 2 four times, then end. Hand-packed LSB-first
	// across three bytes: clear and the first three literals are 3-bit
	// codes; the table reaches 8 entries after the third literal, so the
	// fourth literal and the end code are 4-bit codes.
	subBlocks := []byte{3, 0x94, 0x24, 0x05, 0}
	indices, truncated := lzwDecode(subBlocks, 2)
	if truncated {
		t.Fatal("truncated = true, want false")
	}
	want := []byte{2, 2, 2, 2}
	if len(indices) != len(want) {
		t.Fatalf("indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("indices = %v, want %v", indices, want)
		}
	}
}

func TestLZWDecodeSingleSymbol(t *testing.T) {
	// clear, literal code 2, end: verified by hand-trace of the LSB-first
	// bit packing across two bytes.
	subBlocks := []byte{2, 0x54, 0x01, 0}
	indices, truncated := lzwDecode(subBlocks, 2)
	if truncated {
		t.Fatal("truncated = true, want false")
	}
	if len(indices) != 1 || indices[0] != 2 {
		t.Fatalf("indices = %v, want [2]", indices)
	}
}

func TestLZWDecodeTruncatedStreamReportsPartialData(t *testing.T) {
	// A clear code with no following end code and no more sub-block data.
	subBlocks := []byte{1, 0x04}
	_, truncated := lzwDecode(subBlocks, 2)
	if !truncated {
		t.Fatal("truncated = false, want true for a stream with no end code")
	}
}

func TestLZWDecodeRejectsInvalidMinCodeSize(t *testing.T) {
	if _, truncated := lzwDecode([]byte{0}, 1); !truncated {
		t.Fatal("truncated = false, want true for minCodeSize below 2")
	}
	if _, truncated := lzwDecode([]byte{0}, 9); !truncated {
		t.Fatal("truncated = false, want true for minCodeSize above 8")
	}
}

func TestSubBlockReaderConcatenatesAcrossBlocks(t *testing.T) {
	r := newSubBlockReader([]byte{1, 0xAB, 1, 0xCD, 0})
	b, ok := r.nextByte()
	if !ok || b != 0xAB {
		t.Fatalf("nextByte() = %#x, %v, want 0xab, true", b, ok)
	}
	b, ok = r.nextByte()
	if !ok || b != 0xCD {
		t.Fatalf("nextByte() = %#x, %v, want 0xcd, true", b, ok)
	}
	if _, ok = r.nextByte(); ok {
		t.Fatal("nextByte() ok = true after the terminator, want false")
	}
}
