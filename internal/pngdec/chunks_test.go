package pngdec

import (
	"hash/crc32"
	"testing"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/info"
)

func chunkBytes(typ string, data []byte) []byte {
	length := len(data)
	out := []byte{byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length)}
	out = append(out, []byte(typ)...)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	out = append(out, byte(crc>>24), byte(crc>>16), byte(crc>>8), byte(crc))
	return out
}

func TestReadChunksStopsAtIEND(t *testing.T) {
	var data []byte
	data = append(data, chunkBytes("IHDR", []byte("hdrdata"))...)
	data = append(data, chunkBytes("IDAT", []byte("pixels"))...)
	data = append(data, chunkBytes("IEND", nil)...)
	data = append(data, chunkBytes("tEXt", []byte("should not be reached"))...)

	meta := info.New(info.FormatPNG)
	chunks, err := readChunks(bitio.NewByteReader(data), meta, false)
	if err != nil {
		t.Fatalf("readChunks() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}
	if chunks[0].typ != "IHDR" || chunks[1].typ != "IDAT" || chunks[2].typ != "IEND" {
		t.Fatalf("chunk types = %v, %v, %v", chunks[0].typ, chunks[1].typ, chunks[2].typ)
	}
	for _, n := range meta.Notes {
		if n == "CRC mismatch in IHDR" || n == "CRC mismatch in IDAT" || n == "CRC mismatch in IEND" {
			t.Errorf("Notes = %v, want no CRC mismatch note for valid chunks", meta.Notes)
		}
	}
}

func TestReadChunksRecordsCRCMismatch(t *testing.T) {
	data := chunkBytes("IHDR", []byte("hdrdata"))
	// Flip a bit in the CRC field (last 4 bytes).
	data[len(data)-1] ^= 0xFF
	data = append(data, chunkBytes("IEND", nil)...)

	meta := info.New(info.FormatPNG)
	readChunks(bitio.NewByteReader(data), meta, false)
	if !meta.HasNote("CRC mismatch in IHDR") {
		t.Errorf("Notes = %v, want a CRC mismatch note", meta.Notes)
	}
}

func TestReadChunksStrictModeFailsOnCRCMismatch(t *testing.T) {
	data := chunkBytes("IHDR", []byte("hdrdata"))
	data[len(data)-1] ^= 0xFF
	data = append(data, chunkBytes("IEND", nil)...)

	meta := info.New(info.FormatPNG)
	_, err := readChunks(bitio.NewByteReader(data), meta, true)
	if err == nil {
		t.Fatal("readChunks() error = nil, want ErrStructural in strict mode")
	}
	if _, ok := err.(*ErrStructural); !ok {
		t.Fatalf("readChunks() error type = %T, want *ErrStructural", err)
	}
}

func TestReadChunksTruncatedDataRecovers(t *testing.T) {
	data := chunkBytes("IDAT", []byte("0123456789"))
	// Cut off partway through the declared chunk data (10 bytes -> 4).
	data = data[:8+4]

	meta := info.New(info.FormatPNG)
	chunks, err := readChunks(bitio.NewByteReader(data), meta, false)
	if err != nil {
		t.Fatalf("readChunks() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if len(chunks[0].data) != 4 {
		t.Fatalf("len(chunks[0].data) = %d, want 4", len(chunks[0].data))
	}
	if !meta.HasNote("truncated IDAT chunk, using 4 of 10 declared bytes") {
		t.Errorf("Notes = %v, want a truncation note", meta.Notes)
	}
}
