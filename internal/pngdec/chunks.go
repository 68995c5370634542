// Package pngdec implements the PNG/APNG decoder: chunk stream walking,
// IHDR/PLTE/tRNS parsing, zlib inflate of IDAT/fdAT, scanline filter
// reversal, Adam7 deinterlacing, and APNG frame composition.
//
// gomantics-imx/png.go reads the chunk stream far enough to report IHDR
// fields and detect iCCP/eXIf; it never inflates IDAT. That chunk-walking
// shape (length, type, data, discard-the-CRC-but-keep-going) is kept and
// generalized here into a full pixel decoder built on internal/inflate and
// internal/raster.
package pngdec

import (
	"fmt"
	"hash/crc32"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/info"
)

var signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// chunk is one parsed (type, data) pair; the CRC is checked but only blocks
// decoding when the caller asked for strict mode, otherwise it's recorded
// as a note.
type chunk struct {
	typ  string
	data []byte
}

// readChunks walks the chunk stream starting after the signature. In
// strict mode a CRC mismatch aborts the walk with an error instead of
// continuing past it.
func readChunks(br *bitio.ByteReader, meta *info.Info, strict bool) ([]chunk, error) {
	var chunks []chunk
	for {
		lengthBytes, err := br.ReadExact(4)
		if err != nil {
			meta.Note("truncated stream before chunk length")
			return chunks, nil
		}
		length := int(lengthBytes[0])<<24 | int(lengthBytes[1])<<16 | int(lengthBytes[2])<<8 | int(lengthBytes[3])
		if length < 0 {
			meta.Note("negative chunk length, stopping")
			return chunks, nil
		}
		typBytes, err := br.ReadExact(4)
		if err != nil {
			meta.Note("truncated stream before chunk type")
			return chunks, nil
		}
		typ := string(typBytes)

		data, err := br.ReadExact(length)
		if err != nil {
			// Truncated chunk data: keep whatever bytes are available and
			// stop, leaving a recovery note rather than failing outright.
			data = br.ReadAvailable(br.Remaining())
			meta.Note("truncated %s chunk, using %d of %d declared bytes", typ, len(data), length)
			chunks = append(chunks, chunk{typ: typ, data: data})
			return chunks, nil
		}

		crcBytes, err := br.ReadExact(4)
		if err == nil {
			want := uint32(crcBytes[0])<<24 | uint32(crcBytes[1])<<16 | uint32(crcBytes[2])<<8 | uint32(crcBytes[3])
			scratch := borrowBuffer(len(typBytes) + len(data))
			copy(scratch, typBytes)
			copy(scratch[len(typBytes):], data)
			got := crc32.ChecksumIEEE(scratch)
			releaseBuffer(scratch)
			if got != want {
				if strict {
					return chunks, &ErrStructural{Detail: fmt.Sprintf("CRC mismatch in %s chunk (strict mode)", typ)}
				}
				meta.Note("CRC mismatch in %s", typ)
			}
		}

		chunks = append(chunks, chunk{typ: typ, data: data})
		if typ == "IEND" {
			return chunks, nil
		}
	}
}
