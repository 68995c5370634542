package tiffdec

import "encoding/binary"

type byteOrder = binary.ByteOrder

type entry struct {
	tag      uint16
	typ      uint16
	count    uint32
	valueRaw [4]byte
}

func typeSize(typ uint16) int {
	switch typ {
	case 1, 2, 6, 7: // BYTE, ASCII, SBYTE, UNDEFINED
		return 1
	case 3, 8: // SHORT, SSHORT
		return 2
	case 4, 9, 11: // LONG, SLONG, FLOAT
		return 4
	case 5, 10, 12: // RATIONAL, SRATIONAL, DOUBLE
		return 8
	default:
		return 0
	}
}

func readIFD(data []byte, offset int, bo byteOrder) ([]entry, int, bool) {
	if offset+2 > len(data) {
		return nil, 0, false
	}
	count := int(bo.Uint16(data[offset : offset+2]))
	offset += 2
	entries := make([]entry, 0, count)
	for i := 0; i < count; i++ {
		if offset+12 > len(data) {
			return entries, 0, false
		}
		e := entry{
			tag:   bo.Uint16(data[offset : offset+2]),
			typ:   bo.Uint16(data[offset+2 : offset+4]),
			count: bo.Uint32(data[offset+4 : offset+8]),
		}
		copy(e.valueRaw[:], data[offset+8:offset+12])
		entries = append(entries, e)
		offset += 12
	}
	if offset+4 > len(data) {
		return entries, 0, true
	}
	next := int(bo.Uint32(data[offset : offset+4]))
	return entries, next, true
}

// values decodes an entry's payload as a slice of unsigned integers,
// resolving the offset indirection when the values don't fit inline.
func (e entry) values(data []byte, bo byteOrder) []uint32 {
	sz := typeSize(e.typ)
	if sz == 0 || e.count == 0 {
		return nil
	}
	total := sz * int(e.count)
	var src []byte
	if total <= 4 {
		src = e.valueRaw[:total]
	} else {
		off := int(bo.Uint32(e.valueRaw[:]))
		if off < 0 || off+total > len(data) {
			return nil
		}
		src = data[off : off+total]
	}
	out := make([]uint32, e.count)
	for i := 0; i < int(e.count); i++ {
		chunk := src[i*sz : i*sz+sz]
		switch sz {
		case 1:
			out[i] = uint32(chunk[0])
		case 2:
			out[i] = uint32(bo.Uint16(chunk))
		case 4:
			out[i] = bo.Uint32(chunk)
		default:
			out[i] = 0
		}
	}
	return out
}

func findEntry(entries []entry, tag uint16) (entry, bool) {
	for _, e := range entries {
		if e.tag == tag {
			return e, true
		}
	}
	return entry{}, false
}

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagPlanarConfig    = 284
)
