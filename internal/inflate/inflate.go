// Package inflate implements RFC 1951 DEFLATE decompression and the RFC
// 1950 zlib wrapper, sufficient for PNG's IDAT/fdAT streams.
//
// gomantics-imx never inflates anything -- it reads PNG chunk headers only,
// for metadata. This package is grounded instead on the pack's
// awslabs-soci-snapshotter fork of compress/flate for the overall
// block-type/Huffman-table shape (stored / fixed / dynamic, a
// code-length alphabet building the literal/distance trees), rewritten from
// scratch as a small in-memory decoder: no io.Reader streaming, no
// bit-count bookkeeping for incremental reads, since bounded-memory
// streaming decode is out of scope.
package inflate

import "errors"

var (
	errOversubscribed     = errors.New("inflate: over-subscribed Huffman table")
	errUnderSubscribedRead = errors.New("inflate: decode against empty Huffman table")
	errBadCode            = errors.New("inflate: invalid Huffman code")
)

const (
	windowSize   = 32 * 1024
	maxLength    = 258
	minLength    = 3
	endOfBlock   = 256
)

var lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
var distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = [30]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
var codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// Result carries the decompressed bytes plus recovery information: inflate
// returns partial output on a malformed Huffman table rather than failing
// outright.
type Result struct {
	Output    []byte
	Truncated bool   // block loop stopped early due to malformed input
	Reason    string // human-readable note for ImageInfo.Notes, if Truncated
}

// Inflate decompresses a raw (headerless) DEFLATE stream.
func Inflate(data []byte) Result {
	br := newBitReader(data)
	out := make([]byte, 0, len(data)*3)

	var fixedLit, fixedDist *huffmanTable

	for {
		final, err := br.readBit()
		if err != nil {
			return Result{Output: out}
		}
		btype, err := br.readBits(2)
		if err != nil {
			return Result{Output: out, Truncated: true, Reason: "truncated DEFLATE block header"}
		}

		switch btype {
		case 0: // stored
			br.align()
			pos := br.bytePosition()
			if pos+4 > len(data) {
				return Result{Output: out, Truncated: true, Reason: "truncated stored block length"}
			}
			length := int(data[pos]) | int(data[pos+1])<<8
			nlength := int(data[pos+2]) | int(data[pos+3])<<8
			pos += 4
			if length^nlength != 0xFFFF {
				return Result{Output: out, Truncated: true, Reason: "stored block length check failed"}
			}
			if pos+length > len(data) {
				length = len(data) - pos
				if length < 0 {
					length = 0
				}
				out = append(out, data[pos:pos+length]...)
				return Result{Output: out, Truncated: true, Reason: "truncated stored block data"}
			}
			out = append(out, data[pos:pos+length]...)
			br.seekByte(pos + length)

		case 1, 2: // fixed / dynamic Huffman
			var lit, dist *huffmanTable
			if btype == 1 {
				if fixedLit == nil {
					fixedLit, fixedDist = buildFixedTables()
				}
				lit, dist = fixedLit, fixedDist
			} else {
				var derr error
				lit, dist, derr = readDynamicTables(br)
				if derr != nil {
					return Result{Output: out, Truncated: true, Reason: "malformed dynamic Huffman table: " + derr.Error()}
				}
			}

			for {
				sym, derr := lit.decode(br)
				if derr != nil {
					return Result{Output: out, Truncated: true, Reason: "truncated Huffman-coded block"}
				}
				if sym == endOfBlock {
					break
				}
				if sym < endOfBlock {
					out = append(out, byte(sym))
					continue
				}
				sym -= 257
				if sym >= len(lengthBase) {
					return Result{Output: out, Truncated: true, Reason: "invalid length code"}
				}
				length := lengthBase[sym]
				if lengthExtra[sym] > 0 {
					extra, eerr := br.readBits(lengthExtra[sym])
					if eerr != nil {
						return Result{Output: out, Truncated: true, Reason: "truncated length extra bits"}
					}
					length += extra
				}
				dsym, derr := dist.decode(br)
				if derr != nil {
					return Result{Output: out, Truncated: true, Reason: "truncated distance code"}
				}
				if dsym >= len(distBase) {
					return Result{Output: out, Truncated: true, Reason: "invalid distance code"}
				}
				distance := distBase[dsym]
				if distExtra[dsym] > 0 {
					extra, eerr := br.readBits(distExtra[dsym])
					if eerr != nil {
						return Result{Output: out, Truncated: true, Reason: "truncated distance extra bits"}
					}
					distance += extra
				}
				if distance > len(out) || distance > windowSize {
					return Result{Output: out, Truncated: true, Reason: "back-reference distance exceeds window"}
				}
				start := len(out) - distance
				for i := 0; i < length; i++ {
					out = append(out, out[start+i])
				}
			}

		default:
			return Result{Output: out, Truncated: true, Reason: "reserved block type"}
		}

		if final == 1 {
			break
		}
	}
	return Result{Output: out}
}

func buildFixedTables() (*huffmanTable, *huffmanTable) {
	litLengths := make([]int, 288)
	for i := 0; i < 144; i++ {
		litLengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		litLengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		litLengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		litLengths[i] = 8
	}
	distLengths := make([]int, 30)
	for i := range distLengths {
		distLengths[i] = 5
	}
	lit, _ := buildHuffman(litLengths)
	dist, _ := buildHuffman(distLengths)
	return lit, dist
}

func readDynamicTables(br *bitReader) (*huffmanTable, *huffmanTable, error) {
	hlit, err := br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hlit += 257
	hdist, err := br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist += 1
	hclen, err := br.readBits(4)
	if err != nil {
		return nil, nil, err
	}
	hclen += 4

	clLengths := make([]int, 19)
	for i := 0; i < hclen; i++ {
		v, err := br.readBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = v
	}
	clTable, err := buildHuffman(clLengths)
	if err != nil {
		return nil, nil, err
	}

	total := hlit + hdist
	lengths := make([]int, 0, total)
	var prev int
	for len(lengths) < total {
		sym, derr := clTable.decode(br)
		if derr != nil {
			return nil, nil, derr
		}
		switch {
		case sym < 16:
			lengths = append(lengths, sym)
			prev = sym
		case sym == 16:
			n, rerr := br.readBits(2)
			if rerr != nil {
				return nil, nil, rerr
			}
			n += 3
			for i := 0; i < n && len(lengths) < total; i++ {
				lengths = append(lengths, prev)
			}
		case sym == 17:
			n, rerr := br.readBits(3)
			if rerr != nil {
				return nil, nil, rerr
			}
			n += 3
			for i := 0; i < n && len(lengths) < total; i++ {
				lengths = append(lengths, 0)
			}
			prev = 0
		case sym == 18:
			n, rerr := br.readBits(7)
			if rerr != nil {
				return nil, nil, rerr
			}
			n += 11
			for i := 0; i < n && len(lengths) < total; i++ {
				lengths = append(lengths, 0)
			}
			prev = 0
		default:
			return nil, nil, errBadCode
		}
	}
	if len(lengths) < total {
		return nil, nil, errors.New("truncated code-length sequence")
	}

	litTable, err := buildHuffman(lengths[:hlit])
	if err != nil {
		return nil, nil, err
	}
	distTable, err := buildHuffman(lengths[hlit : hlit+hdist])
	if err != nil {
		return nil, nil, err
	}
	return litTable, distTable, nil
}
