package inflate

import "sort"

// huffmanTable is a canonical Huffman decode table built from a list of
// code lengths, one per symbol, per RFC 1951 §3.2.2.
//
// Grounded on the shape of awslabs-soci-snapshotter's forked
// compress/flate huffmanDecoder (a chunk-indexed fast table with an
// overflow path for long codes), simplified to a single sorted-code walk
// since Vexel decodes fully in memory and does not need the streaming
// bit-count optimizations that fork carries for the incremental case.
type huffmanTable struct {
	counts  [maxCodeLen + 1]int // number of codes of each length
	symbols []int               // symbols in canonical order
	minLen  int
	maxLen  int
}

const maxCodeLen = 15

// buildHuffman constructs a table from per-symbol code lengths (0 = symbol
// unused). Returns an error if the lengths are over-subscribed. An
// under-subscribed table (some code space unused) is not treated as an
// error: under-subscribed trees decode fine, they just leave some codes
// undefined.
func buildHuffman(lengths []int) (*huffmanTable, error) {
	t := &huffmanTable{minLen: maxCodeLen + 1}
	type entry struct {
		sym, length int
	}
	var entries []entry
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		if l > maxCodeLen {
			return nil, errOversubscribed
		}
		t.counts[l]++
		entries = append(entries, entry{sym, l})
		if l < t.minLen {
			t.minLen = l
		}
		if l > t.maxLen {
			t.maxLen = l
		}
	}
	if len(entries) == 0 {
		return t, nil
	}

	// Verify the Kraft inequality holds (not over-subscribed).
	space := 0
	for l := 1; l <= maxCodeLen; l++ {
		space += t.counts[l] << uint(maxCodeLen-l)
	}
	if space > (1 << maxCodeLen) {
		return nil, errOversubscribed
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].length != entries[j].length {
			return entries[i].length < entries[j].length
		}
		return entries[i].sym < entries[j].sym
	})
	t.symbols = make([]int, len(entries))
	for i, e := range entries {
		t.symbols[i] = e.sym
	}
	return t, nil
}

// decode reads one symbol from br using canonical Huffman decoding: walk
// bit by bit, tracking (code, first code of this length, index into the
// sorted symbol list), the textbook approach for a from-scratch canonical
// decoder.
func (t *huffmanTable) decode(br *bitReader) (int, error) {
	if len(t.symbols) == 0 {
		return 0, errUnderSubscribedRead
	}
	code := 0
	first := 0
	index := 0
	for length := 1; length <= maxCodeLen; length++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | bit
		count := t.counts[length]
		if code-first < count {
			return t.symbols[index+code-first], nil
		}
		index += count
		first += count
		first <<= 1
	}
	return 0, errBadCode
}
