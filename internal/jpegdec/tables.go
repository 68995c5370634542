package jpegdec

// zigzag maps zig-zag scan position -> natural (row-major) 8x8 block
// position; DQT/DHT-quantized coefficients arrive in zig-zag order.
var zigzag = [64]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// quantTable holds one DQT table, up to 4 selectable (0..3).
type quantTable struct {
	values   [64]uint16
	present  bool
	precision int // 0 = 8-bit, 1 = 16-bit
}

// huffTable is the fast-lookup Huffman decode structure: a flat 8-bit
// primary table with a canonical-code fallback for longer codes.
type huffTable struct {
	present bool

	// fast[i] for the next 8 bits: high byte is the symbol, low byte is the
	// code length (0 if the code is longer than 8 bits and needs the slow
	// path below).
	fast [256]uint16

	// Slow path: canonical code table for codes of any length, used when
	// fast[] reports length 0.
	maxCode   [18]int32 // maxCode[len], -1 if none
	valPtr    [18]int32
	minCode   [18]int32
	symbols   []byte
}

// component is one SOF component's declared parameters.
type component struct {
	id        int
	h, v      int // sampling factors, 1..4
	quantSel  int
	dcTableSel int
	acTableSel int
	dcPred    int32 // running DC predictor for this scan

	// blocksPerLine/blocksPerColumn are the whole-MCU-grid block counts;
	// coeffs holds the full-image coefficient matrix every DCT scan kind
	// writes into, allocated once by parseSOF.
	blocksPerLine   int
	blocksPerColumn int
	coeffs          [][64]int32

	// output plane at this component's own (possibly subsampled) resolution.
	plane  []byte
	stride int
	pw, ph int
}
