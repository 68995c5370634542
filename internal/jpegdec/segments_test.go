package jpegdec

import (
	"testing"

	"github.com/aplefull/vexel/internal/bitio"
	"github.com/aplefull/vexel/internal/info"
)

func newTestDecoder(body []byte) *decoder {
	return &decoder{
		br:       bitio.NewByteReader(body),
		info:     info.New(info.FormatJPEG),
		compByID: make(map[int]*component),
	}
}

func TestParseSOFBaselineSingleComponent(t *testing.T) {
	body := []byte{
		8,    // precision
		0, 4, // height
		0, 4, // width
		1,          // component count
		1, 0x11, 0, // id=1, h=1 v=1, quant table 0
	}
	d := newTestDecoder(body)
	if err := d.parseSOF(0xC0, len(body)+2); err != nil {
		t.Fatalf("parseSOF() error = %v", err)
	}
	if d.frame != frameBaseline {
		t.Errorf("frame = %v, want frameBaseline", d.frame)
	}
	if d.width != 4 || d.height != 4 || d.precision != 8 {
		t.Errorf("width=%d height=%d precision=%d", d.width, d.height, d.precision)
	}
	if len(d.components) != 1 {
		t.Fatalf("len(components) = %d, want 1", len(d.components))
	}
	c := d.components[0]
	if c.id != 1 || c.h != 1 || c.v != 1 || c.quantSel != 0 {
		t.Errorf("component = %+v", c)
	}
	if d.mcusPerLine != 1 || d.mcusPerColumn != 1 {
		t.Errorf("mcusPerLine=%d mcusPerColumn=%d, want 1,1", d.mcusPerLine, d.mcusPerColumn)
	}
	if c.pw != 8 || c.ph != 8 || len(c.coeffs) != 1 {
		t.Errorf("pw=%d ph=%d len(coeffs)=%d", c.pw, c.ph, len(c.coeffs))
	}
}

func TestParseSOFStrictModeRejectsBadComponentCount(t *testing.T) {
	body := []byte{
		8,    // precision
		0, 4, // height
		0, 4, // width
		2, // component count, invalid (must be 1, 3, or 4)
		1, 0x11, 0,
		2, 0x11, 0,
	}
	d := newTestDecoder(body)
	d.strict = true
	err := d.parseSOF(0xC0, len(body)+2)
	if _, ok := err.(*ErrStructural); !ok {
		t.Fatalf("parseSOF() error = %v (%T), want *ErrStructural under strict mode", err, err)
	}
}

func TestParseSOFRejectsExtendedSequential(t *testing.T) {
	d := newTestDecoder(nil)
	err := d.parseSOF(0xC1, 2)
	if _, ok := err.(*ErrUnsupportedFeature); !ok {
		t.Fatalf("parseSOF() error = %v (%T), want *ErrUnsupportedFeature", err, err)
	}
}

func TestParseDQTBuildsZigzagOrderedTable(t *testing.T) {
	body := make([]byte, 1+64)
	body[0] = 0x00 // precision 0 (8-bit), table id 0
	for i := 0; i < 64; i++ {
		body[1+i] = byte(i + 1)
	}
	d := newTestDecoder(body)
	d.parseDQT(len(body) + 2)

	q := d.quant[0]
	if !q.present {
		t.Fatal("quant table 0 not marked present")
	}
	if q.values[zigzag[0]] != 1 {
		t.Errorf("values[zigzag[0]] = %d, want 1", q.values[zigzag[0]])
	}
	if q.values[zigzag[63]] != 64 {
		t.Errorf("values[zigzag[63]] = %d, want 64", q.values[zigzag[63]])
	}
	if q.values[zigzag[2]] != 3 {
		t.Errorf("values[zigzag[2]] = %d, want 3", q.values[zigzag[2]])
	}
}

func TestParseDHTBuildsHuffmanTable(t *testing.T) {
	counts := make([]byte, 16)
	counts[0] = 1
	counts[1] = 1
	body := []byte{0x00} // tc=0 (DC), th=0
	body = append(body, counts...)
	body = append(body, 0xAA, 0xBB)

	d := newTestDecoder(body)
	d.parseDHT(len(body) + 2)

	tbl := d.dcHuff[0]
	if tbl == nil || !tbl.present {
		t.Fatal("dcHuff[0] not populated")
	}
	if tbl.minCode[1] != 0 || tbl.maxCode[2] != 2 {
		t.Errorf("tbl = %+v", tbl)
	}
}

func TestParseDRI(t *testing.T) {
	body := []byte{0, 4}
	d := newTestDecoder(body)
	d.parseDRI(len(body) + 2)
	if d.restartN != 4 {
		t.Errorf("restartN = %d, want 4", d.restartN)
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{10, 3, 4},
		{9, 3, 3},
		{0, 5, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
