package jpegdec

import "testing"

func TestDecodeMissingSOI(t *testing.T) {
	_, _, err := Decode([]byte{0x00, 0x01, 0x02}, Options{})
	if _, ok := err.(*ErrStructural); !ok {
		t.Fatalf("Decode() error = %v (%T), want *ErrStructural", err, err)
	}
}

func TestDecodeNoFrameHeaderIsStructural(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xD9} // SOI, EOI, no SOF at all
	_, _, err := Decode(data, Options{})
	if _, ok := err.(*ErrStructural); !ok {
		t.Fatalf("Decode() error = %v (%T), want *ErrStructural", err, err)
	}
}

func TestIsSOFRecognizesBaselineAndProgressive(t *testing.T) {
	for _, m := range []byte{0xC0, 0xC1, 0xC2, 0xC3} {
		if !isSOF(m) {
			t.Errorf("isSOF(0x%02X) = false, want true", m)
		}
	}
	if isSOF(0xD8) {
		t.Error("isSOF(SOI) = true, want false")
	}
}

func TestIsRSTRange(t *testing.T) {
	for m := byte(0xD0); m <= 0xD7; m++ {
		if !isRST(m) {
			t.Errorf("isRST(0x%02X) = false, want true", m)
		}
	}
	if isRST(0xD8) || isRST(0xCF) {
		t.Error("isRST out-of-range marker reported true")
	}
}
