package inflate

// ZlibResult wraps Result with the zlib-specific recovery note for an
// Adler-32 mismatch: a checksum mismatch becomes a recovery note, not a
// failure.
type ZlibResult struct {
	Result
	HeaderValid   bool
	AdlerChecked  bool
	AdlerMatched  bool
}

// Zlib decompresses an RFC 1950 zlib stream: a 2-byte header, a raw
// DEFLATE payload, and a trailing 4-byte big-endian Adler-32.
func Zlib(data []byte) ZlibResult {
	if len(data) < 2 {
		return ZlibResult{Result: Result{Truncated: true, Reason: "zlib stream too short for header"}}
	}
	cmf := data[0]
	flg := data[1]
	cinfo := cmf >> 4
	method := cmf & 0x0F

	res := ZlibResult{}
	if method != 8 || cinfo > 7 || (uint16(cmf)<<8+uint16(flg))%31 != 0 {
		// Malformed header: still attempt to inflate the rest, since a
		// single corrupted header byte shouldn't prevent recovering pixels
		// from an otherwise intact stream.
		res.Result = Result{Truncated: true, Reason: "invalid zlib header"}
	} else {
		res.HeaderValid = true
	}

	payload := data[2:]
	trailerLen := 0
	if len(payload) >= 4 {
		trailerLen = 4
	}
	body := payload
	if trailerLen > 0 {
		body = payload[:len(payload)-trailerLen]
	}

	inflated := Inflate(body)
	res.Output = inflated.Output
	if inflated.Truncated {
		res.Truncated = true
		res.Reason = inflated.Reason
	}

	if trailerLen == 4 {
		want := adler32Of(res.Output)
		trailer := payload[len(payload)-4:]
		got := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
		res.AdlerChecked = true
		res.AdlerMatched = want == got
	}
	return res
}

func adler32Of(data []byte) uint32 {
	const mod = 65521
	var a, b uint32 = 1, 0
	for _, c := range data {
		a = (a + uint32(c)) % mod
		b = (b + a) % mod
	}
	return b<<16 | a
}
