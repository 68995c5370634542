package pngdec

import "sync"

// bytePool holds scratch buffers reused across chunk CRC checks and
// scanline defiltering, which would otherwise allocate and discard a fresh
// slice per chunk or per row. Grounded on gomantics-imx/metadata.go's
// bytePool/borrowBuffer/releaseBuffer, generalized from a single shared
// buffer per metadata read to many short-lived buffers per decode.
var bytePool = sync.Pool{
	New: func() interface{} {
		return make([]byte, 4096)
	},
}

// borrowBuffer returns a scratch slice of exactly size bytes, growing past
// the pooled backing array's capacity when needed. The caller must
// releaseBuffer it once done; the contents are meaningless after release.
func borrowBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}
	buf := bytePool.Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

func releaseBuffer(buf []byte) {
	if buf == nil {
		return
	}
	bytePool.Put(buf)
}
