// Package xformat implements the format probe: a magic-number classifier
// over the first bytes of a source buffer.
//
// Directly generalizes gomantics-imx/formats/detector.go's Detect, adding
// NetPBM and TIFF (outside that teacher's WebP-inclusive, TIFF-less format
// set) and dropping WebP (outside Vexel's supported format list).
package xformat

import "github.com/aplefull/vexel/internal/info"

var pngSignature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Detect examines up to the first 16 bytes of buf and returns the matching
// format, or FormatUnknown if none of the known magic sequences match.
// First match wins; no extension inspection is performed.
func Detect(buf []byte) info.Format {
	head := buf
	if len(head) > 16 {
		head = head[:16]
	}

	if len(head) >= 3 && head[0] == 0xFF && head[1] == 0xD8 && head[2] == 0xFF {
		return info.FormatJPEG
	}
	if hasPrefix(head, pngSignature[:]) {
		return info.FormatPNG
	}
	if len(head) >= 6 && head[0] == 'G' && head[1] == 'I' && head[2] == 'F' &&
		head[3] == '8' && (head[4] == '7' || head[4] == '9') && head[5] == 'a' {
		return info.FormatGIF
	}
	if len(head) >= 2 && head[0] == 'B' && head[1] == 'M' {
		return info.FormatBMP
	}
	if len(head) >= 2 && head[0] == 'P' && head[1] >= '1' && head[1] <= '7' {
		return info.FormatNetPBM
	}
	if len(head) >= 4 {
		if head[0] == 'I' && head[1] == 'I' && head[2] == 0x2A && head[3] == 0x00 {
			return info.FormatTIFF
		}
		if head[0] == 'M' && head[1] == 'M' && head[2] == 0x00 && head[3] == 0x2A {
			return info.FormatTIFF
		}
	}
	return info.FormatUnknown
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if buf[i] != b {
			return false
		}
	}
	return true
}
