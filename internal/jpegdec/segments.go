package jpegdec

import "fmt"

func (d *decoder) parseSOF(marker byte, length int) error {
	switch marker {
	case 0xC0:
		d.frame = frameBaseline
	case 0xC1:
		d.frame = frameExtendedSequential
	case 0xC2:
		d.frame = frameProgressive
	case 0xC3:
		d.frame = frameLossless
	default:
		return &ErrUnsupportedFeature{Feature: "arithmetic-coded or hierarchical JPEG"}
	}
	if d.frame == frameExtendedSequential {
		// SOF1 is explicitly unsupported; report and stop before any pixels
		// are produced.
		return &ErrUnsupportedFeature{Feature: "extended sequential JPEG (SOF1)"}
	}

	body := d.br.ReadAvailable(length - 2)
	if len(body) < 6 {
		return &ErrStructural{Detail: "truncated SOF segment"}
	}
	d.precision = int(body[0])
	d.height = int(body[1])<<8 | int(body[2])
	d.width = int(body[3])<<8 | int(body[4])
	numComp := int(body[5])
	if numComp != 1 && numComp != 3 && numComp != 4 {
		if d.strict {
			return &ErrStructural{Detail: fmt.Sprintf("SOF component count %d out of range (strict mode)", numComp)}
		}
		d.info.Note("SOF component count %d out of range, clamped to 3", numComp)
		numComp = 3
	}

	off := 6
	d.maxH, d.maxV = 1, 1
	for i := 0; i < numComp && off+3 <= len(body); i++ {
		id := int(body[off])
		h := int(body[off+1] >> 4)
		v := int(body[off+1] & 0x0F)
		q := int(body[off+2])
		off += 3
		if h < 1 || h > 4 || v < 1 || v > 4 {
			if d.strict {
				return &ErrStructural{Detail: fmt.Sprintf("component %d sampling factors out of range (strict mode)", id)}
			}
			d.info.Note("component %d sampling factors out of range, clamped", id)
			if h < 1 || h > 4 {
				h = 1
			}
			if v < 1 || v > 4 {
				v = 1
			}
		}
		if q < 0 || q > 3 {
			q = 0
		}
		c := &component{id: id, h: h, v: v, quantSel: q}
		d.components = append(d.components, c)
		d.compByID[id] = c
		if h > d.maxH {
			d.maxH = h
		}
		if v > d.maxV {
			d.maxV = v
		}
	}

	d.mcusPerLine = ceilDiv(d.width, 8*d.maxH)
	d.mcusPerColumn = ceilDiv(d.height, 8*d.maxV)

	for _, c := range d.components {
		c.blocksPerLine = d.mcusPerLine * c.h
		c.blocksPerColumn = d.mcusPerColumn * c.v
		total := c.blocksPerLine * c.blocksPerColumn
		if total < 0 || total > 1<<24 {
			return &ErrStructural{Detail: "declared frame dimensions too large"}
		}
		c.coeffs = make([][64]int32, total)
		c.pw = c.blocksPerLine * 8
		c.ph = c.blocksPerColumn * 8
		c.stride = c.pw
		c.plane = make([]byte, c.pw*c.ph)
	}
	return nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (d *decoder) parseDQT(length int) {
	body := d.br.ReadAvailable(length - 2)
	off := 0
	for off < len(body) {
		pq := int(body[off] >> 4)
		tq := int(body[off] & 0x0F)
		off++
		if tq > 3 {
			d.info.Note("DQT table selector %d out of range, ignored", tq)
			break
		}
		var t quantTable
		t.present = true
		t.precision = pq
		for i := 0; i < 64; i++ {
			var v uint16
			if pq == 0 {
				if off >= len(body) {
					d.info.Note("truncated DQT table")
					return
				}
				v = uint16(body[off])
				off++
			} else {
				if off+1 >= len(body) {
					d.info.Note("truncated DQT table")
					return
				}
				v = uint16(body[off])<<8 | uint16(body[off+1])
				off += 2
			}
			t.values[zigzag[i]] = v
		}
		d.quant[tq] = t
	}
}

func (d *decoder) parseDHT(length int) {
	body := d.br.ReadAvailable(length - 2)
	off := 0
	for off < len(body) {
		tc := int(body[off] >> 4) // 0 = DC, 1 = AC
		th := int(body[off] & 0x0F)
		off++
		if th > 3 || off+16 > len(body) {
			d.info.Note("truncated or invalid DHT segment")
			return
		}
		var counts [16]byte
		total := 0
		for i := 0; i < 16; i++ {
			counts[i] = body[off+i]
			total += int(counts[i])
		}
		off += 16
		if off+total > len(body) {
			d.info.Note("truncated DHT symbol list")
			total = len(body) - off
			if total < 0 {
				total = 0
			}
		}
		symbols := append([]byte(nil), body[off:off+total]...)
		off += total

		table := buildHuffTable(counts, symbols)
		if tc == 0 {
			d.dcHuff[th] = table
		} else {
			d.acHuff[th] = table
		}
	}
}

func (d *decoder) parseDRI(length int) {
	body := d.br.ReadAvailable(length - 2)
	if len(body) >= 2 {
		d.restartN = int(body[0])<<8 | int(body[1])
	}
}
