package jpegdec

import "github.com/aplefull/vexel/internal/bitio"

type scanComponent struct {
	comp   *component
	dcSel  int
	acSel  int
}

func (d *decoder) parseAndDecodeSOS(length int) error {
	body := d.br.ReadAvailable(length - 2)
	if len(body) < 1 {
		return &ErrStructural{Detail: "truncated SOS header"}
	}
	ns := int(body[0])
	off := 1
	var scanComps []scanComponent
	for i := 0; i < ns && off+2 <= len(body); i++ {
		id := int(body[off])
		td := int(body[off+1] >> 4)
		ta := int(body[off+1] & 0x0F)
		off += 2
		c, ok := d.compByID[id]
		if !ok {
			d.info.Note("SOS references unknown component id %d, skipped", id)
			continue
		}
		c.dcTableSel, c.acTableSel = td, ta
		scanComps = append(scanComps, scanComponent{comp: c, dcSel: td, acSel: ta})
	}
	ss, se, ah, al := 0, 63, 0, 0
	if off+3 <= len(body) {
		ss = int(body[off])
		se = int(body[off+1])
		ah = int(body[off+2] >> 4)
		al = int(body[off+2] & 0x0F)
	}
	if d.frame != frameProgressive && d.frame != frameLossless {
		ss, se = 0, 63
	}

	br := bitio.NewBitReader(d.br)
	if d.frame == frameLossless {
		// For SOF3, SOS's Ss field is repurposed as the predictor selector
		// (1..7) and Al as the point transform.
		d.decodeLosslessScan(br, scanComps, ss, al)
	} else if d.frame == frameProgressive && len(scanComps) == 1 && ss > 0 {
		d.decodeACScan(br, scanComps[0], ss, se, ah, al)
	} else if d.frame == frameProgressive && ss == 0 {
		d.decodeDCScan(br, scanComps, ah, al)
	} else {
		d.decodeBaselineScan(br, scanComps)
	}
	d.realign(br)
	return nil
}

// realign discards any partially consumed byte and leaves the byte cursor
// at the marker that stopped the entropy segment.
func (d *decoder) realign(br *bitio.BitReader) {
	br.AlignToByte()
}

// resyncRestart consumes an expected RSTm marker and resets DC predictors.
// If the marker is missing or not RSTm, it resynchronizes by treating the
// entropy segment as ended (premature EOI recovery).
func (d *decoder) resyncRestart(br *bitio.BitReader, comps []scanComponent) bool {
	br.AlignToByte()
	peek := d.br.Peek(2)
	if len(peek) == 2 && peek[0] == 0xFF && isRST(peek[1]) {
		d.br.Skip(2)
		for _, sc := range comps {
			sc.comp.dcPred = 0
		}
		return true
	}
	d.info.Note("expected restart marker not found, resynchronizing")
	return false
}

func (d *decoder) decodeBaselineScan(br *bitio.BitReader, comps []scanComponent) {
	for _, sc := range comps {
		sc.comp.dcPred = 0
	}
	restartCounter := d.restartN

	if len(comps) > 1 {
		for my := 0; my < d.mcusPerColumn; my++ {
			for mx := 0; mx < d.mcusPerLine; mx++ {
				for _, sc := range comps {
					c := sc.comp
					for by := 0; by < c.v; by++ {
						for bx := 0; bx < c.h; bx++ {
							blockCol := mx*c.h + bx
							blockRow := my*c.v + by
							idx := blockRow*c.blocksPerLine + blockCol
							d.decodeBaselineBlock(br, c, idx)
						}
					}
				}
				if d.restartN > 0 {
					restartCounter--
					if restartCounter == 0 {
						if !d.resyncRestart(br, comps) {
							return
						}
						restartCounter = d.restartN
					}
				}
				if m, ok := br.AtMarker(); ok && !isRST(m) {
					d.info.Note("premature end of stream")
					return
				}
			}
		}
		return
	}

	// Non-interleaved single-component scan.
	c := comps[0].comp
	for row := 0; row < c.blocksPerColumn; row++ {
		for col := 0; col < c.blocksPerLine; col++ {
			d.decodeBaselineBlock(br, c, row*c.blocksPerLine+col)
			if d.restartN > 0 {
				restartCounter--
				if restartCounter == 0 {
					if !d.resyncRestart(br, comps) {
						return
					}
					restartCounter = d.restartN
				}
			}
		}
	}
}

func (d *decoder) decodeBaselineBlock(br *bitio.BitReader, c *component, blockIdx int) {
	if blockIdx < 0 || blockIdx >= len(c.coeffs) {
		return
	}
	coefs := &c.coeffs[blockIdx]
	*coefs = [64]int32{}

	dc := d.dcHuff[c.dcTableSel]
	sym, ok := decodeSymbol(br, dc)
	diff := int32(0)
	if ok && sym > 0 {
		diff = int32(receiveExtend(br, int(sym)))
	} else if !ok {
		d.info.Note("undefined Huffman code encountered, coefficient zeroed")
	}
	c.dcPred += diff
	coefs[0] = c.dcPred

	ac := d.acHuff[c.acTableSel]
	k := 1
	for k <= 63 {
		rs, ok := decodeSymbol(br, ac)
		if !ok {
			d.info.Note("undefined Huffman code encountered, coefficient zeroed")
			break
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		if size == 0 {
			if run == 15 {
				k += 16
				continue
			}
			break // EOB
		}
		k += run
		if k > 63 {
			break
		}
		val := receiveExtend(br, size)
		coefs[zigzag[k]] = int32(val)
		k++
	}
	d.producedAnyBlock = true
}

// receiveExtend reads size bits and sign-extends per JPEG's category
// coding (Annex F.2.2.1), the same "extend" transform gen2brain-jpegn's
// decodeBlockACFirst applies inline.
func receiveExtend(br *bitio.BitReader, size int) int32 {
	if size == 0 {
		return 0
	}
	v := int32(br.ReadBits(size))
	if v < int32(1)<<(uint(size)-1) {
		v += (int32(-1) << uint(size)) + 1
	}
	return v
}

func (d *decoder) decodeDCScan(br *bitio.BitReader, comps []scanComponent, ah, al int) {
	if ah == 0 {
		for _, sc := range comps {
			sc.comp.dcPred = 0
		}
	}
	restartCounter := d.restartN

	visit := func(c *component, idx int) {
		if idx < 0 || idx >= len(c.coeffs) {
			return
		}
		if ah == 0 {
			dc := d.dcHuff[c.dcTableSel]
			sym, ok := decodeSymbol(br, dc)
			diff := int32(0)
			if ok && sym > 0 {
				diff = receiveExtend(br, int(sym))
			}
			c.dcPred += diff
			c.coeffs[idx][0] = c.dcPred << uint(al)
		} else {
			bit := br.ReadBit()
			if bit != 0 {
				c.coeffs[idx][0] |= 1 << uint(al)
			}
		}
	}

	if len(comps) > 1 {
		for my := 0; my < d.mcusPerColumn; my++ {
			for mx := 0; mx < d.mcusPerLine; mx++ {
				for _, sc := range comps {
					c := sc.comp
					for by := 0; by < c.v; by++ {
						for bx := 0; bx < c.h; bx++ {
							idx := (my*c.v+by)*c.blocksPerLine + (mx*c.h + bx)
							visit(c, idx)
						}
					}
				}
				if d.restartN > 0 {
					restartCounter--
					if restartCounter == 0 {
						if !d.resyncRestart(br, comps) {
							return
						}
						restartCounter = d.restartN
					}
				}
			}
		}
		return
	}

	c := comps[0].comp
	for row := 0; row < c.blocksPerColumn; row++ {
		for col := 0; col < c.blocksPerLine; col++ {
			visit(c, row*c.blocksPerLine+col)
			if d.restartN > 0 {
				restartCounter--
				if restartCounter == 0 {
					if !d.resyncRestart(br, comps) {
						return
					}
					restartCounter = d.restartN
				}
			}
		}
	}
}

// decodeACScan implements the non-interleaved progressive AC first/refine
// scans, including EOBRUN handling, grounded in gen2brain-jpegn's
// decodeBlockACFirst/decodeBlockACRefine.
func (d *decoder) decodeACScan(br *bitio.BitReader, sc scanComponent, ss, se, ah, al int) {
	c := sc.comp
	ac := d.acHuff[c.acTableSel]
	total := c.blocksPerLine * c.blocksPerColumn
	eobrun := 0
	restartCounter := d.restartN

	for idx := 0; idx < total; idx++ {
		if eobrun > 0 {
			if ah > 0 {
				refineEOB(br, &c.coeffs[idx], ss, se, al)
			}
			eobrun--
		} else if ah == 0 {
			eobrun = decodeACFirstBlock(br, ac, &c.coeffs[idx], ss, se, al, total-idx)
		} else {
			eobrun = decodeACRefineBlock(br, ac, &c.coeffs[idx], ss, se, al, total-idx)
		}

		if d.restartN > 0 {
			restartCounter--
			if restartCounter == 0 {
				eobrun = 0
				if !d.resyncRestart(br, []scanComponent{sc}) {
					return
				}
				restartCounter = d.restartN
			}
		}
	}
}

// decodeACFirstBlock decodes one block's AC coefficients for the initial
// (Ah=0) AC scan. Returns the EOB run count to apply to subsequent blocks
// (0 if none was signaled).
func decodeACFirstBlock(br *bitio.BitReader, ac *huffTable, coefs *[64]int32, ss, se, al, remaining int) int {
	for k := ss; k <= se; {
		rs, ok := decodeSymbol(br, ac)
		if !ok {
			return 0
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		if size == 0 {
			if run == 15 {
				k += 16
				continue
			}
			eobRun := 1 << uint(run)
			if run > 0 {
				eobRun += int(br.ReadBits(run))
			}
			if eobRun > remaining {
				eobRun = remaining
			}
			return eobRun - 1
		}
		k += run
		if k > se {
			return 0
		}
		val := receiveExtend(br, size)
		coefs[zigzag[k]] = val << uint(al)
		k++
	}
	return 0
}

// decodeACRefineBlock applies a refinement (Ah>0) AC scan to one block,
// per the algorithm grounded in gen2brain-jpegn's refineBlock: new
// coefficients are placed at the next zero position after skipping `run`
// zeros, while every non-zero coefficient passed over is corrected by one
// bit. Returns the EOB run to apply to subsequent blocks.
func decodeACRefineBlock(br *bitio.BitReader, ac *huffTable, coefs *[64]int32, ss, se, al, remaining int) int {
	delta := int32(1) << uint(al)
	k := ss

	for k <= se {
		rs, ok := decodeSymbol(br, ac)
		if !ok {
			return 0
		}
		run := int(rs >> 4)
		size := int(rs & 0x0F)
		var newVal int32

		switch size {
		case 0:
			if run != 15 { // EOB run
				eobRun := 1 << uint(run)
				if run > 0 {
					eobRun += int(br.ReadBits(run))
				}
				if eobRun > remaining {
					eobRun = remaining
				}
				refineTail(br, coefs, k, se, delta)
				return eobRun - 1
			}
			// ZRL: fall through to skip 16 zero coefficients, refining any
			// non-zero coefficients encountered along the way.
		case 1:
			bit := br.ReadBit()
			newVal = delta
			if bit == 0 {
				newVal = -delta
			}
		default:
			return 0 // malformed refinement symbol; stop this block rather than loop forever
		}

		zerosToSkip := run
		placed := false
		for k <= se {
			pos := zigzag[k]
			if coefs[pos] == 0 {
				if zerosToSkip == 0 {
					placed = true
					break
				}
				zerosToSkip--
			} else {
				refineOne(br, &coefs[pos], delta)
			}
			k++
		}
		if k > se {
			break
		}
		if newVal != 0 && placed {
			coefs[zigzag[k]] = newVal
		}
		k++
	}
	return 0
}

func refineTail(br *bitio.BitReader, coefs *[64]int32, from, to int, delta int32) {
	for k := from; k <= to; k++ {
		pos := zigzag[k]
		if coefs[pos] != 0 {
			refineOne(br, &coefs[pos], delta)
		}
	}
}

func refineOne(br *bitio.BitReader, coef *int32, delta int32) {
	bit := br.ReadBit()
	if bit == 0 {
		return
	}
	if *coef >= 0 {
		*coef += delta
	} else {
		*coef -= delta
	}
}

func refineEOB(br *bitio.BitReader, coefs *[64]int32, ss, se, al int) {
	delta := int32(1) << uint(al)
	refineTail(br, coefs, ss, se, delta)
}
