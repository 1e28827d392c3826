// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

// ColorOffset corrects the physical distance between a CCD's R/G/B line
// sensors: it buffers maxShiftLines rows and reconstructs each output row
// by reading R from shiftR rows behind, G from shiftG, and B from shiftB
// (spec.md §4.6, step 4). bytesPerChannel is 1 or 2 depending on output
// depth.
type ColorOffset struct {
	upstream        RowSource
	shiftR, shiftG, shiftB int
	bytesPerChannel int

	history [][]byte // ring buffer, oldest first
	maxShift int
}

// NewColorOffset wraps upstream with inter-channel delay correction. If
// all three shifts are zero the caller should skip wrapping entirely.
func NewColorOffset(upstream RowSource, shiftR, shiftG, shiftB, bytesPerChannel int) *ColorOffset {
	max := shiftR
	if shiftG > max {
		max = shiftG
	}
	if shiftB > max {
		max = shiftB
	}
	return &ColorOffset{upstream: upstream, shiftR: shiftR, shiftG: shiftG, shiftB: shiftB, bytesPerChannel: bytesPerChannel, maxShift: max}
}

func (c *ColorOffset) rowAt(linesBehind int) []byte {
	idx := len(c.history) - 1 - linesBehind
	if idx < 0 {
		idx = 0
	}
	return c.history[idx]
}

func (c *ColorOffset) ReadRow() ([]byte, error) {
	cur, err := c.upstream.ReadRow()
	if err != nil {
		return nil, err
	}
	c.history = append(c.history, cur)
	if len(c.history) > c.maxShift+1 {
		c.history = c.history[1:]
	}

	bc := c.bytesPerChannel
	npix := len(cur) / (3 * bc)
	out := make([]byte, len(cur))

	rRow, gRow, bRow := c.rowAt(c.shiftR), c.rowAt(c.shiftG), c.rowAt(c.shiftB)
	for p := 0; p < npix; p++ {
		off := p * 3 * bc
		copyChannel(out, rRow, off, bc)
		copyChannel(out, gRow, off+bc, bc)
		copyChannel(out, bRow, off+2*bc, bc)
	}
	return out, nil
}

func copyChannel(dst, src []byte, off, n int) {
	if off+n <= len(src) && off+n <= len(dst) {
		copy(dst[off:off+n], src[off:off+n])
	}
}
