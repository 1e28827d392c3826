// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

// ByteSwap16 swaps each pair of bytes in a 16-bit-depth row, for ASICs
// whose INVERTED_16BIT_DATA quirk delivers little-endian samples the host
// expects big-endian (spec.md §4.6, step 2).
type ByteSwap16 struct {
	upstream RowSource
}

func NewByteSwap16(upstream RowSource) *ByteSwap16 { return &ByteSwap16{upstream: upstream} }

func (b *ByteSwap16) ReadRow() ([]byte, error) {
	row, err := b.upstream.ReadRow()
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(row); i += 2 {
		row[i], row[i+1] = row[i+1], row[i]
	}
	return row, nil
}

// MonoBitShift corrects the MONO_ADJUST quirk on 1-bit lineart rows: the
// ASIC emits each line shifted by pixelsPerLine mod 8 bits across byte
// boundaries; this stage shifts it back.
type MonoBitShift struct {
	upstream      RowSource
	bitOffset     uint
}

// NewMonoBitShift builds a shifter for the given pixels-per-line; bitOffset
// is derived as pixelsPerLine mod 8 internally by the caller composing the
// pipeline (kept explicit here so tests can drive it directly).
func NewMonoBitShift(upstream RowSource, bitOffset uint) *MonoBitShift {
	return &MonoBitShift{upstream: upstream, bitOffset: bitOffset % 8}
}

func (m *MonoBitShift) ReadRow() ([]byte, error) {
	row, err := m.upstream.ReadRow()
	if err != nil {
		return nil, err
	}
	if m.bitOffset == 0 {
		return row, nil
	}
	var carry byte
	for i := len(row) - 1; i >= 0; i-- {
		b := row[i]
		row[i] = (b << m.bitOffset) | carry
		carry = b >> (8 - m.bitOffset)
	}
	return row, nil
}
