// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesegmentIdentityPermutation(t *testing.T) {
	// Two segments of 2 pixels, identity order: output should equal input.
	row := []byte{1, 2, 3, 4}
	src := &fixedRowSource{rows: [][]byte{row}}
	d := NewDesegment(src, 2, 2, []int{0, 1}, 1)
	out, err := d.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestDesegmentInvertedPermutation(t *testing.T) {
	// raw is the interleaved wire layout: pos0's segments then pos1's
	// segments, i.e. raw[pos*segmentCount+seg]. pos0: seg0=10, seg1=20.
	// pos1: seg0=11, seg1=21. segmentOrder {1,0} means the output reads
	// segment 1 before segment 0 at each position.
	raw := []byte{10, 20, 11, 21}
	src := &fixedRowSource{rows: [][]byte{raw}}
	d := NewDesegment(src, 2, 2, []int{1, 0}, 1)
	out, err := d.ReadRow()
	require.NoError(t, err)
	// i=0: order[0%2]=1, pos=0 -> raw[0*2+1]=raw[1]=20
	// i=1: order[1%2]=0, pos=0 -> raw[0*2+0]=raw[0]=10
	// i=2: order[0]=1, pos=1   -> raw[1*2+1]=raw[3]=21
	// i=3: order[1]=0, pos=1   -> raw[1*2+0]=raw[2]=11
	assert.Equal(t, []byte{20, 10, 21, 11}, out)
}

func TestByteSwap16(t *testing.T) {
	src := &fixedRowSource{rows: [][]byte{{0x12, 0x34, 0x56, 0x78}}}
	s := NewByteSwap16(src)
	out, err := s.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x34, 0x12, 0x78, 0x56}, out)
}

func TestStaggerIdempotentWhenZero(t *testing.T) {
	rows := [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}
	src := &fixedRowSource{rows: rows}
	// staggered=0 still requires history depth 1: row 0 is its own lag.
	s := NewStagger(src, 0, 1, false)
	out0, err := s.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, rows[0], out0)
}

func TestStaggerUsesLaggedRowForOddColumns(t *testing.T) {
	rows := [][]byte{
		{1, 2, 3, 4}, // row 0
		{5, 6, 7, 8}, // row 1 (current when lag=1 available)
	}
	src := &fixedRowSource{rows: rows}
	s := NewStagger(src, 1, 1, false)

	_, err := s.ReadRow() // primes history with row 0, lag == current
	require.NoError(t, err)

	out, err := s.ReadRow()
	require.NoError(t, err)
	// even columns (0,2) from current row1={5,6,7,8}; odd columns (1,3) from lagged row0={1,2,3,4}
	assert.Equal(t, []byte{5, 2, 7, 4}, out)
}

func TestColorOffsetZeroShiftPassesThrough(t *testing.T) {
	row := []byte{1, 2, 3, 4, 5, 6} // 2 RGB pixels, 1 byte/channel
	src := &fixedRowSource{rows: [][]byte{row}}
	c := NewColorOffset(src, 0, 0, 0, 1)
	out, err := c.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, row, out)
}

func TestLineartThresholdPacksBits(t *testing.T) {
	gray := []byte{0, 0, 0, 0, 0, 0, 0, 0, 200, 200}
	src := &fixedRowSource{rows: [][]byte{gray}}
	l := NewLineartThreshold(src, FlatThresholdLUT(len(gray), 128))
	out, err := l.ReadRow()
	require.NoError(t, err)
	// first 8 samples all below threshold -> all bits set -> 0xFF
	assert.Equal(t, byte(0xFF), out[0])
	// remaining 2 samples above threshold -> bits clear
	assert.Equal(t, byte(0x00), out[1]&0xC0)
}

func TestHostShadingIdentityCoefficients(t *testing.T) {
	row := []byte{0x00, 0x80, 0x00, 0x80, 0x00, 0x80} // 2 RGB pixels, high byte 0x80 = 32768
	src := &fixedRowSource{rows: [][]byte{row}}
	offset := [3][]uint16{{0, 0}, {0, 0}, {0, 0}}
	gain := [3][]uint16{{32768, 32768}, {32768, 32768}, {32768, 32768}} // 1.0 in Q15
	h := NewHostShading(src, offset, gain, 1)
	out, err := h.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, row, out)
}

func TestRawRowSourceEmitsEOFAtTotalBytes(t *testing.T) {
	data := bytes.Repeat([]byte{0xAA}, 40)
	src := NewRawRowSource(bytes.NewReader(data), 10, 20)
	_, err := src.ReadRow()
	require.NoError(t, err)
	_, err = src.ReadRow()
	require.NoError(t, err)
	_, err = src.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestRawRowSourceTrimRemainingForEarlyEOF(t *testing.T) {
	// Planned for 4 rows of 10 bytes (40 total); after 1 row is consumed,
	// TrimRemaining(20) re-targets the total (measured from the start, the
	// same units NewRawRowSource's totalBytes uses) down to 2 rows, so
	// exactly 1 more row is deliverable before EOF.
	data := bytes.Repeat([]byte{0xAA}, 40)
	src := NewRawRowSource(bytes.NewReader(data), 10, 40)
	_, err := src.ReadRow()
	require.NoError(t, err)
	src.TrimRemaining(20)
	_, err = src.ReadRow()
	require.NoError(t, err)
	_, err = src.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestAsReaderHandlesSmallCallerBuffers(t *testing.T) {
	src := &fixedRowSource{rows: [][]byte{{1, 2, 3, 4}}}
	r := AsReader(src)
	buf := make([]byte, 3)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// fixedRowSource replays a fixed list of rows, then io.EOF.
type fixedRowSource struct {
	rows [][]byte
	pos  int
}

func (f *fixedRowSource) ReadRow() ([]byte, error) {
	if f.pos >= len(f.rows) {
		return nil, io.EOF
	}
	row := f.rows[f.pos]
	f.pos++
	return row, nil
}
