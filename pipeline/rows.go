// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import "io"

// RowSource is the row-granular primitive every pipeline stage is built
// from: it either returns exactly one row of rowBytes or io.EOF. Treating
// rows as the unit (rather than arbitrary byte counts) lets stagger and
// color-offset correction buffer whole rows without re-slicing partial
// ones.
type RowSource interface {
	ReadRow() (row []byte, err error)
}

// RawRowSource wraps the USB bulk reader (or a mock in tests) as a
// RowSource, tracking how many bytes remain of the planner's computed
// total so it can emit EOF exactly where the session says to, and lets a
// sheet-fed end-of-document signal trim that total early (spec.md §4.6,
// End-of-scan).
type RawRowSource struct {
	r         io.Reader
	rowBytes  int
	remaining int // bytes not yet pulled off the wire
	consumed  int // bytes already pulled off the wire
}

// NewRawRowSource builds a RawRowSource that will yield exactly
// totalBytes/rowBytes rows before EOF.
func NewRawRowSource(r io.Reader, rowBytes, totalBytes int) *RawRowSource {
	return &RawRowSource{r: r, rowBytes: rowBytes, remaining: totalBytes}
}

// TrimRemaining re-targets the total byte budget (measured from the start
// of the scan, the same units as NewRawRowSource's totalBytes) down to
// totalBytes, used when a sheet-fed unit's paper sensor reports
// end-of-document before the originally planned total is reached. Bytes
// already pulled off the wire are accounted for, so a target at or below
// what has already been consumed ends the scan on the next ReadRow.
func (s *RawRowSource) TrimRemaining(totalBytes int) {
	newRemaining := totalBytes - s.consumed
	if newRemaining < 0 {
		newRemaining = 0
	}
	if newRemaining < s.remaining {
		s.remaining = newRemaining
	}
}

func (s *RawRowSource) ReadRow() ([]byte, error) {
	if s.remaining <= 0 {
		return nil, io.EOF
	}
	n := s.rowBytes
	if s.remaining < n {
		n = s.remaining
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.r, buf); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	s.remaining -= n
	s.consumed += n
	return buf, nil
}

// rowReaderAdapter exposes a RowSource as an io.Reader, the shape
// lifecycle.Handle.Read needs, buffering the tail of a row across calls
// whose caller-supplied slice is smaller than one row.
type rowReaderAdapter struct {
	src RowSource
	buf []byte
}

// AsReader adapts the outermost stage of a pipeline into an io.Reader.
func AsReader(src RowSource) io.Reader {
	return &rowReaderAdapter{src: src}
}

func (a *rowReaderAdapter) Read(p []byte) (int, error) {
	if len(a.buf) == 0 {
		row, err := a.src.ReadRow()
		if err != nil {
			return 0, err
		}
		a.buf = row
	}
	n := copy(p, a.buf)
	a.buf = a.buf[n:]
	return n, nil
}
