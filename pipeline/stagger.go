// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

// Stagger corrects a CCD's physical row offset between even and odd
// columns: it buffers numStaggeredLines rows and emits each output row by
// taking even-column pixels from the current row and odd-column pixels
// from the row staggered positions behind (or the reverse, when
// invertColumns is set), per spec.md §4.6, step 3.
type Stagger struct {
	upstream      RowSource
	staggered     int
	bytesPerPixel int
	invert        bool

	history [][]byte // the last `staggered`+1 raw rows (current included), oldest first
}

// NewStagger wraps upstream with stagger correction. If staggered <= 0 the
// caller should skip wrapping entirely (num_staggered_lines == 0).
func NewStagger(upstream RowSource, staggered, bytesPerPixel int, invertColumns bool) *Stagger {
	return &Stagger{upstream: upstream, staggered: staggered, bytesPerPixel: bytesPerPixel, invert: invertColumns}
}

func (s *Stagger) ReadRow() ([]byte, error) {
	cur, err := s.upstream.ReadRow()
	if err != nil {
		return nil, err
	}
	s.history = append(s.history, cur)
	if len(s.history) > s.staggered+1 {
		s.history = s.history[1:]
	}
	lagged := s.history[0]

	bp := s.bytesPerPixel
	npix := len(cur) / bp
	out := make([]byte, len(cur))
	for col := 0; col < npix; col++ {
		even := col%2 == 0
		useLagged := even == s.invert
		src := cur
		if useLagged {
			src = lagged
		}
		off := col * bp
		if off+bp <= len(src) {
			copy(out[off:off+bp], src[off:off+bp])
		}
	}
	return out, nil
}
