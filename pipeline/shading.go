// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

// HostShading applies per-pixel per-channel dark-offset/gain coefficients
// in software, for sensors marked use_host_side_calib (spec.md §4.6, step
// 5): p = clamp(((raw - dk) * gain) >> 15, 0, 65535). Coefficients are
// supplied pre-expanded to one (offset, gain) pair per pixel-channel, in
// row order, matching calibration.Coefficients.PerChannel.
type HostShading struct {
	upstream        RowSource
	offset, gain    [3][]uint16 // per channel, indexed by pixel position
	bytesPerChannel int
}

// NewHostShading wraps upstream with host-side shading. offset/gain are
// calibration.Coefficients.PerChannel's Offset/Gain fields, split out to
// avoid an import cycle between pipeline and calibration.
func NewHostShading(upstream RowSource, offset, gain [3][]uint16, bytesPerChannel int) *HostShading {
	return &HostShading{upstream: upstream, offset: offset, gain: gain, bytesPerChannel: bytesPerChannel}
}

func (h *HostShading) ReadRow() ([]byte, error) {
	row, err := h.upstream.ReadRow()
	if err != nil {
		return nil, err
	}
	bc := h.bytesPerChannel
	npix := len(row) / (3 * bc)
	for p := 0; p < npix; p++ {
		for ch := 0; ch < 3; ch++ {
			off := p*3*bc + ch*bc
			if off+bc > len(row) || p >= len(h.offset[ch]) {
				continue
			}
			raw := readSample(row[off:off+bc], bc)
			dk := int64(h.offset[ch][p])
			gn := int64(h.gain[ch][p])
			val := ((raw - dk) * gn) >> 15
			val = clamp64(val, 0, 65535)
			writeSample(row[off:off+bc], bc, val)
		}
	}
	return row, nil
}

func readSample(b []byte, n int) int64 {
	if n == 1 {
		return int64(b[0]) << 8
	}
	return int64(b[0]) | int64(b[1])<<8
}

func writeSample(b []byte, n int, v int64) {
	if n == 1 {
		b[0] = byte(v >> 8)
		return
	}
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
