// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"sort"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

// ScanShadingLines reads n lines of lineWidth*3 interleaved bytes and
// returns the per-pixel per-channel median across them (spec.md §4.5, Dark
// shading / White shading).
func ScanShadingLines(t transport.Interface, checkpoint string, lineWidth, n int) ([][3]uint16, error) {
	samples := make([][3][]uint16, lineWidth)
	for i := range samples {
		samples[i] = [3][]uint16{}
	}
	for line := 0; line < n; line++ {
		t.TestCheckpoint(checkpoint)
		raw, err := t.BulkRead(lineWidth * 3)
		if err != nil {
			return nil, sane.Wrap(sane.StatusIOError, checkpoint, err)
		}
		for i := 0; i < lineWidth; i++ {
			for c := 0; c < 3; c++ {
				idx := i*3 + c
				if idx < len(raw) {
					samples[i][c] = append(samples[i][c], uint16(raw[idx])<<8)
				}
			}
		}
	}
	out := make([][3]uint16, lineWidth)
	for i := 0; i < lineWidth; i++ {
		for c := 0; c < 3; c++ {
			out[i][c] = median16(samples[i][c])
		}
	}
	return out, nil
}

func median16(v []uint16) uint16 {
	if len(v) == 0 {
		return 0
	}
	cp := append([]uint16{}, v...)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return uint16((int(cp[mid-1]) + int(cp[mid])) / 2)
}

// ComputeCoefficients implements the per-pixel formula from spec.md §4.5:
//
//	gain = clamp((targetBright-targetDark)*coeff / (br-dk), 0, 65535)
//	off  = clamp((dk*targetBright - br*targetDark) / (targetBright-targetDark), 0, 65535)
func ComputeCoefficients(dark, white [][3]uint16, coeff float64) Coefficients {
	n := len(dark)
	if len(white) < n {
		n = len(white)
	}
	var out Coefficients
	for c := 0; c < 3; c++ {
		out.PerChannel[c] = make([]PixelCoeff, n)
		for i := 0; i < n; i++ {
			dk := float64(dark[i][c])
			br := float64(white[i][c])
			var gain, off float64
			if br-dk != 0 {
				gain = clampU16((TargetBright - TargetDark) * coeff / (br - dk))
			}
			off = clampU16((dk*TargetBright - br*TargetDark) / (TargetBright - TargetDark))
			out.PerChannel[c][i] = PixelCoeff{Offset: uint16(off), Gain: uint16(gain)}
		}
	}
	return out
}

func clampU16(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return v
}

// EncodeShadingRAM lays out coefficients as two little-endian 16-bit
// values (dark_offset, gain) per pixel per channel, channel-major, the
// wire format write_buffer(0x3c, start_addr, bytes) expects.
func EncodeShadingRAM(c Coefficients) []byte {
	var out []byte
	for ch := 0; ch < 3; ch++ {
		for _, p := range c.PerChannel[ch] {
			out = append(out, byte(p.Offset), byte(p.Offset>>8), byte(p.Gain), byte(p.Gain>>8))
		}
	}
	return out
}

// WriteShadingData uploads encoded coefficients to shading RAM at the
// dpihw-bucketed start offset, unless the sensor uses host-side shading
// (in which case SHDAREA stays clear and nothing is uploaded; spec.md
// §4.6, Host-side vs ASIC-side shading).
func WriteShadingData(t transport.Interface, family asic.Family, dpihw int, sensor *descriptors.Sensor, c Coefficients) error {
	if sensor.UseHostSideCalib {
		return nil
	}
	addr := descriptors.ShadingStartOffset(family, dpihw)
	data := EncodeShadingRAM(c)
	return t.WriteBuffer(transport.KindShading, addr, data)
}
