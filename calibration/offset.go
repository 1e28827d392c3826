// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

// scanLineMean reads one line of lineWidth bytes per channel and returns
// each channel's average 8-bit sample. channels is typically 3 (raw
// R/G/B interleaved bytes) during calibration scans.
func scanLineMean(t transport.Interface, checkpoint string, lineWidth, channels int) ([3]float64, error) {
	t.TestCheckpoint(checkpoint)
	raw, err := t.BulkRead(lineWidth * channels)
	if err != nil {
		return [3]float64{}, sane.Wrap(sane.StatusIOError, checkpoint, err)
	}
	var sum [3]float64
	n := lineWidth
	for i := 0; i < n; i++ {
		for c := 0; c < channels; c++ {
			idx := i*channels + c
			if idx < len(raw) {
				sum[c] += float64(raw[idx])
			}
		}
	}
	if n == 0 {
		return [3]float64{}, nil
	}
	for c := range sum {
		sum[c] /= float64(n)
	}
	return sum, nil
}

// OffsetCalibration binary-searches each channel's offset register into
// [10,255] so the dark-pixel mean lands near zero, per spec.md §4.5.
// Analog Devices AFEs are self-calibrating and this is a no-op for them.
func OffsetCalibration(t transport.Interface, fe *descriptors.Frontend, lineWidth int) ([3]byte, error) {
	var result [3]byte
	if fe.Kind.SelfCalibrating() {
		return result, nil
	}

	addrs := [3]byte{fe.OffsetR, fe.OffsetG, fe.OffsetB}
	lo := [3]int{10, 10, 10}
	hi := [3]int{255, 255, 255}

	const maxIterations = 32
	for iter := 0; iter < maxIterations; iter++ {
		converged := true
		for c := 0; c < 3; c++ {
			if hi[c]-lo[c] <= 1 {
				continue
			}
			converged = false
			mid := (lo[c] + hi[c]) / 2
			if err := t.WriteFrontEndRegister(addrs[c], byte(mid)); err != nil {
				return result, err
			}
		}
		if converged {
			break
		}
		means, err := scanLineMean(t, "offset_calibration", lineWidth, 3)
		if err != nil {
			return result, err
		}
		for c := 0; c < 3; c++ {
			if hi[c]-lo[c] <= 1 {
				continue
			}
			mid := (lo[c] + hi[c]) / 2
			if means[c] > 0 {
				// mean above zero: the offset is pulling the signal up too
				// far, push the register lower next iteration.
				hi[c] = mid
			} else {
				lo[c] = mid
			}
		}
	}
	for c := 0; c < 3; c++ {
		result[c] = byte(lo[c])
		if err := t.WriteFrontEndRegister(addrs[c], result[c]); err != nil {
			return result, err
		}
	}
	return result, nil
}
