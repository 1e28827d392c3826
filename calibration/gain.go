// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/transport"
)

// percentile95 returns the 95th percentile of samples (copied and sorted;
// gonum/stat.Quantile requires ascending input). The 95th percentile,
// rather than the max, rejects noise/hot pixels per spec.md §4.5.
func percentile95(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	cp := append([]float64{}, samples...)
	sort.Float64s(cp)
	return stat.Quantile(0.95, stat.Empirical, cp, nil)
}

// CoarseGainCalibration scans the white reference strip and sets each
// channel's gain register so its 95th-percentile sample maps to
// sensor.WhiteRef * coeff, per spec.md §4.5. CIS sensors additionally
// unify the three gains to the minimum.
func CoarseGainCalibration(t transport.Interface, fe *descriptors.Frontend, sensor *descriptors.Sensor, lineWidth int, coeff float64) ([3]byte, error) {
	t.TestCheckpoint("coarse_gain_calibration")
	raw, err := t.BulkRead(lineWidth * 3)
	if err != nil {
		return [3]byte{}, err
	}
	perChannel := [3][]float64{}
	for i := 0; i < lineWidth; i++ {
		for c := 0; c < 3; c++ {
			idx := i*3 + c
			if idx < len(raw) {
				perChannel[c] = append(perChannel[c], float64(raw[idx]))
			}
		}
	}

	var p95 [3]float64
	for c := 0; c < 3; c++ {
		p95[c] = percentile95(perChannel[c])
	}

	target := float64(sensor.WhiteRef) * coeff
	var gains [3]int
	for c := 0; c < 3; c++ {
		if p95[c] <= 0 {
			gains[c] = int(sensor.GainRef)
			continue
		}
		gains[c] = clampByte(int(float64(sensor.GainRef) * target / p95[c]))
	}

	if sensor.IsCIS {
		min := gains[0]
		for _, g := range gains[1:] {
			if g < min {
				min = g
			}
		}
		gains = [3]int{min, min, min}
	}

	addrs := [3]byte{fe.GainR, fe.GainG, fe.GainB}
	var result [3]byte
	for c := 0; c < 3; c++ {
		result[c] = byte(gains[c])
		if err := t.WriteFrontEndRegister(addrs[c], result[c]); err != nil {
			return result, err
		}
	}
	return result, nil
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
