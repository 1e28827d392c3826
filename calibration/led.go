// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

const (
	ledMinExposure = 50
	ledMaxExposure = 3000
	ledMaxPasses   = 100
	ledTolerance   = 0.05 // 5%, per spec.md §4.5
)

// LEDCalibration adjusts the per-channel exposure triple until the three
// channel means are within 5% of each other and within [50,3000] line
// periods, per spec.md §4.5. CIS sensors only; CCD sensors skip this step
// entirely (the caller decides whether to call it).
func LEDCalibration(t transport.Interface, writeExposure func(descriptors.SensorExposure) error, initial descriptors.SensorExposure, lineWidth int) (descriptors.SensorExposure, error) {
	exp := initial
	if exp.R == 0 {
		exp = descriptors.SensorExposure{R: 400, G: 400, B: 400}
	}

	for pass := 0; pass < ledMaxPasses; pass++ {
		if err := writeExposure(exp); err != nil {
			return exp, err
		}
		means, err := scanLineMean(t, "led_calibration", lineWidth, 3)
		if err != nil {
			return exp, err
		}
		if withinTolerance(means) {
			break
		}
		target := average3(means)
		exp.R = adjustExposure(exp.R, means[0], target)
		exp.G = adjustExposure(exp.G, means[1], target)
		exp.B = adjustExposure(exp.B, means[2], target)
	}
	if exp.R < ledMinExposure || exp.R > ledMaxExposure ||
		exp.G < ledMinExposure || exp.G > ledMaxExposure ||
		exp.B < ledMinExposure || exp.B > ledMaxExposure {
		return exp, sane.Wrap(sane.StatusIOError, "led_calibration.range", nil)
	}
	return exp, nil
}

func withinTolerance(means [3]float64) bool {
	max, min := means[0], means[0]
	for _, m := range means[1:] {
		if m > max {
			max = m
		}
		if m < min {
			min = m
		}
	}
	if max == 0 {
		return true
	}
	return (max-min)/max <= ledTolerance
}

func average3(v [3]float64) float64 {
	return (v[0] + v[1] + v[2]) / 3
}

// adjustExposure nudges an exposure value proportionally to how far its
// channel mean is from the target mean, clamped to the legal range.
func adjustExposure(current int, mean, target float64) int {
	if mean <= 0 {
		mean = 1
	}
	adjusted := int(float64(current) * target / mean)
	if adjusted < ledMinExposure {
		adjusted = ledMinExposure
	}
	if adjusted > ledMaxExposure {
		adjusted = ledMaxExposure
	}
	return adjusted
}
