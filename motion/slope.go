// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package motion computes motor acceleration/deceleration slope tables
// from a motor profile, loads them into ASIC RAM, and drives the
// start/stop/home state machine for one scan head.
package motion

import (
	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
)

// gl843MaxSlopeLen is the slope table length cap for GL843 and every
// family without its own cap (GL646 uses 512, GL124 2048); table length
// is capped per-ASIC (spec.md §4.3).
const gl843MaxSlopeLen = 1024

func maxSlopeLenFor(family asic.Family) int {
	switch family {
	case asic.GL646:
		return 512
	case asic.GL124:
		return 2048
	default:
		return gl843MaxSlopeLen
	}
}

// StepMultiplier reads register 0x9D bits 2-3 to decide how many motor
// steps one slope-table entry advances: 1, 2 or 4.
func StepMultiplier(reg9D byte) int {
	switch (reg9D >> 2) & 0x03 {
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 1
	}
}

// GenerateSlopeTable produces the monotonically non-increasing sequence of
// step-period values described in spec.md §4.3: it starts at the profile's
// slow-start value and decays to max(targetSpeed, profile.MaxSpeedW),
// length capped per-ASIC and padded to a multiple of the step multiplier.
func GenerateSlopeTable(family asic.Family, profile descriptors.MotorProfile, targetSpeed, stepMultiplier int) []uint16 {
	floor := targetSpeed
	if profile.MaxSpeedW > floor {
		floor = profile.MaxSpeedW
	}
	maxLen := maxSlopeLenFor(family)

	points := profile.Curve.Points
	if len(points) == 0 {
		points = []float64{1, 0}
	}
	slowStart := floor * 4 // the ramp always starts meaningfully slower than cruise speed
	if slowStart <= floor {
		slowStart = floor + 1
	}

	table := make([]uint16, 0, maxLen)
	prev := uint16(0xffff)
	for i := 0; i < maxLen; i++ {
		frac := float64(i) / float64(maxLen-1)
		shape := sampleCurve(points, frac)
		v := floor + int(float64(slowStart-floor)*shape)
		if v < floor {
			v = floor
		}
		uv := uint16(v)
		if uv > prev {
			uv = prev // enforce monotonic non-increasing
		}
		table = append(table, uv)
		prev = uv
		if v <= floor {
			break
		}
	}
	if len(table) == 0 || table[len(table)-1] != uint16(floor) {
		table = append(table, uint16(floor))
	}

	if stepMultiplier <= 0 {
		stepMultiplier = 1
	}
	for len(table)%stepMultiplier != 0 {
		table = append(table, uint16(floor))
	}
	return table
}

// sampleCurve linearly interpolates the curve's decay-fraction points at
// position frac in [0,1].
func sampleCurve(points []float64, frac float64) float64 {
	if len(points) == 1 {
		return points[0]
	}
	pos := frac * float64(len(points)-1)
	i := int(pos)
	if i >= len(points)-1 {
		return points[len(points)-1]
	}
	t := pos - float64(i)
	return points[i] + (points[i+1]-points[i])*t
}

// SlopeBytes serializes a table little-endian, ready for
// transport.WriteGamma(0x28, addr, ...).
func SlopeBytes(table []uint16) []byte {
	out := make([]byte, len(table)*2)
	for i, v := range table {
		out[2*i] = byte(v)
		out[2*i+1] = byte(v >> 8)
	}
	return out
}

// sumUpTo returns the sum of table[0:n] (inclusive of index n-1), matching
// the Σ slope[0..stepno] notation in spec.md §4.3.
func sumUpTo(table []uint16, n int) int {
	total := 0
	for i := 0; i < n && i < len(table); i++ {
		total += int(table[i])
	}
	return total
}

// ZPhase computes the Z1/Z2 motor-step phase-correction values for a
// table, per spec.md §4.3:
//
//	Z1 = (Σ slope[0..stepno] + fwdstep*slope[stepno-1]) mod exposure
//	Z2 = (Σ slope[0..stepno] + feedl*slope[stepno-1]) mod exposure
//
// For yres > 600 the ASIC's per-line phase no longer matters and both
// values are forced to zero.
func ZPhase(table []uint16, stepno, fwdstep, feedl, exposure, yres int) (z1, z2 uint32) {
	if yres > 600 {
		return 0, 0
	}
	if exposure <= 0 || len(table) == 0 {
		return 0, 0
	}
	if stepno <= 0 {
		stepno = 1
	}
	if stepno > len(table) {
		stepno = len(table)
	}
	last := int(table[stepno-1])
	base := sumUpTo(table, stepno)
	if feedl <= 0 {
		feedl = 1
	}
	z1 = uint32((base + fwdstep*last) % exposure)
	z2 = uint32((base + feedl*last) % exposure)
	return z1, z2
}
