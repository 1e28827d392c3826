// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptors

import "github.com/sane-project/genesys/asic"

// CurveShape parametrizes the acceleration/deceleration curve used by
// slope-table generation: a vector of per-step period deltas normalized to
// [0,1] of the total ramp, interpreted by motion.GenerateSlopeTable.
type CurveShape struct {
	Name   string
	Points []float64 // monotonic decay fractions, exponential-ish by convention
}

// MotorProfile is one speed/step configuration a motor can run at.
type MotorProfile struct {
	MaxSpeedW int // step period at max speed, in ASIC clock units
	StepType  asic.StepType
	Curve     CurveShape
	MotorVref int // frontend-adjacent vref register value for this profile
}

// Motor is the immutable descriptor for a scan head's stepper motor.
type Motor struct {
	Name       string
	BaseYdpi   int
	Profiles   []MotorProfile // used for scan moves
	FastProfiles []MotorProfile // used for home/feed moves
}

// SlowestFast returns the slowest (most conservative) of the fast-feed
// profiles, used for the final approach into the home sensor.
func (m *Motor) SlowestFast() MotorProfile {
	slowest := m.FastProfiles[0]
	for _, p := range m.FastProfiles[1:] {
		if p.MaxSpeedW > slowest.MaxSpeedW {
			slowest = p
		}
	}
	return slowest
}

// FastestFast returns the fastest of the fast-feed profiles, used for long
// pre-feeds when the head is known to be far from home.
func (m *Motor) FastestFast() MotorProfile {
	fastest := m.FastProfiles[0]
	for _, p := range m.FastProfiles[1:] {
		if p.MaxSpeedW < fastest.MaxSpeedW {
			fastest = p
		}
	}
	return fastest
}

// ProfileFor selects the scan profile best matching a target speed: the
// slowest profile whose MaxSpeedW is still <= target, falling back to the
// fastest available profile.
func (m *Motor) ProfileFor(targetSpeed int) MotorProfile {
	fastest := m.Profiles[0]
	var best MotorProfile
	found := false
	for _, p := range m.Profiles {
		if p.MaxSpeedW < fastest.MaxSpeedW {
			fastest = p
		}
		if p.MaxSpeedW <= targetSpeed && (!found || p.MaxSpeedW > best.MaxSpeedW) {
			best = p
			found = true
		}
	}
	if !found {
		return fastest
	}
	return best
}
