// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package descriptors holds the immutable per-model hardware description:
// sensor, motor, frontend and GPO descriptors, and the Device object that
// tracks one attached scanner's live state, the header/pin-registry
// pattern: built once at backend init and shared by reference across
// every handle that opens the model.
package descriptors

import "github.com/sane-project/genesys/asic"

// ScanMethod selects which physical head/lamp pair a scan uses.
type ScanMethod int

const (
	MethodFlatbed ScanMethod = iota
	MethodTransparency
	MethodTransparencyInfrared
)

// StaggerConfig describes when a sensor's double-row CCD staggering kicks
// in: at or above MinResolution, LinesAtMin rows of vertical realignment
// are required.
type StaggerConfig struct {
	MinResolution int
	LinesAtMin    int
}

// StaggerAt returns the number of staggered lines for the given x/y
// resolution pair, zero below MinResolution.
func (s StaggerConfig) StaggerAt(xres, yres int) int {
	if s.MinResolution == 0 || xres < s.MinResolution {
		return 0
	}
	return s.LinesAtMin
}

// SensorExposure is the per-channel integration time triple, in line
// periods.
type SensorExposure struct {
	R, G, B int
}

// RegisterOverride is one register value forced for a specific resolution,
// used by sensors whose optimal AFE/clock settings vary per dpi.
type RegisterOverride struct {
	Addr uint16
	Val  byte
}

// Sensor is the immutable descriptor for one sensor (CCD or CIS) variant.
type Sensor struct {
	Name string

	OpticalRes int // hardware dpi the sensor physically clocks at
	BlackPixels int
	DummyPixels int
	CCDStartOffset int

	WhiteRef int // target 95th-percentile ADC code for coarse-gain calibration
	GainRef  int

	// PerResolutionOverrides maps a requested xres to extra register writes
	// the planner must splice into the session's register set.
	PerResolutionOverrides map[int][]RegisterOverride
	// PerResolutionExposure maps a requested yres to the initial exposure
	// triple before LED calibration adjusts it.
	PerResolutionExposure map[int]SensorExposure

	SegmentSize  int
	SegmentOrder []int // permutation; empty means single-segment

	Stagger StaggerConfig

	UseHostSideCalib bool

	Channels []int        // legal channel counts, e.g. {1} or {1,3}
	Methods  []ScanMethod // legal scan methods

	Gamma [3]float64 // per-channel gamma exponent

	IsCIS bool
}

// SupportsMethod reports whether m is one of the sensor's legal methods.
func (s *Sensor) SupportsMethod(m ScanMethod) bool {
	for _, x := range s.Methods {
		if x == m {
			return true
		}
	}
	return false
}

// ExposureFor returns the configured initial exposure for yres, or a zero
// triple (meaning "use the sensor's LED-calibration default") if yres has
// no explicit override.
func (s *Sensor) ExposureFor(yres int) SensorExposure {
	if s.PerResolutionExposure == nil {
		return SensorExposure{}
	}
	return s.PerResolutionExposure[yres]
}

// OverridesFor returns the extra register writes for a requested xres, if
// any are configured.
func (s *Sensor) OverridesFor(xres int) []RegisterOverride {
	if s.PerResolutionOverrides == nil {
		return nil
	}
	return s.PerResolutionOverrides[xres]
}

// ShadingStartOffset captures the handful of places register semantics genuinely
// depend on the ASIC family rather than the sensor, e.g. shading RAM start
// offsets bucketed by dpihw (spec.md §3, Shading RAM layout).
func ShadingStartOffset(family asic.Family, dpihw int) uint32 {
	bucket := 0
	switch {
	case dpihw >= 2400:
		bucket = 2
	case dpihw >= 1200:
		bucket = 1
	default:
		bucket = 0
	}
	// GL124 moved the shading table further up RAM to make room for a
	// larger gamma table.
	base := uint32(0x0000)
	if family == asic.GL124 {
		base = 0x1000
	}
	return base + uint32(bucket)*0x4000
}
