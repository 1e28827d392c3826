// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package calibration runs the LED, offset, coarse-gain, dark-shading and
// white-shading procedures in ASIC-appropriate order, computes per-pixel
// shading coefficients, and persists/restores them through a keyed disk
// cache (spec.md §4.5).
package calibration

import (
	"time"

	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/session"
)

// Entry is one calibration cache record: a session fingerprint, the
// frontend register snapshot and exposure it was computed with, and the
// resulting dark/white per-pixel averages.
type Entry struct {
	Fingerprint session.Fingerprint

	FrontendOffset [3]byte
	FrontendGain   [3]byte
	Exposure       descriptors.SensorExposure

	AverageSize int
	DarkAverage [][3]uint16 // per-pixel, per-channel
	WhiteAverage [][3]uint16

	Timestamp time.Time
}

// Coefficients is the per-pixel (dark offset, gain) pair table written to
// shading RAM, two 16-bit little-endian values per pixel per channel
// (spec.md §3, Shading RAM layout).
type Coefficients struct {
	PerChannel [3][]PixelCoeff
}

// PixelCoeff is one pixel's dark-offset/gain pair for one channel.
type PixelCoeff struct {
	Offset uint16
	Gain   uint16
}

// Target brightness/darkness codes used by the coefficient formula in
// spec.md §4.5. These are ASIC-family-independent constants of the
// shading math, not registers.
const (
	TargetDark   = 0
	TargetBright = 65535
)
