// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package session translates a user-level scan request into a fully
// resolved ScanSession: pixel coordinates, exposure period, segment layout
// and the register values that realize them. Plan is a pure function of
// its inputs (spec.md §4.4, Determinism), which is what makes calibration
// cache lookups sound.
package session

import "github.com/sane-project/genesys/descriptors"

// ScanMode selects the pixel encoding requested by the frontend.
type ScanMode int

const (
	ModeLineart ScanMode = iota
	ModeHalftone
	ModeGray
	ModeColor
)

// ColorFilter selects which single channel a Gray-mode scan of a color
// sensor should read (CIS sensors can read R/G/B independently).
type ColorFilter int

const (
	FilterNone ColorFilter = iota
	FilterRed
	FilterGreen
	FilterBlue
)

// Settings is the user-level scan request, in millimeters/dpi, before any
// ASIC-specific resolution has been applied.
type Settings struct {
	XRes, YRes int // requested dots per inch

	TLX, TLY, BRX, BRY float64 // scan area corners, millimeters

	Depth    int // 1, 8 or 16
	Mode     ScanMode
	Method   descriptors.ScanMethod
	Filter   ColorFilter
	Threshold byte

	DisableInterpolation bool
}

// Channels returns the channel count implied by Mode.
func (s Settings) Channels() int {
	if s.Mode == ModeColor {
		return 3
	}
	return 1
}

// WidthMM and HeightMM return the requested scan area's dimensions.
func (s Settings) WidthMM() float64  { return s.BRX - s.TLX }
func (s Settings) HeightMM() float64 { return s.BRY - s.TLY }
