// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package session

import "github.com/sane-project/genesys/asic"

// ScanSession is the planner's output: a read-only, fully resolved
// description of one scan, per spec.md §3.
type ScanSession struct {
	// Echoed request.
	Settings Settings

	// Derived optical parameters.
	OpticalResolution int
	HwdpiDivisor      int
	CCDSizeDivisor    int
	OpticalPixels     int
	OpticalPixelsRaw  int
	OpticalLineCount  int

	// Derived output parameters.
	OutputResolution   int
	OutputPixels       int
	OutputChannelBytes int
	OutputLineBytes    int // post-pipeline
	OutputLineBytesRaw int // pre-pipeline
	OutputLineCount    int

	// Stagger / color-shift.
	NumStaggeredLines  int
	ColorShiftLinesR   int
	ColorShiftLinesG   int
	ColorShiftLinesB   int
	MaxColorShiftLines int

	// Segmentation.
	SegmentCount                 int
	SegmentSize                  int
	SegmentOrder                 []int
	ConseqPixelDist              int
	OutputSegmentPixelGroupCount int
	OutputSegmentStartOffset     int

	// Pixel range on-wire.
	PixelStartX          int
	PixelEndX            int
	PixelCountMultiplier int

	// Buffering.
	BufferSizeRead int

	// Decisions.
	EnableLedAdd       bool
	UseHostSideCalib   bool
	PipelineNeedsReorder bool
	PipelineNeedsCCD     bool
	PipelineNeedsShrink  bool

	// Register synthesis.
	Registers []RegisterValue

	Family asic.Family
}

// RegisterValue is one resolved (address, value) pair the planner decided,
// ready to hand to transport.WriteRegisters.
type RegisterValue struct {
	Addr uint16
	Val  uint32
	Width int
}

// Fingerprint is the subset of a session that determines calibration cache
// compatibility (spec.md §3, Calibration cache entry / §4.5 Caching).
type Fingerprint struct {
	XRes, YRes int
	Channels   int
	Mode       ScanMode
	Method     int
	StartX     int
	Pixels     int
	Depth      int
	SensorName string
}

// Fingerprint extracts the cache-compatibility key from a resolved
// session.
func (s *ScanSession) Fingerprint(sensorName string) Fingerprint {
	return Fingerprint{
		XRes: s.Settings.XRes, YRes: s.Settings.YRes,
		Channels: s.Settings.Channels(), Mode: s.Settings.Mode,
		Method: int(s.Settings.Method), StartX: s.PixelStartX,
		Pixels: s.OutputPixels, Depth: s.Settings.Depth,
		SensorName: sensorName,
	}
}
