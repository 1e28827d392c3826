// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package session

import (
	"github.com/pkg/errors"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
)

// mmPerInch is the number of millimeters in one inch.
const mmPerInch = 25.4

// hwdpiBuckets are the fixed hardware-clocking resolutions a sensor can be
// driven at, per the Glossary's Dpihw definition.
var hwdpiBuckets = []int{300, 600, 1200, 2400, 4800}

// pixelAlignment returns the ABI-mandated pixel-count alignment for a given
// ASIC family and requested xres (spec.md §4.4 step 2).
func pixelAlignment(family asic.Family, xres int) int {
	switch family {
	case asic.GL646:
		if xres >= 2400 {
			return 16
		}
		return 8
	case asic.GL841:
		return 8
	default:
		if xres >= 1200 {
			return 16
		}
		return 4
	}
}

func hwdpiFor(xres int) int {
	for _, h := range hwdpiBuckets {
		if h >= xres {
			return h
		}
	}
	return hwdpiBuckets[len(hwdpiBuckets)-1]
}

func roundDownMultiple(v, m int) int {
	if m <= 0 {
		return v
	}
	return (v / m) * m
}

// Plan is the pure planner function described in spec.md §4.4. Given
// identical inputs it produces byte-identical output (Determinism,
// Testable Properties §8), which is what makes cache lookups sound.
func Plan(family asic.Family, s Settings, sensor *descriptors.Sensor, motor *descriptors.Motor, xOffsetMM, yOffsetMM float64) (*ScanSession, error) {
	if s.XRes <= 0 || s.YRes <= 0 {
		return nil, errors.New("session: resolution must be positive")
	}
	if !sensor.SupportsMethod(s.Method) {
		return nil, errors.Errorf("session: sensor %s does not support method %d", sensor.Name, s.Method)
	}

	sess := &ScanSession{Settings: s, Family: family}

	// Step 1: resolution divisors.
	divisor := 1
	for _, d := range []int{4, 2, 1} {
		if s.XRes*d <= sensor.OpticalRes {
			divisor = d
			break
		}
	}
	sess.CCDSizeDivisor = divisor
	hwdpi := hwdpiFor(s.XRes)
	sess.OpticalResolution = sensor.OpticalRes
	sess.HwdpiDivisor = sensor.OpticalRes / hwdpi

	// Step 2: area to pixels.
	startXf := (s.TLX + xOffsetMM) * float64(s.XRes) / mmPerInch
	startYf := (s.TLY + yOffsetMM) * float64(motor.BaseYdpi) / mmPerInch
	widthPixelsF := s.WidthMM() * float64(s.XRes) / mmPerInch
	heightLinesF := s.HeightMM() * float64(s.YRes) / mmPerInch

	startX := int(startXf)
	startY := int(startYf)
	pixelsPerLine := roundDownMultiple(int(widthPixelsF), pixelAlignment(family, s.XRes))
	if pixelsPerLine <= 0 {
		return nil, errors.New("session: resolved zero pixels per line")
	}
	lines := int(heightLinesF)
	if lines <= 0 {
		return nil, errors.New("session: resolved zero lines")
	}

	// Step 3: depth & channels.
	depth := s.Depth
	channels := s.Channels()
	if s.Mode == ModeLineart || s.Mode == ModeHalftone {
		depth, channels = 1, 1
	}
	sess.OutputChannelBytes = (depth + 7) / 8
	if depth == 1 {
		sess.OutputChannelBytes = 0 // packed, computed via bit width below
	}

	sess.OutputResolution = s.XRes
	sess.OutputPixels = pixelsPerLine
	sess.OpticalPixels = pixelsPerLine * (sensor.OpticalRes / s.XRes)
	sess.OpticalPixelsRaw = sess.OpticalPixels + sensor.DummyPixels

	// Step 4: segmentation.
	if len(sensor.SegmentOrder) > 0 {
		sess.SegmentCount = len(sensor.SegmentOrder)
		sess.SegmentSize = sensor.SegmentSize
		sess.SegmentOrder = append([]int{}, sensor.SegmentOrder...)
		sess.ConseqPixelDist = sensor.SegmentSize
		sess.OutputSegmentPixelGroupCount = pixelsPerLine / sess.SegmentCount
	} else {
		sess.SegmentCount = 1
		sess.SegmentSize = pixelsPerLine
		sess.ConseqPixelDist = pixelsPerLine
	}

	// Step 5: stagger.
	sess.NumStaggeredLines = sensor.Stagger.StaggerAt(s.XRes, s.YRes)

	// Step 6: color shift, derived from physical CCD line spacing. One-pass
	// color CCDs only; CIS sensors have no row separation.
	if channels == 3 && !sensor.IsCIS {
		// Spacing scales with yres relative to the sensor's native ydpi.
		unit := motor.BaseYdpi / s.YRes
		if unit < 1 {
			unit = 1
		}
		sess.ColorShiftLinesR = 0
		sess.ColorShiftLinesG = 4 / unit
		sess.ColorShiftLinesB = 8 / unit
	}
	sess.MaxColorShiftLines = max3(sess.ColorShiftLinesR, sess.ColorShiftLinesG, sess.ColorShiftLinesB)

	// Step 7: pipeline decisions.
	sess.PipelineNeedsReorder = sess.SegmentCount > 1
	sess.PipelineNeedsCCD = sess.NumStaggeredLines > 0 || sess.MaxColorShiftLines > 0
	sess.PipelineNeedsShrink = sess.OutputResolution < sess.OpticalResolution
	sess.UseHostSideCalib = sensor.UseHostSideCalib
	sess.EnableLedAdd = sensor.IsCIS && channels == 3

	// Output sizing.
	lineBitWidth := pixelsPerLine * channels * depth
	sess.OutputLineBytes = (lineBitWidth + 7) / 8
	sess.OutputLineBytesRaw = sess.SegmentSize * sess.SegmentCount * channels * ((depth + 7) / 8)
	if sess.SegmentCount == 1 {
		sess.OutputLineBytesRaw = sess.OutputLineBytes
	}
	sess.OutputLineCount = lines + sess.MaxColorShiftLines + sess.NumStaggeredLines

	sess.PixelStartX = startX
	sess.PixelEndX = startX + sess.OpticalPixelsRaw
	sess.PixelCountMultiplier = sensor.OpticalRes / s.XRes
	if sess.PixelCountMultiplier <= 0 {
		sess.PixelCountMultiplier = 1
	}

	// Step 8: buffer size, rounded up to the ASIC's bulk granularity and
	// at least one full line so a single BulkRead always returns forward
	// progress.
	const linesPerRead = 16
	const bulkGranularity = 4096
	raw := sess.OutputLineBytesRaw * linesPerRead
	sess.BufferSizeRead = ((raw + bulkGranularity - 1) / bulkGranularity) * bulkGranularity

	// Step 9: register synthesis.
	sess.Registers = synthesizeRegisters(family, sess, startY)

	return sess, nil
}

func max3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func synthesizeRegisters(family asic.Family, s *ScanSession, startY int) []RegisterValue {
	regs := []RegisterValue{
		{Addr: asic.RegDpiSet, Val: uint32(s.OpticalResolution), Width: 2},
		{Addr: asic.RegStrPixel, Val: uint32(s.PixelStartX), Width: 2},
		{Addr: asic.RegEndPixel, Val: uint32(s.PixelEndX), Width: 2},
		{Addr: asic.RegMaxWD, Val: uint32(s.OutputLineBytesRaw), Width: 3},
		{Addr: asic.RegLincnt, Val: uint32(s.OutputLineCount), Width: 3},
	}
	var filterBits byte
	switch s.Settings.Filter {
	case FilterRed:
		filterBits = 0x04
	case FilterGreen:
		filterBits = 0x08
	case FilterBlue:
		filterBits = 0x0c
	}
	regs = append(regs, RegisterValue{Addr: asic.RegFilter, Val: uint32(filterBits), Width: 1})

	var bitset byte
	if s.Settings.Mode == ModeLineart {
		bitset |= 0x01
	}
	if s.Settings.Depth == 16 {
		bitset |= 0x02
	}
	regs = append(regs, RegisterValue{Addr: asic.RegBitset, Val: uint32(bitset), Width: 1})

	shdarea := byte(1)
	if s.UseHostSideCalib {
		shdarea = 0
	}
	regs = append(regs, RegisterValue{Addr: asic.RegShdArea, Val: uint32(shdarea), Width: 1})

	return regs
}
