// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"go.uber.org/zap"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/session"
	"github.com/sane-project/genesys/transport"
)

// darkShadingLines / whiteShadingLines are typical per spec.md §4.5 ("8-16
// lines").
const (
	darkShadingLines  = 12
	whiteShadingLines = 12
	gainCoeff         = 0.9
)

// Engine runs the five calibration procedures in ASIC-appropriate order
// and produces the coefficient table ready for shading RAM or host-side
// application.
type Engine struct {
	T    transport.Interface
	Log  *zap.SugaredLogger
	Lamp LampControl
}

// LampControl is the small subset of CommandSet calibration needs to turn
// the scan lamp on/off, kept here to avoid an import cycle with the
// commandset package.
type LampControl interface {
	SetLamp(on bool) error
	WriteExposure(descriptors.SensorExposure) error
}

// New builds an Engine. A nil logger defaults to a no-op sink.
func New(t transport.Interface, lamp LampControl, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{T: t, Log: log, Lamp: lamp}
}

// Result is everything a completed calibration produced: the entry to
// persist and the coefficient table to upload or hand to the pipeline.
type Result struct {
	Entry        Entry
	Coefficients Coefficients
}

// Run executes offset -> coarse-gain -> LED -> offset -> coarse-gain ->
// dark-shading -> white-shading -> coefficients, per spec.md §4.5's
// GL843 example ordering. LED calibration only runs for CIS sensors;
// dark-shading is skipped entirely for infrared-transparency scans.
func (e *Engine) Run(family asic.Family, sensor *descriptors.Sensor, fe *descriptors.Frontend, sess *session.ScanSession) (*Result, error) {
	lineWidth := sess.OutputPixels
	exp := sensor.ExposureFor(sess.Settings.YRes)

	if err := e.Lamp.SetLamp(true); err != nil {
		return nil, err
	}
	e.T.SleepMS(500) // lamp-on settle, spec.md §5

	runOffsetGain := func() ([3]byte, [3]byte, error) {
		off, err := OffsetCalibration(e.T, fe, lineWidth)
		if err != nil {
			return off, [3]byte{}, err
		}
		gain, err := CoarseGainCalibration(e.T, fe, sensor, lineWidth, gainCoeff)
		return off, gain, err
	}

	offset, gain, err := runOffsetGain()
	if err != nil {
		return nil, err
	}

	if sensor.IsCIS {
		exp, err = LEDCalibration(e.T, e.Lamp.WriteExposure, exp, lineWidth)
		if err != nil {
			return nil, err
		}
		offset, gain, err = runOffsetGain()
		if err != nil {
			return nil, err
		}
	}

	var dark [][3]uint16
	if sess.Settings.Method != descriptors.MethodTransparencyInfrared {
		if sess.Settings.Method == descriptors.MethodFlatbed {
			if err := e.Lamp.SetLamp(false); err != nil {
				return nil, err
			}
		}
		dark, err = ScanShadingLines(e.T, "dark_shading", lineWidth, darkShadingLines)
		if err != nil {
			return nil, err
		}
		if sess.Settings.Method == descriptors.MethodFlatbed {
			if err := e.Lamp.SetLamp(true); err != nil {
				return nil, err
			}
		}
	} else {
		dark = make([][3]uint16, lineWidth)
	}

	white, err := ScanShadingLines(e.T, "white_shading", lineWidth, whiteShadingLines)
	if err != nil {
		return nil, err
	}

	coeffs := ComputeCoefficients(dark, white, gainCoeff)
	if err := WriteShadingData(e.T, family, sess.OpticalResolution, sensor, coeffs); err != nil {
		return nil, err
	}

	entry := Entry{
		Fingerprint:    sess.Fingerprint(sensor.Name),
		FrontendOffset: offset,
		FrontendGain:   gain,
		Exposure:       exp,
		AverageSize:    lineWidth,
		DarkAverage:    dark,
		WhiteAverage:   white,
	}
	return &Result{Entry: entry, Coefficients: coeffs}, nil
}

// statusOrNil converts a nil error to sane.StatusGood, used by callers
// that need to report calibration outcome without leaking transport
// error types into the lifecycle layer.
func statusOrNil(err error) sane.Status { return sane.StatusOf(err) }
