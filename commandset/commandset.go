// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package commandset gives every ASIC family (GL646/GL841/GL843/GL846-GL847/
// GL124) an implementation of the polymorphic CommandSet interface
// (spec.md §4.2). The algorithm of init/calibrate/scan is shared and
// lives in a single Base type; the per-family constructors in families.go
// set Base's family and its Quirks struct (protocol prelude, pixel
// rounding, home-search and shading flags), which Base consults where the
// families diverge.
package commandset

import (
	"github.com/sane-project/genesys/calibration"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/session"
)

// PowerMode selects set_fe's three operating modes.
type PowerMode int

const (
	FEInit PowerMode = iota
	FESet
	FEPowerSave
)

// CommandSet is the ASIC-specific half of every Genesys component, per
// spec.md §4.2. One implementation per ASIC family.
type CommandSet interface {
	Init() error

	InitRegsForShading(sess *session.ScanSession) error
	InitRegsForScan(sess *session.ScanSession) error
	InitRegsForScanSession(sess *session.ScanSession) error
	InitRegsForWarmup() error

	SendGammaTable() error
	SetFrontend(mode PowerMode) error

	BeginScan(startMotor bool) error
	EndScan(checkStopped bool) error

	MoveBackHome(wait bool) error
	MoveToTransparencyAdapter() error

	LoadDocument() error
	EjectDocument() error
	DetectDocumentEnd() (bool, error)

	OffsetCalibration(sess *session.ScanSession) ([3]byte, error)
	CoarseGainCalibration(sess *session.ScanSession) ([3]byte, error)
	LEDCalibration(sess *session.ScanSession) (descriptors.SensorExposure, error)
	Calibrate(sess *session.ScanSession) (*calibration.Result, error)

	UpdateHardwareSensors() (ButtonState, error)
	UpdateHomeSensorGPIO() error

	SavePower(on bool) error
	SetPowerSaving(minutes int) error
	SetXPALampPower(on bool) error
	SetMotorMode(mode MotorMode) error

	SendShadingData(coeff calibration.Coefficients, dpihw int) error
	HasSendShadingData() bool
	NeedsHomeBeforeInitRegsForScan() bool
	WaitForMotorStop() error

	CalculateScanSession(settings session.Settings, xOffsetMM, yOffsetMM float64) (*session.ScanSession, error)
}

// MotorMode selects the stepper driver's operating mode.
type MotorMode int

const (
	MotorModeNormal MotorMode = iota
	MotorModeSinglePhase
)

// ButtonState is the front-panel button snapshot update_hardware_sensors
// polls for (scan/copy/email/power buttons on many Canon/HP units).
type ButtonState struct {
	Scan, Copy, Email, Power bool
}
