// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptors

import "github.com/sane-project/genesys/asic"

// Model ties a USB VID:PID pair to the ASIC family and descriptor set that
// drives it. Offsets are in millimeters, applied when the planner converts
// a requested scan area to sensor-space pixels.
type Model struct {
	Name     string
	VendorID, ProductID uint16
	Family   asic.Family

	Sensor   *Sensor
	Motor    *Motor
	Frontend *Frontend
	GPO      *GPO

	XOffsetMM, YOffsetMM float64

	HasTransparencyAdapter bool
	SheetFed               bool
}

var wolfsonCIS = &Frontend{
	Kind:    FrontendWolfson,
	OffsetR: 0x20, OffsetG: 0x21, OffsetB: 0x22,
	GainR: 0x28, GainG: 0x29, GainB: 0x2a,
	InitRegisters: map[byte]byte{0x00: 0x00, 0x01: 0x00, 0x02: 0x55},
}

var analogDevicesCCD = &Frontend{
	Kind:    FrontendAnalogDevices,
	OffsetR: 0x20, OffsetG: 0x21, OffsetB: 0x22,
	GainR: 0x28, GainG: 0x29, GainB: 0x2a,
	InitRegisters: map[byte]byte{0x00: 0x02},
}

var standardGPO = &GPO{Register: 0x6c, LampBit: 0x01, XPALampBit: 0x02}

var canonLiDESensor = &Sensor{
	Name: "lide-cis-4800",
	OpticalRes: 4800, BlackPixels: 48, DummyPixels: 6, CCDStartOffset: 32,
	WhiteRef: 230, GainRef: 256,
	PerResolutionExposure: map[int]SensorExposure{75: {R: 400, G: 400, B: 400}},
	SegmentSize: 0, SegmentOrder: nil,
	Stagger: StaggerConfig{},
	UseHostSideCalib: false,
	Channels: []int{1, 3},
	Methods:  []ScanMethod{MethodFlatbed},
	Gamma:    [3]float64{2.2, 2.2, 2.2},
	IsCIS:    true,
}

var canonLiDEMotor = &Motor{
	Name: "lide220-motor", BaseYdpi: 4800,
	Profiles: []MotorProfile{
		{MaxSpeedW: 1100, StepType: asic.StepEighth, Curve: CurveShape{Name: "smooth", Points: []float64{1, 0.6, 0.3, 0.1, 0}}},
		{MaxSpeedW: 2400, StepType: asic.StepQuarter, Curve: CurveShape{Name: "smooth", Points: []float64{1, 0.5, 0.2, 0}}},
	},
	FastProfiles: []MotorProfile{
		{MaxSpeedW: 600, StepType: asic.StepFull, Curve: CurveShape{Name: "fast", Points: []float64{1, 0.4, 0}}},
	},
}

var hpCCDSensor = &Sensor{
	Name: "scanjet-ccd-1200",
	OpticalRes: 1200, BlackPixels: 32, DummyPixels: 4, CCDStartOffset: 16,
	WhiteRef: 240, GainRef: 256,
	SegmentSize: 0, SegmentOrder: nil,
	Stagger: StaggerConfig{},
	UseHostSideCalib: false,
	Channels: []int{1, 3},
	Methods:  []ScanMethod{MethodFlatbed},
	Gamma:    [3]float64{2.2, 2.2, 2.2},
	IsCIS:    false,
}

var hpMotor = &Motor{
	Name: "g4050-motor", BaseYdpi: 1200,
	Profiles: []MotorProfile{
		{MaxSpeedW: 1800, StepType: asic.StepQuarter, Curve: CurveShape{Name: "standard", Points: []float64{1, 0.5, 0.2, 0}}},
	},
	FastProfiles: []MotorProfile{
		{MaxSpeedW: 800, StepType: asic.StepHalf, Curve: CurveShape{Name: "fast", Points: []float64{1, 0.3, 0}}},
	},
}

var plustekFilmSensor = &Sensor{
	Name: "opticfilm-cis-7200",
	OpticalRes: 7200, BlackPixels: 64, DummyPixels: 8, CCDStartOffset: 48,
	WhiteRef: 220, GainRef: 300,
	SegmentSize: 1296, SegmentOrder: []int{0, 1, 2, 3},
	Stagger: StaggerConfig{MinResolution: 7200, LinesAtMin: 4},
	UseHostSideCalib: true,
	Channels: []int{1, 3},
	Methods:  []ScanMethod{MethodTransparency, MethodTransparencyInfrared},
	Gamma:    [3]float64{1.8, 1.8, 1.8},
	IsCIS:    true,
}

var plustekMotor = &Motor{
	Name: "opticfilm-motor", BaseYdpi: 7200,
	Profiles: []MotorProfile{
		{MaxSpeedW: 2200, StepType: asic.StepEighth, Curve: CurveShape{Name: "fine", Points: []float64{1, 0.7, 0.4, 0.15, 0}}},
	},
	FastProfiles: []MotorProfile{
		{MaxSpeedW: 900, StepType: asic.StepQuarter, Curve: CurveShape{Name: "fast", Points: []float64{1, 0.4, 0}}},
	},
}

var canon8400FSensor = &Sensor{
	Name: "8400f-ccd-3200",
	OpticalRes: 3200, BlackPixels: 40, DummyPixels: 6, CCDStartOffset: 24,
	WhiteRef: 235, GainRef: 256,
	SegmentSize: 0, SegmentOrder: nil,
	UseHostSideCalib: false,
	Channels: []int{1, 3},
	Methods:  []ScanMethod{MethodFlatbed, MethodTransparency},
	Gamma:    [3]float64{2.2, 2.2, 2.2},
}

var canon8400FMotor = &Motor{
	Name: "8400f-motor", BaseYdpi: 3200,
	Profiles: []MotorProfile{
		{MaxSpeedW: 1500, StepType: asic.StepQuarter, Curve: CurveShape{Name: "standard", Points: []float64{1, 0.5, 0.2, 0}}},
	},
	FastProfiles: []MotorProfile{
		{MaxSpeedW: 700, StepType: asic.StepHalf, Curve: CurveShape{Name: "fast", Points: []float64{1, 0.3, 0}}},
	},
}

var imageformulaSensor = &Sensor{
	Name: "p215-ccd-1200",
	OpticalRes: 1200, BlackPixels: 32, DummyPixels: 4, CCDStartOffset: 16,
	WhiteRef: 230, GainRef: 256,
	SegmentSize: 0, SegmentOrder: nil,
	UseHostSideCalib: false,
	Channels: []int{1, 3},
	Methods:  []ScanMethod{MethodFlatbed},
	Gamma:    [3]float64{2.2, 2.2, 2.2},
	IsCIS:    false,
}

var imageformulaMotor = &Motor{
	Name: "p215-motor", BaseYdpi: 1200,
	Profiles: []MotorProfile{
		{MaxSpeedW: 1200, StepType: asic.StepQuarter, Curve: CurveShape{Name: "standard", Points: []float64{1, 0.5, 0.2, 0}}},
	},
	FastProfiles: []MotorProfile{
		{MaxSpeedW: 600, StepType: asic.StepHalf, Curve: CurveShape{Name: "fast", Points: []float64{1, 0.3, 0}}},
	},
}

// Models is the immutable model registry, built once at backend init and
// shared by reference across every open handle, the same way a
// process-wide pin/header table is built once and shared.
var Models = map[string]*Model{
	"canoscan-lide-220": {
		Name: "CanoScan LiDE 220", VendorID: 0x04a9, ProductID: 0x190e, Family: asic.GL841,
		Sensor: canonLiDESensor, Motor: canonLiDEMotor, Frontend: wolfsonCIS, GPO: standardGPO,
		XOffsetMM: 2.5, YOffsetMM: 4.0,
	},
	"hp-scanjet-g4050": {
		Name: "HP ScanJet G4050", VendorID: 0x03f0, ProductID: 0x1b05, Family: asic.GL843,
		Sensor: hpCCDSensor, Motor: hpMotor, Frontend: analogDevicesCCD, GPO: standardGPO,
		XOffsetMM: 3.0, YOffsetMM: 5.5,
	},
	"plustek-opticfilm-7300": {
		Name: "Plustek OpticFilm 7300", VendorID: 0x07b3, ProductID: 0x0c15, Family: asic.GL847,
		Sensor: plustekFilmSensor, Motor: plustekMotor, Frontend: wolfsonCIS, GPO: standardGPO,
		XOffsetMM: 0, YOffsetMM: 0, HasTransparencyAdapter: true,
	},
	"canon-8400f": {
		Name: "Canon 8400F", VendorID: 0x04a9, ProductID: 0x2220, Family: asic.GL646,
		Sensor: canon8400FSensor, Motor: canon8400FMotor, Frontend: analogDevicesCCD, GPO: standardGPO,
		XOffsetMM: 2.0, YOffsetMM: 3.0, HasTransparencyAdapter: true,
	},
	"canon-imageformula-p215": {
		Name: "Canon imageFORMULA P-215", VendorID: 0x04a9, ProductID: 0x2706, Family: asic.GL841,
		Sensor: imageformulaSensor, Motor: imageformulaMotor, Frontend: analogDevicesCCD, GPO: standardGPO,
		XOffsetMM: 2.0, YOffsetMM: 2.0, SheetFed: true,
	},
}

// Lookup finds the model matching a VID:PID pair, returning (nil, false)
// when the device is not one the backend recognizes.
func Lookup(vid, pid uint16) (*Model, bool) {
	for _, m := range Models {
		if m.VendorID == vid && m.ProductID == pid {
			return m, true
		}
	}
	return nil, false
}
