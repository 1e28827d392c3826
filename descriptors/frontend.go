// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptors

// FrontendKind identifies the analog-frontend chip family. Wolfson AFEs
// need explicit offset/gain calibration; Analog Devices AFEs are
// self-calibrating and skip the offset_calibration step entirely.
type FrontendKind int

const (
	FrontendWolfson FrontendKind = iota
	FrontendAnalogDevices
)

func (f FrontendKind) SelfCalibrating() bool { return f == FrontendAnalogDevices }

// Frontend is the immutable AFE descriptor: which registers hold the
// per-channel offset/gain, and their power-on defaults.
type Frontend struct {
	Kind FrontendKind

	OffsetR, OffsetG, OffsetB byte // register addresses
	GainR, GainG, GainB       byte

	InitRegisters map[byte]byte // register -> power-on value
}

// GPO is the general-purpose-output descriptor: which bits drive the lamp,
// the transparency-adapter lamp, and any model-specific relay.
type GPO struct {
	LampBit    byte
	XPALampBit byte
	Register   byte
}
