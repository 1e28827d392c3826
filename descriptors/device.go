// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptors

import "github.com/sane-project/genesys/asic"

// Position tracks a scan head's location in motor-base-dpi steps. A move
// that aborts marks the position Unknown, forcing the next operation to
// begin with a home search (spec.md §4.3, Head position tracking).
type Position struct {
	Steps   int
	Unknown bool
}

// Identity is the USB/model identity of an attached scanner.
type Identity struct {
	VendorID, ProductID uint16
	Model               string
	USBPath             string // distinguishes identical units for the cache filename
}

// Device is the live state of one attached scanner: identity, ASIC family,
// current register bank, active descriptors, and head positions. It is
// created on first attach and mutated only through the transport/planner,
// never read back from the hardware except via Scanner Interface calls.
//
// The data model in spec.md §3 also lists a "live ScanSession" and a
// "calibration cache" on Device; both are kept at the lifecycle.Handle
// level instead; see DESIGN.md for the reasoning (it is the same
// handle<->device cyclic-reference problem spec.md §9 calls out, resolved
// here by keeping Device to hardware-shaped data only).
type Device struct {
	Identity Identity
	Family   asic.Family

	Registers map[uint16]byte

	Sensor   *Sensor
	Motor    *Motor
	Frontend *Frontend
	GPO      *GPO

	Primary   Position
	Secondary Position // transparency adapter head, if the model has one

	AlreadyInitialized bool
}

// NewDevice constructs a Device in its cold-boot state: an empty register
// bank and both head positions unknown.
func NewDevice(id Identity, family asic.Family, sensor *Sensor, motor *Motor, fe *Frontend, gpo *GPO) *Device {
	return &Device{
		Identity:  id,
		Family:    family,
		Registers: map[uint16]byte{},
		Sensor:    sensor,
		Motor:     motor,
		Frontend:  fe,
		GPO:       gpo,
		Primary:   Position{Unknown: true},
		Secondary: Position{Unknown: true},
	}
}

// SetRegister updates the device's local shadow of a register. Callers
// still must write through the transport; this only keeps the in-memory
// model consistent with what was last written so register synthesis can
// diff against current state without a round-trip read.
func (d *Device) SetRegister(addr uint16, val byte) {
	d.Registers[addr] = val
}

// HeadFor returns the position tracker for the primary head, or the
// secondary (transparency-adapter) head when method requests it.
func (d *Device) HeadFor(method ScanMethod) *Position {
	if method == MethodFlatbed {
		return &d.Primary
	}
	return &d.Secondary
}
