// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package commandset

import (
	"go.uber.org/zap"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

// NewForDevice dispatches to the right family constructor for d.Family, so callers
// that only have a descriptors.Device (the common case: lifecycle.Open)
// never need a family type switch of their own.
func NewForDevice(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) (CommandSet, error) {
	switch d.Family {
	case asic.GL646:
		return NewGL646(t, d, log), nil
	case asic.GL841:
		return NewGL841(t, d, log), nil
	case asic.GL843:
		return NewGL843(t, d, log), nil
	case asic.GL846, asic.GL847:
		return NewGL846GL847(t, d, log), nil
	case asic.GL124:
		return NewGL124(t, d, log), nil
	default:
		return nil, sane.Wrap(sane.StatusUnsupported, "commandset.new", nil)
	}
}

// gl646ProtocolInit issues the GL646 cold-boot prelude: clock select and
// RAM layout registers that must be written before any scan-window
// register (spec.md §4.2, init).
func gl646ProtocolInit(t transport.Interface, d *descriptors.Device) error {
	return t.WriteRegister(0x0b, 0x6a) // clock/RAM-layout select, GL646 power-on prelude
}

// NewGL646 builds a CommandSet for the oldest supported family: narrower
// slope tables (see motion.maxSlopeLenFor), and ColorOffsetRoundDown8 set
// so CalculateScanSession re-rounds pixels_per_line down to a flat
// multiple of 8 regardless of xres, overriding the planner's xres>=2400
// 16-pixel alignment to match GL646's byte-aligned-by-8 color-offset
// compensation.
func NewGL646(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Base {
	b := New(asic.GL646, t, d, log)
	b.Quirks = Quirks{
		ProtocolInit:          gl646ProtocolInit,
		ColorOffsetRoundDown8: true,
		TAGPIOEdgeTriggered:   true,
		NeedsHomeBeforeScan:   true,
		HasSendShadingData:    true,
		Warmup8BitThreshold:   0.016,
		Warmup16BitThreshold:  0.002,
	}
	return b
}

func gl841ProtocolInit(t transport.Interface, d *descriptors.Device) error {
	return t.WriteRegister(0x0b, 0x5a)
}

// NewGL841 builds a CommandSet for the LiDE-generation ASIC: home search
// is still required before every scan-window install, but the pixel
// rounding quirk GL646 needs does not apply (GL841 always rounds to 8
// regardless of xres, per session's pixelAlignment table).
func NewGL841(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Base {
	b := New(asic.GL841, t, d, log)
	b.Quirks = Quirks{
		ProtocolInit:         gl841ProtocolInit,
		NeedsHomeBeforeScan:  true,
		HasSendShadingData:   true,
		Warmup8BitThreshold:  0.016,
		Warmup16BitThreshold: 0.002,
	}
	return b
}

func gl843ProtocolInit(t transport.Interface, d *descriptors.Device) error {
	return t.WriteRegister(0x0b, 0x69)
}

// NewGL843 builds a CommandSet for the ScanJet-generation ASIC: position
// tracking is reliable enough in hardware that a home search before every
// scan is no longer required.
func NewGL843(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Base {
	b := New(asic.GL843, t, d, log)
	b.Quirks = Quirks{
		ProtocolInit:         gl843ProtocolInit,
		NeedsHomeBeforeScan:  false,
		HasSendShadingData:   true,
		TAGPIOEdgeTriggered:  true,
		Warmup8BitThreshold:  0.016,
		Warmup16BitThreshold: 0.002,
	}
	return b
}

func gl846gl847ProtocolInit(t transport.Interface, d *descriptors.Device) error {
	return t.WriteRegister(0x0b, 0x6b)
}

// NewGL846GL847 builds a single CommandSet for both GL846 and GL847: the
// two share register layouts closely enough (spec.md §2) that the only
// divergence is the segmented/staggered sensor layout GL847-based
// Plustek film scanners use, which lives entirely in the sensor
// descriptor (SegmentOrder/Stagger), not in this orchestration layer.
func NewGL846GL847(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Base {
	b := New(d.Family, t, d, log)
	b.Quirks = Quirks{
		ProtocolInit:         gl846gl847ProtocolInit,
		NeedsHomeBeforeScan:  false,
		HasSendShadingData:   !d.Sensor.UseHostSideCalib,
		Warmup8BitThreshold:  0.016,
		Warmup16BitThreshold: 0.002,
	}
	return b
}

func gl124ProtocolInit(t transport.Interface, d *descriptors.Device) error {
	return t.WriteRegister(0x0b, 0x7c)
}

// NewGL124 builds a CommandSet for the newest supported family: deeper
// slope tables (2048 entries, see motion.maxSlopeLenFor) and a higher
// shading-RAM base address (descriptors.ShadingStartOffset).
func NewGL124(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Base {
	b := New(asic.GL124, t, d, log)
	b.Quirks = Quirks{
		ProtocolInit:         gl124ProtocolInit,
		NeedsHomeBeforeScan:  false,
		HasSendShadingData:   true,
		Warmup8BitThreshold:  0.016,
		Warmup16BitThreshold: 0.002,
	}
	return b
}
