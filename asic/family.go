// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package asic holds the Genesys register model: the ASIC family enum,
// named register addresses and slope-table RAM layout.
//
// The CommandSet interface that gives every other component its
// ASIC-specific half lives in package commandset, where one shared Base
// type carries the per-family differences in a Quirks struct.
package asic

import "fmt"

// Family identifies one of the five Genesys-Logic ASIC generations this
// backend supports. GL846 and GL847 share near-identical register layouts
// and are handled by one implementation distinguishing only at a couple of
// call sites.
type Family int

const (
	GL646 Family = iota
	GL841
	GL843
	GL846
	GL847
	GL124
)

func (f Family) String() string {
	switch f {
	case GL646:
		return "GL646"
	case GL841:
		return "GL841"
	case GL843:
		return "GL843"
	case GL846:
		return "GL846"
	case GL847:
		return "GL847"
	case GL124:
		return "GL124"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// SlopeTableSlot names one of the five fixed RAM regions a motor slope
// table can be loaded into, per spec.md §4.3.
type SlopeTableSlot int

const (
	SlotScan SlopeTableSlot = iota
	SlotBacktrack
	SlotStop
	SlotFast
	SlotHome
)

// BaseAddr returns the fixed RAM byte address for this slot: 0x40000 +
// 0x8000*slot.
func (s SlopeTableSlot) BaseAddr() uint32 {
	return 0x40000 + 0x8000*uint32(s)
}
