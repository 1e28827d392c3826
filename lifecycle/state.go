// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lifecycle drives the top-level scan state machine described in
// spec.md §4.7: open → configure → calibrate → begin_scan → read* →
// end_scan → park_head. It is the one package allowed to hold a
// ScanSession and a calibration cache alongside a *descriptors.Device,
// resolving the cyclic handle<->device reference spec.md §9 calls out by
// keeping Device itself hardware-shaped only (see descriptors.Device's doc
// comment) and composing the two here instead.
package lifecycle

import "fmt"

// State is one node of the handle state machine.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateReady
	StateScanning
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateReady:
		return "ready"
	case StateScanning:
		return "scanning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
