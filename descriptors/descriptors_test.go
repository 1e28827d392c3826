// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package descriptors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaggerConfigThreshold(t *testing.T) {
	s := StaggerConfig{MinResolution: 7200, LinesAtMin: 4}
	assert.Equal(t, 0, s.StaggerAt(3600, 3600))
	assert.Equal(t, 4, s.StaggerAt(7200, 7200))
	assert.Equal(t, 4, s.StaggerAt(9600, 9600))
}

func TestModelLookup(t *testing.T) {
	m, ok := Lookup(0x04a9, 0x190e)
	assert.True(t, ok)
	assert.Equal(t, "CanoScan LiDE 220", m.Name)

	_, ok = Lookup(0xffff, 0xffff)
	assert.False(t, ok)
}

func TestMotorProfileSelection(t *testing.T) {
	m := canonLiDEMotor
	fastest := m.FastestFast()
	slowest := m.SlowestFast()
	assert.LessOrEqual(t, fastest.MaxSpeedW, slowest.MaxSpeedW)
}

func TestDeviceStartsWithUnknownPosition(t *testing.T) {
	d := NewDevice(Identity{}, 0, canonLiDESensor, canonLiDEMotor, wolfsonCIS, standardGPO)
	assert.True(t, d.Primary.Unknown)
	assert.True(t, d.Secondary.Unknown)
}
