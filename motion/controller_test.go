// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/transport"
)

func newTestDevice() *descriptors.Device {
	m, _ := descriptors.Lookup(0x04a9, 0x190e)
	return descriptors.NewDevice(descriptors.Identity{VendorID: m.VendorID, ProductID: m.ProductID}, m.Family, m.Sensor, m.Motor, m.Frontend, m.GPO)
}

func TestControllerStartSetsScanAndMoveBits(t *testing.T) {
	mock := transport.NewMock()
	c := New(mock, newTestDevice(), nil)
	require.NoError(t, c.Start(true))
	v, _ := mock.ReadRegister(asic.RegMode1)
	assert.Equal(t, asic.BitScan|asic.BitMove, v)
}

func TestControllerStartWithoutMotorOnlySetsScan(t *testing.T) {
	mock := transport.NewMock()
	c := New(mock, newTestDevice(), nil)
	require.NoError(t, c.Start(false))
	v, _ := mock.ReadRegister(asic.RegMode1)
	assert.Equal(t, asic.BitScan, v)
}

func TestControllerStopClearsBitsAndSleeps(t *testing.T) {
	mock := transport.NewMock()
	c := New(mock, newTestDevice(), nil)
	require.NoError(t, c.Start(true))
	require.NoError(t, c.Stop())
	v, _ := mock.ReadRegister(asic.RegMode1)
	assert.Equal(t, byte(0), v)

	sawSleep := false
	for _, op := range mock.Ops {
		if op.Kind == "sleep_ms" && op.N == 100 {
			sawSleep = true
		}
	}
	assert.True(t, sawSleep)
}

func TestControllerHomeMarksUnknownOnTimeout(t *testing.T) {
	mock := transport.NewMock()
	d := newTestDevice()
	c := New(mock, d, nil)
	// RegStatus never reports at-home: Home must time out and mark the
	// position unknown, per spec.md §4.3 Fail policy.
	err := c.Home(true)
	assert.Error(t, err)
	assert.True(t, d.Primary.Unknown)
}

func TestControllerHomeSucceedsWhenSensorTrips(t *testing.T) {
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome
	d := newTestDevice()
	c := New(mock, d, nil)
	require.NoError(t, c.Home(true))
	assert.False(t, d.Primary.Unknown)
	assert.Equal(t, 0, d.Primary.Steps)
}
