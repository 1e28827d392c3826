// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package commandset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/session"
	"github.com/sane-project/genesys/transport"
)

func newLiDEDevice() *descriptors.Device {
	m, _ := descriptors.Lookup(0x04a9, 0x190e)
	return descriptors.NewDevice(descriptors.Identity{VendorID: m.VendorID, ProductID: m.ProductID, Model: m.Name}, m.Family, m.Sensor, m.Motor, m.Frontend, m.GPO)
}

func TestNewForDeviceDispatchesByFamily(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs, err := NewForDevice(mock, d, nil)
	require.NoError(t, err)
	assert.True(t, cs.HasSendShadingData())
}

func TestInitWritesFrontendRegistersAndRunsProtocolPrelude(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs := NewGL841(mock, d, nil)
	require.NoError(t, cs.Init())
	assert.True(t, d.AlreadyInitialized)
}

func TestBeginScanSetsMoveBitWhenRequested(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs := NewGL841(mock, d, nil)
	require.NoError(t, cs.BeginScan(true))
	v := mock.Regs[asic.RegMode1]
	assert.Equal(t, asic.BitScan|asic.BitMove, v)
}

func TestGL646NeedsHomeBeforeScan(t *testing.T) {
	d := newLiDEDevice()
	d.Family = asic.GL646
	mock := transport.NewMock()
	cs := NewGL646(mock, d, nil)
	assert.True(t, cs.NeedsHomeBeforeInitRegsForScan())
}

func TestGL843DoesNotNeedHomeBeforeScan(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs := NewGL843(mock, d, nil)
	assert.False(t, cs.NeedsHomeBeforeInitRegsForScan())
}

func TestCalculateScanSessionDelegatesToPlanner(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs := NewGL841(mock, d, nil)
	settings := session.Settings{
		XRes: 300, YRes: 300,
		TLX: 0, TLY: 0, BRX: 50, BRY: 50,
		Depth: 8, Mode: session.ModeGray, Method: descriptors.MethodFlatbed,
	}
	sess, err := cs.CalculateScanSession(settings, 0, 0)
	require.NoError(t, err)
	assert.Greater(t, sess.OutputPixels, 0)
}

func TestCalculateScanSessionRoundsGL646PixelsDownToMultipleOf8(t *testing.T) {
	m, ok := descriptors.Lookup(0x04a9, 0x2220)
	require.True(t, ok)
	d := descriptors.NewDevice(descriptors.Identity{VendorID: m.VendorID, ProductID: m.ProductID, Model: m.Name}, m.Family, m.Sensor, m.Motor, m.Frontend, m.GPO)
	mock := transport.NewMock()
	cs := NewGL646(mock, d, nil)
	settings := session.Settings{
		XRes: 2400, YRes: 2400,
		TLX: 0, TLY: 0, BRX: 50, BRY: 50,
		Depth: 8, Mode: session.ModeGray, Method: descriptors.MethodFlatbed,
	}
	sess, err := cs.CalculateScanSession(settings, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, sess.OutputPixels%8)
	wantBytes := (sess.OutputPixels*sess.Settings.Channels()*sess.Settings.Depth + 7) / 8
	assert.Equal(t, wantBytes, sess.OutputLineBytes)
}

func TestSetXPALampPowerPulsesWhenEdgeTriggered(t *testing.T) {
	d := newLiDEDevice()
	mock := transport.NewMock()
	cs := NewGL843(mock, d, nil)
	require.NoError(t, cs.SetXPALampPower(true))
	// edge-triggered: the bit must be clear again after the call returns.
	assert.Equal(t, byte(0), mock.Regs[uint16(d.GPO.Register)]&d.GPO.XPALampBit)
}
