// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lifecycle

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/calibration"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/pipeline"
	"github.com/sane-project/genesys/session"
	"github.com/sane-project/genesys/transport"
)

func hpDevice() *descriptors.Device {
	m, _ := descriptors.Lookup(0x03f0, 0x1b05) // HP ScanJet G4050, self-calibrating AFE, non-CIS
	return descriptors.NewDevice(descriptors.Identity{VendorID: m.VendorID, ProductID: m.ProductID, Model: m.Name}, m.Family, m.Sensor, m.Motor, m.Frontend, m.GPO)
}

func sheetFedDevice() *descriptors.Device {
	m, _ := descriptors.Lookup(0x04a9, 0x2706) // Canon imageFORMULA P-215, sheet-fed
	return descriptors.NewDevice(descriptors.Identity{VendorID: m.VendorID, ProductID: m.ProductID, Model: m.Name}, m.Family, m.Sensor, m.Motor, m.Frontend, m.GPO)
}

// feedCalibrationData pre-loads enough bulk data for one full calibration
// pass (coarse-gain + dark + white shading; HP's AFE is self-calibrating
// so offset_calibration and LED calibration are both skipped).
func feedCalibrationData(mock *transport.Mock, lineBytes int) {
	dark := bytes.Repeat([]byte{0x05, 0x05, 0x05}, lineBytes)
	white := bytes.Repeat([]byte{0xf0, 0xf0, 0xf0}, lineBytes)
	mock.Bulk.Feed(dark) // coarse-gain read
	for i := 0; i < 12; i++ {
		mock.Bulk.Feed(dark)
	}
	for i := 0; i < 12; i++ {
		mock.Bulk.Feed(white)
	}
}

func testSettings() session.Settings {
	return session.Settings{
		XRes: 75, YRes: 75,
		TLX: 0, TLY: 0, BRX: 25.4, BRY: 25.4,
		Depth: 8, Mode: session.ModeGray, Method: descriptors.MethodFlatbed,
	}
}

func TestOpenRunsColdBootAndReachesReady(t *testing.T) {
	d := hpDevice()
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome // lets Open's home search complete
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, false, false, nil)
	require.NoError(t, err)
	assert.Equal(t, StateReady, h.State)
	assert.True(t, d.AlreadyInitialized)
}

func TestConfigureThenStartReachesScanningAndReadsToEOF(t *testing.T) {
	d := hpDevice()
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome // lets Open's home search complete
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, false, false, nil)
	require.NoError(t, err)

	params, err := h.Configure(testSettings(), 0, 0)
	require.NoError(t, err)
	require.Greater(t, params.PixelsPerLine, 0)

	feedCalibrationData(mock, params.PixelsPerLine)
	// scan data: enough rows of the post-pipeline byte width to satisfy the
	// whole planned read.
	scanRow := bytes.Repeat([]byte{0x7f}, params.BytesPerLine)
	for i := 0; i < params.Lines+4; i++ {
		mock.Bulk.Feed(scanRow)
	}

	require.NoError(t, h.Start(pipeline.Options{}))
	assert.Equal(t, StateScanning, h.State)

	buf := make([]byte, 4096)
	total := 0
	for {
		n, rerr := h.Read(buf)
		total += n
		if rerr == io.EOF {
			break
		}
		require.NoError(t, rerr)
	}
	assert.Greater(t, total, 0)
	assert.Equal(t, StateReady, h.State)
}

func TestCancelMarksCancelledAndSubsequentReadFails(t *testing.T) {
	d := hpDevice()
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome // lets Open's home search complete
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, false, false, nil)
	require.NoError(t, err)

	params, err := h.Configure(testSettings(), 0, 0)
	require.NoError(t, err)
	feedCalibrationData(mock, params.PixelsPerLine)
	scanRow := bytes.Repeat([]byte{0x7f}, params.BytesPerLine)
	for i := 0; i < params.Lines+4; i++ {
		mock.Bulk.Feed(scanRow)
	}
	require.NoError(t, h.Start(pipeline.Options{}))

	h.Cancel()
	buf := make([]byte, 16)
	_, err = h.Read(buf)
	require.Error(t, err)
}

func TestCloseParksHeadAndPersistsCache(t *testing.T) {
	d := hpDevice()
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome // lets Open's home search complete
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, false, false, nil)
	require.NoError(t, err)

	persisted := false
	err = h.Close(func(c *calibration.Cache) error {
		persisted = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, persisted)
	assert.Equal(t, StateClosed, h.State)
}

func TestCalibrationCacheHitSkipsFullCalibration(t *testing.T) {
	d := hpDevice()
	mock := transport.NewMock()
	mock.Regs[asic.RegStatus] = asic.StatusAtHome // lets Open's home search complete
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, false, false, nil)
	require.NoError(t, err)

	params, err := h.Configure(testSettings(), 0, 0)
	require.NoError(t, err)

	fp := h.sess.Fingerprint(d.Sensor.Name)
	cache.Put(calibration.Entry{
		Fingerprint:  fp,
		DarkAverage:  make([][3]uint16, params.PixelsPerLine),
		WhiteAverage: repeatTriple(params.PixelsPerLine, [3]uint16{60000, 60000, 60000}),
	})

	scanRow := bytes.Repeat([]byte{0x7f}, params.BytesPerLine)
	for i := 0; i < params.Lines+4; i++ {
		mock.Bulk.Feed(scanRow)
	}
	// No calibration bulk data fed: a cache hit must not issue any
	// coarse-gain/shading bulk reads.
	require.NoError(t, h.Start(pipeline.Options{}))
	assert.Equal(t, StateScanning, h.State)
}

// TestSheetFedDocumentDropMidScanTrimsEarlyEOF exercises spec.md §4.6
// Scenario 6: the paper sensor deasserts mid-scan, and sane_read delivers
// exactly the lines read so far instead of running to the planned count.
func TestSheetFedDocumentDropMidScanTrimsEarlyEOF(t *testing.T) {
	d := sheetFedDevice()
	mock := transport.NewMock()
	// Paper present, and at home so Start's pre-scan home search completes.
	mock.Regs[asic.RegStatus] = asic.StatusPaperPresent | asic.StatusAtHome
	cache := calibration.NewCache(-1)
	h, err := Open(mock, d, cache, true, false, nil)
	require.NoError(t, err)

	params, err := h.Configure(testSettings(), 0, 0)
	require.NoError(t, err)
	feedCalibrationData(mock, params.PixelsPerLine)

	scanRow := bytes.Repeat([]byte{0x7f}, params.BytesPerLine)
	for i := 0; i < params.Lines+4; i++ {
		mock.Bulk.Feed(scanRow)
	}

	require.NoError(t, h.Start(pipeline.Options{}))
	assert.Equal(t, StateScanning, h.State)

	dropAtLine := params.Lines * 8 / 10 // 80% of the planned lines (60 of 75 here)
	buf := make([]byte, params.BytesPerLine)
	totalBytes := 0
	dropped := false
	for {
		n, rerr := h.Read(buf)
		totalBytes += n
		if rerr == io.EOF {
			break
		}
		require.NoError(t, rerr)
		linesRead := totalBytes / params.BytesPerLine
		if !dropped && linesRead >= dropAtLine {
			mock.Regs[asic.RegStatus] = 0 // paper sensor deasserts
			require.NoError(t, h.PollDocumentEnd(linesRead))
			dropped = true
		}
	}
	assert.True(t, dropped)
	assert.Equal(t, dropAtLine*params.BytesPerLine, totalBytes)
	assert.Equal(t, StateReady, h.State)
}

func repeatTriple(n int, v [3]uint16) [][3]uint16 {
	out := make([][3]uint16, n)
	for i := range out {
		out[i] = v
	}
	return out
}
