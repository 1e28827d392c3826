// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRegisterRoundTrip(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.WriteRegister(0x32, 0x69))
	v, err := m.ReadRegister(0x32)
	require.NoError(t, err)
	assert.Equal(t, byte(0x69), v)
	assert.Len(t, m.Ops, 2)
	assert.Equal(t, "write_reg", m.Ops[0].Kind)
	assert.Equal(t, "read_reg", m.Ops[1].Kind)
}

func TestMockWriteRegistersBatch(t *testing.T) {
	m := NewMock()
	set := []RegisterWrite{{Addr: 1, Val: 0xaa}, {Addr: 2, Val: 0xbb}}
	require.NoError(t, m.WriteRegisters(set))
	v1, _ := m.ReadRegister(1)
	v2, _ := m.ReadRegister(2)
	assert.Equal(t, byte(0xaa), v1)
	assert.Equal(t, byte(0xbb), v2)
}

func TestMockBulkReadDrainsFeed(t *testing.T) {
	m := NewMock()
	m.Bulk.Feed([]byte{1, 2, 3, 4})
	m.Bulk.Feed([]byte{5, 6})
	m.Bulk.SetEOF()

	got, err := m.BulkRead(4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got)

	got, err = m.BulkRead(10)
	assert.Equal(t, []byte{5, 6}, got)
	assert.ErrorContains(t, err, "end of file")
}

func TestMockCheckpointFiresRegisteredCallbacks(t *testing.T) {
	m := NewMock()
	fired := 0
	m.OnCheckpoint("begin_scan", func() { fired++ })
	m.OnCheckpoint("begin_scan", func() { fired++ })
	m.TestCheckpoint("begin_scan")
	assert.Equal(t, 2, fired)
	m.TestCheckpoint("unused")
	assert.Equal(t, 2, fired)
}

func TestMockCancelShortCircuitsBulkRead(t *testing.T) {
	m := NewMock()
	m.Cancel()
	_, err := m.BulkRead(10)
	assert.ErrorContains(t, err, "cancelled")
}
