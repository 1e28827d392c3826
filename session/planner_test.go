// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
)

func lideSettings() (Settings, *descriptors.Sensor, *descriptors.Motor) {
	m, _ := descriptors.Lookup(0x04a9, 0x190e)
	s := Settings{
		XRes: 75, YRes: 75,
		TLX: 0, TLY: 0, BRX: 215, BRY: 297,
		Depth: 8, Mode: ModeColor, Method: descriptors.MethodFlatbed,
	}
	return s, m.Sensor, m.Motor
}

func TestPlanDeterminism(t *testing.T) {
	s, sensor, motor := lideSettings()
	a, err := Plan(asic.GL841, s, sensor, motor, 2.5, 4.0)
	require.NoError(t, err)
	b, err := Plan(asic.GL841, s, sensor, motor, 2.5, 4.0)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPlanAreaInvariant(t *testing.T) {
	s, sensor, motor := lideSettings()
	sess, err := Plan(asic.GL841, s, sensor, motor, 2.5, 4.0)
	require.NoError(t, err)
	gotWidthMM := float64(sess.OutputPixels) * mmPerInch / float64(s.XRes)
	assert.InDelta(t, s.WidthMM(), gotWidthMM, mmPerInch/float64(s.XRes)+0.01)
}

func TestPlanDepthInvariant(t *testing.T) {
	s, sensor, motor := lideSettings()
	sess, err := Plan(asic.GL841, s, sensor, motor, 2.5, 4.0)
	require.NoError(t, err)
	expected := (sess.OutputPixels*s.Channels()*s.Depth + 7) / 8
	assert.Equal(t, expected, sess.OutputLineBytes)
}

func TestPlanRejectsUnsupportedMethod(t *testing.T) {
	s, sensor, motor := lideSettings()
	s.Method = descriptors.MethodTransparency
	_, err := Plan(asic.GL841, s, sensor, motor, 2.5, 4.0)
	assert.Error(t, err)
}

func TestPlanHPScanjetGray400(t *testing.T) {
	m, _ := descriptors.Lookup(0x03f0, 0x1b05)
	s := Settings{
		XRes: 400, YRes: 400,
		TLX: 0, TLY: 0, BRX: 210, BRY: 297,
		Depth: 8, Mode: ModeGray, Method: descriptors.MethodFlatbed,
	}
	sess, err := Plan(asic.GL843, s, m.Sensor, m.Motor, m.XOffsetMM, m.YOffsetMM)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.SegmentCount)
	assert.Equal(t, 0, sess.NumStaggeredLines)
	assert.Equal(t, sess.OutputPixels, sess.OutputLineBytes)
}

func TestPlanOpticFilmTransparencyStagger(t *testing.T) {
	m, _ := descriptors.Lookup(0x07b3, 0x0c15)
	s := Settings{
		XRes: 3600, YRes: 3600,
		TLX: 0, TLY: 0, BRX: 24, BRY: 36,
		Depth: 16, Mode: ModeColor, Method: descriptors.MethodTransparency,
	}
	sess, err := Plan(asic.GL847, s, m.Sensor, m.Motor, m.XOffsetMM, m.YOffsetMM)
	require.NoError(t, err)
	assert.Equal(t, 4, sess.SegmentCount)
	assert.Equal(t, 4, sess.NumStaggeredLines)
	assert.True(t, sess.UseHostSideCalib)
	assert.True(t, sess.PipelineNeedsReorder)
	assert.True(t, sess.PipelineNeedsCCD)
}

func TestPlanOutputLineCountIncludesShiftsAndStagger(t *testing.T) {
	m, _ := descriptors.Lookup(0x07b3, 0x0c15)
	s := Settings{
		XRes: 3600, YRes: 3600,
		TLX: 0, TLY: 0, BRX: 24, BRY: 36,
		Depth: 16, Mode: ModeColor, Method: descriptors.MethodTransparency,
	}
	sess, err := Plan(asic.GL847, s, m.Sensor, m.Motor, m.XOffsetMM, m.YOffsetMM)
	require.NoError(t, err)
	lines := int(s.HeightMM() * float64(s.YRes) / mmPerInch)
	assert.Equal(t, lines+sess.MaxColorShiftLines+sess.NumStaggeredLines, sess.OutputLineCount)
}
