// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/session"
)

func TestOptionTableLeadsWithCountThenModeList(t *testing.T) {
	m, ok := descriptors.Lookup(0x03f0, 0x1b05)
	require.True(t, ok)
	opts := OptionTable(m)
	assert.Equal(t, 0, opts[0].Index)
	assert.Equal(t, "mode", opts[1].Name)
	assert.Equal(t, []string{"Lineart", "Gray", "Color"}, opts[1].Constraint.StringList)
}

func TestOptionTableOffersTransparencyModeWhenTAPresent(t *testing.T) {
	m, ok := descriptors.Lookup(0x07b3, 0x0c15) // Plustek OpticFilm, has TA
	require.True(t, ok)
	opts := OptionTable(m)

	var sourceOpt int = -1
	for _, o := range opts {
		if o.Name == "source" {
			sourceOpt = o.Index
		}
	}
	require.NotEqual(t, -1, sourceOpt)
	assert.Contains(t, opts[sourceOpt].Constraint.StringList, "Transparency")
}

func TestResolutionWordListIncludesOpticalResolution(t *testing.T) {
	m, ok := descriptors.Lookup(0x04a9, 0x190e)
	require.True(t, ok)
	list := resolutionWordList(m.Sensor)
	assert.Contains(t, list, m.Sensor.OpticalRes)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1], list[i])
	}
}

func TestSettingsFromOptionsMapsModeAndSource(t *testing.T) {
	s := SettingsFromOptions("Color", "Transparency", 300, 0, 0, 100, 150, 8, 128, true)
	assert.Equal(t, session.ModeColor, s.Mode)
	assert.Equal(t, descriptors.MethodTransparency, s.Method)
	assert.Equal(t, 300, s.XRes)
	assert.True(t, s.DisableInterpolation)
}
