// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
)

func smoothProfile() descriptors.MotorProfile {
	return descriptors.MotorProfile{
		MaxSpeedW: 500, StepType: asic.StepQuarter,
		Curve: descriptors.CurveShape{Name: "smooth", Points: []float64{1, 0.6, 0.3, 0.1, 0}},
	}
}

func TestSlopeTableMonotonicity(t *testing.T) {
	table := GenerateSlopeTable(asic.GL843, smoothProfile(), 500, 1)
	for i := 0; i < len(table)-1; i++ {
		assert.GreaterOrEqual(t, table[i], table[i+1])
	}
	assert.Equal(t, uint16(500), table[len(table)-1])
}

func TestSlopeTablePaddedToStepMultiplier(t *testing.T) {
	table := GenerateSlopeTable(asic.GL843, smoothProfile(), 500, 4)
	assert.Equal(t, 0, len(table)%4)
}

func TestSlopeTableCappedLength(t *testing.T) {
	table := GenerateSlopeTable(asic.GL843, smoothProfile(), 500, 1)
	assert.LessOrEqual(t, len(table), gl843MaxSlopeLen)
}

func TestStepMultiplierDecoding(t *testing.T) {
	assert.Equal(t, 1, StepMultiplier(0x00))
	assert.Equal(t, 2, StepMultiplier(0x04))
	assert.Equal(t, 4, StepMultiplier(0x08))
}

func TestZPhaseForcedZeroAboveYres600(t *testing.T) {
	table := GenerateSlopeTable(asic.GL843, smoothProfile(), 500, 1)
	z1, z2 := ZPhase(table, 3, 1, 1, 1000, 1200)
	assert.Zero(t, z1)
	assert.Zero(t, z2)
}

func TestZPhaseClosedForm(t *testing.T) {
	table := GenerateSlopeTable(asic.GL843, smoothProfile(), 500, 1)
	stepno, fwdstep, feedl, exposure := 5, 2, 3, 4000
	z1, z2 := ZPhase(table, stepno, fwdstep, feedl, exposure, 300)

	last := int(table[stepno-1])
	base := sumUpTo(table, stepno)
	wantZ1 := uint32((base + fwdstep*last) % exposure)
	wantZ2 := uint32((base + feedl*last) % exposure)
	assert.Equal(t, wantZ1, z1)
	assert.Equal(t, wantZ2, z2)
}
