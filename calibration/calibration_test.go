// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package calibration

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/session"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(-1)
	e := Entry{
		Fingerprint: session.Fingerprint{XRes: 400, YRes: 400, Channels: 1, SensorName: "scanjet-ccd-1200"},
		Exposure:    descriptors.SensorExposure{R: 400, G: 400, B: 400},
		DarkAverage: [][3]uint16{{1, 2, 3}, {4, 5, 6}},
		WhiteAverage: [][3]uint16{{100, 200, 300}, {400, 500, 600}},
		Timestamp:   time.Now(),
	}
	c.Put(e)

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	restored := ReadCache(&buf, -1)
	require.Len(t, restored.Entries, 1)
	assert.Equal(t, e.Fingerprint, restored.Entries[0].Fingerprint)
	assert.Equal(t, e.DarkAverage, restored.Entries[0].DarkAverage)
}

func TestCacheHeaderMismatchReturnsEmpty(t *testing.T) {
	buf := bytes.NewBufferString("not a genesys cache file at all")
	restored := ReadCache(buf, -1)
	assert.Empty(t, restored.Entries)
}

func TestCacheVersionMismatchReturnsEmpty(t *testing.T) {
	c := NewCache(-1)
	c.Put(Entry{Fingerprint: session.Fingerprint{XRes: 1}})
	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf))

	corrupted := buf.Bytes()
	// version field sits right after the 4-byte length + header bytes.
	versionOffset := 4 + len(cacheHeader)
	corrupted[versionOffset] = 0xff
	restored := ReadCache(bytes.NewReader(corrupted), -1)
	assert.Empty(t, restored.Entries)
}

func TestCacheExpiration(t *testing.T) {
	c := NewCache(1) // 1 minute
	fp := session.Fingerprint{XRes: 400}
	c.Put(Entry{Fingerprint: fp, Timestamp: time.Now().Add(-2 * time.Minute)})
	_, ok := c.Find(fp, time.Now())
	assert.False(t, ok, "entry older than expiration window must not be returned")
}

func TestCacheZeroDisablesCaching(t *testing.T) {
	c := NewCache(0)
	fp := session.Fingerprint{XRes: 400}
	c.Put(Entry{Fingerprint: fp, Timestamp: time.Now()})
	_, ok := c.Find(fp, time.Now())
	assert.False(t, ok)
}

func TestComputeCoefficientsClampsRange(t *testing.T) {
	dark := [][3]uint16{{0, 0, 0}}
	white := [][3]uint16{{10, 10, 10}}
	coeffs := ComputeCoefficients(dark, white, 1.0)
	for c := 0; c < 3; c++ {
		assert.LessOrEqual(t, coeffs.PerChannel[c][0].Gain, uint16(65535))
	}
}

func TestEncodeShadingRAMLayout(t *testing.T) {
	coeffs := Coefficients{}
	coeffs.PerChannel[0] = []PixelCoeff{{Offset: 1, Gain: 2}}
	coeffs.PerChannel[1] = []PixelCoeff{{Offset: 3, Gain: 4}}
	coeffs.PerChannel[2] = []PixelCoeff{{Offset: 5, Gain: 6}}
	data := EncodeShadingRAM(coeffs)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0, 5, 0, 6, 0}, data)
}
