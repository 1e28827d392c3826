// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/sane"
)

func TestThumbnailGrayPassthroughWhenNarrowerThanMax(t *testing.T) {
	p := sane.Parameters{Format: sane.FrameGray, BytesPerLine: 4, PixelsPerLine: 4, Lines: 2, Depth: 8}
	data := []byte{0, 64, 128, 255, 10, 20, 30, 40}
	img, err := Thumbnail(data, p, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
}

func TestThumbnailScalesDownWhenWiderThanMax(t *testing.T) {
	p := sane.Parameters{Format: sane.FrameGray, BytesPerLine: 100, PixelsPerLine: 100, Lines: 50, Depth: 8}
	data := make([]byte, 100*50)
	for i := range data {
		data[i] = byte(i)
	}
	img, err := Thumbnail(data, p, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 10, img.Bounds().Dy())
}

func TestThumbnailDecodesLineartBits(t *testing.T) {
	p := sane.Parameters{Depth: 1, PixelsPerLine: 8, Lines: 1}
	data := []byte{0b10000000} // first pixel set (black)
	img, err := Thumbnail(data, p, 100)
	require.NoError(t, err)
	g, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, byte(0), g.GrayAt(0, 0).Y)
	assert.Equal(t, byte(255), g.GrayAt(1, 0).Y)
}

func TestThumbnailDecodesRGB(t *testing.T) {
	p := sane.Parameters{Format: sane.FrameRGB, BytesPerLine: 6, PixelsPerLine: 2, Lines: 1, Depth: 8}
	data := []byte{10, 20, 30, 40, 50, 60}
	img, err := Thumbnail(data, p, 100)
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	c := rgba.RGBAAt(1, 0)
	assert.Equal(t, uint8(40), c.R)
	assert.Equal(t, uint8(50), c.G)
	assert.Equal(t, uint8(60), c.B)
}
