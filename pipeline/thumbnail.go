// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/sane-project/genesys/sane"
)

// Thumbnail decodes a fully-read scan buffer (as produced by a pipeline
// reader and sane.Parameters describing its shape) into a small preview
// image, host-side software post-processing distinct from the per-scan
// pipeline stages: a frontend or the CLI tool calls this once on the
// complete page, not per row.
//
// 16-bit samples are downshifted to 8 bits (the preview doesn't need the
// extra precision); 1-bit lineart samples are expanded to 0/255 gray.
func Thumbnail(data []byte, p sane.Parameters, maxWidth int) (image.Image, error) {
	src, err := decodeFull(data, p)
	if err != nil {
		return nil, err
	}
	if maxWidth <= 0 || p.PixelsPerLine <= maxWidth {
		return src, nil
	}
	dstHeight := p.Lines * maxWidth / p.PixelsPerLine
	if dstHeight < 1 {
		dstHeight = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, dstHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst, nil
}

func decodeFull(data []byte, p sane.Parameters) (image.Image, error) {
	if p.Depth == 1 {
		return decodeLineart(data, p), nil
	}
	if p.Format == sane.FrameRGB {
		return decodeRGB(data, p), nil
	}
	return decodeGray(data, p), nil
}

func decodeLineart(data []byte, p sane.Parameters) image.Image {
	img := image.NewGray(image.Rect(0, 0, p.PixelsPerLine, p.Lines))
	rowBytes := (p.PixelsPerLine + 7) / 8
	for y := 0; y < p.Lines; y++ {
		rowOff := y * rowBytes
		if rowOff+rowBytes > len(data) {
			break
		}
		row := data[rowOff : rowOff+rowBytes]
		for x := 0; x < p.PixelsPerLine; x++ {
			bit := row[x/8] & (0x80 >> uint(x%8))
			v := byte(255)
			if bit != 0 {
				v = 0
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func decodeGray(data []byte, p sane.Parameters) image.Image {
	img := image.NewGray(image.Rect(0, 0, p.PixelsPerLine, p.Lines))
	bpp := p.Depth / 8
	if bpp == 0 {
		bpp = 1
	}
	for y := 0; y < p.Lines; y++ {
		rowOff := y * p.BytesPerLine
		for x := 0; x < p.PixelsPerLine; x++ {
			off := rowOff + x*bpp
			if off >= len(data) {
				return img
			}
			img.SetGray(x, y, color.Gray{Y: data[off]})
		}
	}
	return img
}

func decodeRGB(data []byte, p sane.Parameters) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, p.PixelsPerLine, p.Lines))
	bpp := p.Depth / 8
	if bpp == 0 {
		bpp = 1
	}
	for y := 0; y < p.Lines; y++ {
		rowOff := y * p.BytesPerLine
		for x := 0; x < p.PixelsPerLine; x++ {
			off := rowOff + x*3*bpp
			if off+2*bpp >= len(data) {
				return img
			}
			img.SetRGBA(x, y, color.RGBA{R: data[off], G: data[off+bpp], B: data[off+2*bpp], A: 255})
		}
	}
	return img
}
