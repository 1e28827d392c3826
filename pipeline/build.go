// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pipeline

import (
	"io"

	"github.com/sane-project/genesys/session"
)

// Options carries the pieces of session state Build needs that aren't on
// ScanSession directly: the sensor's segment layout, stagger direction,
// and (for host-side shading) the expanded coefficient tables.
type Options struct {
	SegmentOrder       []int
	InvertStaggerCols  bool
	ByteSwap16         bool // INVERTED_16BIT_DATA quirk
	ThresholdLUT       []byte
	HostShadingOffset  [3][]uint16
	HostShadingGain    [3][]uint16
}

// Build composes the pipeline stack a resolved session calls for, stacked
// bottom-up over raw, per spec.md §4.6 and §9's "decide composition at
// session build time" note: every stage listed here is either wrapped or
// skipped once, never decided per-row.
func Build(sess *session.ScanSession, raw *RawRowSource, opt Options) io.Reader {
	bytesPerChannel := 1
	if sess.Settings.Depth == 16 {
		bytesPerChannel = 2
	}
	channels := sess.Settings.Channels()
	bytesPerPixel := bytesPerChannel * channels

	var src RowSource = raw

	if sess.SegmentCount > 1 {
		src = NewDesegment(src, sess.SegmentCount, sess.SegmentSize, opt.SegmentOrder, bytesPerPixel)
	}

	if opt.ByteSwap16 && bytesPerChannel == 2 {
		src = NewByteSwap16(src)
	}
	if sess.Settings.Mode == session.ModeLineart {
		if bitOffset := sess.OutputPixels % 8; bitOffset != 0 {
			src = NewMonoBitShift(src, uint(bitOffset))
		}
	}

	if sess.NumStaggeredLines > 0 {
		src = NewStagger(src, sess.NumStaggeredLines, bytesPerPixel, opt.InvertStaggerCols)
	}

	if sess.MaxColorShiftLines > 0 && channels == 3 {
		src = NewColorOffset(src, sess.ColorShiftLinesR, sess.ColorShiftLinesG, sess.ColorShiftLinesB, bytesPerChannel)
	}

	if sess.UseHostSideCalib && channels == 3 {
		src = NewHostShading(src, opt.HostShadingOffset, opt.HostShadingGain, bytesPerChannel)
	}

	if sess.Settings.Mode == session.ModeLineart {
		lut := opt.ThresholdLUT
		if lut == nil {
			lut = FlatThresholdLUT(sess.OutputPixels, sess.Settings.Threshold)
		}
		src = NewLineartThreshold(src, lut)
	}

	return AsReader(src)
}
