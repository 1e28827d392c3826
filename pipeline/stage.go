// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pipeline recovers correct image rows from the raw byte stream an
// ASIC emits. Stages are pulled, not pushed: each exposes Read(p []byte)
// like an io.Reader, and is stacked at session-build time per the
// decisions frozen into a session.ScanSession (spec.md §4.6). Composition
// never does a runtime type query; the set of stages is fixed once a scan
// starts.
package pipeline

import "io"

// Stage is a pull-based row source: Read behaves like io.Reader, filling p
// with as many bytes as are immediately available and returning
// io.EOF once the source is exhausted. Implementations must not block
// longer than their upstream source blocks.
type Stage interface {
	io.Reader
}

// Source is the upstream: whatever feeds the bottom stage raw bytes
// (ordinarily the USB bulk reader, wrapped to deliver exactly
// OutputLineBytesRaw at a time).
type Source interface {
	io.Reader
}
