// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package transport abstracts the USB bulk/control transport that every
// other genesys component addresses the scanner through. The rest of the
// backend never imports gousb directly; it talks to an Interface.
package transport

import (
	"time"

	"go.uber.org/zap"
)

// BufferKind selects which bulk-write sub-protocol a write_buffer/write_gamma
// call uses, per spec.md §6 (BULK_REGISTER vs BULK_RAM framing).
type BufferKind uint8

const (
	KindRegister BufferKind = 0x11
	KindRAM      BufferKind = 0x00
	KindShading  BufferKind = 0x3c
	KindGamma    BufferKind = 0x28
)

// Interface is the contract every ASIC CommandSet and calibration/motion
// routine is written against. It has exactly two implementations: a real
// USB one (usb.go) and a deterministic replay mock (mock.go).
type Interface interface {
	// ReadRegister reads one 8-bit ASIC register.
	ReadRegister(addr uint16) (byte, error)
	// WriteRegister writes one 8-bit ASIC register. It must be observable
	// through ReadRegister once this call returns.
	WriteRegister(addr uint16, val byte) error
	// WriteRegisters batches a set of register writes, coalescing
	// contiguous addresses into a single control/bulk transfer where the
	// ASIC protocol allows it.
	WriteRegisters(set []RegisterWrite) error

	// WriteBuffer uploads bytes to a RAM region (shading tables, slope
	// tables, ...), chunked to the ASIC's bulk-write ceiling.
	WriteBuffer(kind BufferKind, addr uint32, data []byte) error
	// WriteGamma uploads a gamma table; same framing as WriteBuffer but a
	// distinct command byte on the wire.
	WriteGamma(kind BufferKind, addr uint32, data []byte) error

	// ReadFrontEndRegister / WriteFrontEndRegister mediate the
	// register-indirect protocol used to reach the analog frontend through
	// the ASIC.
	ReadFrontEndRegister(addr byte) (byte, error)
	WriteFrontEndRegister(addr byte, val byte) error

	// BulkRead blocks until n bytes have arrived or the device signals
	// EOF, returning whatever was read either way.
	BulkRead(n int) ([]byte, error)

	// SleepMS sleeps for the given duration, cancellable by Cancel.
	SleepMS(n int)

	// TestCheckpoint fires a named checkpoint. Real transports no-op;
	// the mock uses it to drive deterministic scripted behavior.
	TestCheckpoint(name string)

	// Cancel requests that any pending SleepMS or BulkRead return early.
	Cancel()

	// Close releases the underlying USB resources.
	Close() error
}

// RegisterWrite is one (address, value) pair in a batch.
type RegisterWrite struct {
	Addr uint16
	Val  byte
}

// Options configure a transport implementation.
type Options struct {
	Logger        *zap.SugaredLogger
	BulkMaxWrite  int           // ASIC-dependent bulk-write ceiling, e.g. 0xF000
	USBTimeout    time.Duration // per-transfer timeout
	PollInterval  time.Duration // wait-for-data / wait-for-stop poll period
}

func (o *Options) logger() *zap.SugaredLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop().Sugar()
}

func (o *Options) bulkMax() int {
	if o.BulkMaxWrite <= 0 {
		return 0xF000
	}
	return o.BulkMaxWrite
}

func (o *Options) pollInterval() time.Duration {
	if o.PollInterval <= 0 {
		return 100 * time.Millisecond
	}
	return o.PollInterval
}
