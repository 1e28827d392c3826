// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sane defines the host-facing SANE API surface: status codes,
// option descriptors and scan parameters. The entry points that tie
// device discovery to the rest of the genesys driver live in package
// backend.
package sane

import "fmt"

// Status is the SANE status code returned from every backend entry point.
//
// It mirrors SANE_Status from the C API closely enough that a frontend
// author already familiar with libsane will recognize every value.
type Status int

// Recognized status codes. EOF is not an error: it is the clean
// end-of-data-stream signal from sane_read.
const (
	StatusGood Status = iota
	StatusUnsupported
	StatusCancelled
	StatusEOF
	StatusJammed
	StatusNoDocs
	StatusCoverOpen
	StatusIOError
	StatusNoMem
	StatusAccessDenied
	StatusInval
	StatusDeviceBusy
)

var statusNames = [...]string{
	"good",
	"unsupported",
	"cancelled",
	"end of file",
	"document feeder jammed",
	"document feeder out of documents",
	"scanner cover is open",
	"error during device I/O",
	"out of memory",
	"access to resource has been denied",
	"invalid argument",
	"device is busy; try again later",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Error adapts a Status to the error interface so it can be returned
// directly or wrapped with github.com/pkg/errors.
type Error struct {
	Status Status
	Op     string // failing operation, e.g. "write_register(0x32)"
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("genesys: %s: %s: %v", e.Op, e.Status, e.Cause)
	}
	return fmt.Sprintf("genesys: %s: %s", e.Op, e.Status)
}

// Unwrap lets errors.Is / errors.As and github.com/pkg/errors.Cause reach
// the underlying transport or syscall failure.
func (e *Error) Unwrap() error { return e.Cause }

// Wrap builds an *Error carrying the given status, failing operation name
// and optional underlying cause.
func Wrap(status Status, op string, cause error) error {
	return &Error{Status: status, Op: op, Cause: cause}
}

// StatusOf extracts the Status from an error produced by Wrap, defaulting
// to StatusIOError for any other non-nil error and StatusGood for nil.
func StatusOf(err error) Status {
	if err == nil {
		return StatusGood
	}
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return StatusIOError
}
