// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lifecycle

import (
	"go.uber.org/zap"

	"github.com/sane-project/genesys/commandset"
)

// ScanGuard ties the motor-running/lamp-powered resource pair to scan
// scope: Release stops the motor and powers the lamp down, and is safe to
// call more than once. Every code path that starts a scan — begin_scan
// success, begin_scan failure, cancel, panic recovery — must route through
// Release exactly once (spec.md §9, Resource scopes).
type ScanGuard struct {
	cs       commandset.CommandSet
	log      *zap.SugaredLogger
	released bool
}

// NewScanGuard begins tracking a started scan.
func NewScanGuard(cs commandset.CommandSet, log *zap.SugaredLogger) *ScanGuard {
	return &ScanGuard{cs: cs, log: log}
}

// Release stops the motor and powers the lamp off. Errors are logged, not
// propagated: a guard's job is to guarantee the hardware reaches a safe
// state even when the caller is already unwinding an error.
func (g *ScanGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	if err := g.cs.EndScan(true); err != nil {
		g.log.Warnw("scan_guard: end_scan failed", "error", err)
	}
	if err := g.cs.SavePower(true); err != nil {
		g.log.Warnw("scan_guard: save_power failed", "error", err)
	}
}

// BulkReadGuard drains any bytes still queued on the USB bulk endpoint
// when a scan ends early (cancel or error), so a later open doesn't read
// stale bytes from the previous scan.
type BulkReadGuard struct {
	drain    func() error
	log      *zap.SugaredLogger
	released bool
}

// NewBulkReadGuard wraps a drain function (ordinarily transport.Interface
// draining its bulk pipe) for deferred cleanup.
func NewBulkReadGuard(drain func() error, log *zap.SugaredLogger) *BulkReadGuard {
	return &BulkReadGuard{drain: drain, log: log}
}

func (g *BulkReadGuard) Release() {
	if g.released || g.drain == nil {
		return
	}
	g.released = true
	if err := g.drain(); err != nil {
		g.log.Warnw("bulk_read_guard: drain failed", "error", err)
	}
}

// RegisterSnapshotGuard remembers the device's register shadow before a
// risky sequence (e.g. calibration) and restores it if the caller signals
// failure via Restore instead of Commit.
type RegisterSnapshotGuard struct {
	snapshot map[uint16]byte
	restore  func(map[uint16]byte) error
	done     bool
}

// NewRegisterSnapshotGuard copies the current register bank.
func NewRegisterSnapshotGuard(current map[uint16]byte, restore func(map[uint16]byte) error) *RegisterSnapshotGuard {
	snap := make(map[uint16]byte, len(current))
	for k, v := range current {
		snap[k] = v
	}
	return &RegisterSnapshotGuard{snapshot: snap, restore: restore}
}

// Commit marks the sequence successful; Restore becomes a no-op.
func (g *RegisterSnapshotGuard) Commit() { g.done = true }

// Restore writes the snapshotted registers back, unless Commit already
// ran.
func (g *RegisterSnapshotGuard) Restore() error {
	if g.done {
		return nil
	}
	g.done = true
	return g.restore(g.snapshot)
}
