// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package transport

import (
	"sync"

	"github.com/sane-project/genesys/sane"
)

// Op is one logged transport operation, in the spirit of
// periph's conn/conntest.Record — a flat trace that scan-lifecycle and
// calibration tests can assert against without touching real hardware.
type Op struct {
	Kind string // "read_reg", "write_reg", "write_buffer", "write_gamma", "read_fe", "write_fe", "bulk_read", "sleep_ms"
	Addr uint32
	Val  byte
	Data []byte
	N    int
}

// BulkSource supplies BulkRead's return bytes. Feed lets tests push
// scripted scan-line data (e.g. a synthetic dark or white reference strip).
type BulkSource struct {
	mu    sync.Mutex
	chunks [][]byte
	eof   bool
}

// Feed appends bytes that future BulkRead calls will drain from, in order.
func (b *BulkSource) Feed(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chunks = append(b.chunks, data)
}

// SetEOF marks the source exhausted once all fed chunks are drained.
func (b *BulkSource) SetEOF() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eof = true
}

func (b *BulkSource) read(n int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, 0, n)
	for len(out) < n && len(b.chunks) > 0 {
		c := b.chunks[0]
		need := n - len(out)
		if len(c) <= need {
			out = append(out, c...)
			b.chunks = b.chunks[1:]
		} else {
			out = append(out, c[:need]...)
			b.chunks[0] = c[need:]
		}
	}
	if len(out) < n && b.eof {
		return out, sane.Wrap(sane.StatusEOF, "bulk_read", nil)
	}
	return out, nil
}

// Mock is the deterministic test Interface: a register bank plus a scripted
// bulk-data source and named checkpoints, matching spec.md §4.1's testing
// hook description.
type Mock struct {
	mu sync.Mutex

	Regs   map[uint16]byte
	FE     map[byte]byte
	Bulk   *BulkSource
	Ops    []Op
	checks map[string][]func()

	cancelled bool
}

// NewMock returns a Mock with an empty register bank and bulk source.
func NewMock() *Mock {
	return &Mock{
		Regs:   map[uint16]byte{},
		FE:     map[byte]byte{},
		Bulk:   &BulkSource{},
		checks: map[string][]func(){},
	}
}

// OnCheckpoint registers fn to run every time TestCheckpoint(name) fires.
// Calibration and pipeline tests use this to inject synthetic scan data
// exactly when the code under test asks the device to begin a line scan.
func (m *Mock) OnCheckpoint(name string, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = append(m.checks[name], fn)
}

func (m *Mock) log(op Op) {
	m.Ops = append(m.Ops, op)
}

func (m *Mock) ReadRegister(addr uint16) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.Regs[addr]
	m.log(Op{Kind: "read_reg", Addr: uint32(addr), Val: v})
	return v, nil
}

func (m *Mock) WriteRegister(addr uint16, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Regs[addr] = val
	m.log(Op{Kind: "write_reg", Addr: uint32(addr), Val: val})
	return nil
}

func (m *Mock) WriteRegisters(set []RegisterWrite) error {
	for _, rw := range set {
		if err := m.WriteRegister(rw.Addr, rw.Val); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mock) WriteBuffer(kind BufferKind, addr uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.log(Op{Kind: "write_buffer", Addr: addr, Data: cp})
	return nil
}

func (m *Mock) WriteGamma(kind BufferKind, addr uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.log(Op{Kind: "write_gamma", Addr: addr, Data: cp})
	return nil
}

func (m *Mock) ReadFrontEndRegister(addr byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.FE[addr]
	m.log(Op{Kind: "read_fe", Addr: uint32(addr), Val: v})
	return v, nil
}

func (m *Mock) WriteFrontEndRegister(addr byte, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FE[addr] = val
	m.log(Op{Kind: "write_fe", Addr: uint32(addr), Val: val})
	return nil
}

func (m *Mock) BulkRead(n int) ([]byte, error) {
	if m.cancelled {
		return nil, sane.Wrap(sane.StatusCancelled, "bulk_read", nil)
	}
	data, err := m.Bulk.read(n)
	m.mu.Lock()
	m.log(Op{Kind: "bulk_read", N: len(data)})
	m.mu.Unlock()
	return data, err
}

func (m *Mock) SleepMS(n int) {
	m.mu.Lock()
	m.log(Op{Kind: "sleep_ms", N: n})
	m.mu.Unlock()
}

// TestCheckpoint implements Interface and additionally runs any callbacks
// registered via OnCheckpoint, in registration order.
func (m *Mock) TestCheckpoint(name string) {
	m.mu.Lock()
	fns := append([]func(){}, m.checks[name]...)
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *Mock) Cancel() {
	m.mu.Lock()
	m.cancelled = true
	m.mu.Unlock()
}

func (m *Mock) Close() error { return nil }

var _ Interface = (*Mock)(nil)
