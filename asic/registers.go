// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package asic

// Named 8/16-bit register addresses common to the Genesys family line.
// Multi-byte fields (LINCNT, STRPIXEL, ENDPIXEL, MAXWD, LPERIOD, Z1MOD,
// Z2MOD) are written high-byte first by convention; WideWrite below
// encodes that.
const (
	RegMode1 uint16 = 0x01 // bit0 SCAN, bit1 MOVE
	Reg02    uint16 = 0x02 // motor direction / fast-feed control
	RegExpR  uint16 = 0x10
	RegExpG  uint16 = 0x12
	RegExpB  uint16 = 0x14
	RegDpiSet uint16 = 0x18
	RegStrPixel uint16 = 0x1e
	RegEndPixel uint16 = 0x22
	RegLincnt   uint16 = 0x25
	RegZ1Mod    uint16 = 0x60
	RegZ2Mod    uint16 = 0x63
	RegStepType uint16 = 0x9d // bits 2-3: step multiplier 1/2/4
	RegLPeriod  uint16 = 0xa0
	RegMaxWD    uint16 = 0xa4
	RegFilter   uint16 = 0x06 // color filter select bits
	RegBitset   uint16 = 0x07
	RegShdArea  uint16 = 0xa8 // bit: host vs device shading
	RegStatus   uint16 = 0x41 // motor-enabled / at-home / valid-words status
)

// Bit masks within RegMode1.
const (
	BitScan byte = 0x01
	BitMove byte = 0x02
)

// Bit masks within RegStatus.
const (
	StatusMotorEnabled byte = 0x01
	StatusPaperPresent byte = 0x04 // sheet-fed paper sensor, set while paper is under the sensor
	StatusAtHome       byte = 0x08
	StatusDataEnable   byte = 0x10 // MOTMFLG / DATAENB per family
)

// StepType selects the motor micro-stepping mode, scaling feed distance by
// 2^StepType per spec.md §4.3.
type StepType int

const (
	StepFull StepType = iota
	StepHalf
	StepQuarter
	StepEighth
)

// Scale returns 2^s.
func (s StepType) Scale() int { return 1 << uint(s) }

// WideWrite is one multi-byte register field write, high byte first.
type WideWrite struct {
	Addr uint16
	Val  uint32
	Width int // bytes: 1, 2 or 3
}

// Bytes renders the write in wire order (high byte first).
func (w WideWrite) Bytes() []byte {
	out := make([]byte, w.Width)
	v := w.Val
	for i := w.Width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
