// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motion

import (
	"time"

	"go.uber.org/zap"

	"github.com/sane-project/genesys/asic"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

// Controller owns the slope-table install and start/stop/home state
// machine for one scan head (spec.md §4.3).
type Controller struct {
	T      transport.Interface
	Device *descriptors.Device
	Log    *zap.SugaredLogger

	stopPollInterval time.Duration
	homePollInterval time.Duration
}

// New builds a Controller. A nil logger defaults to a no-op sink.
func New(t transport.Interface, d *descriptors.Device, log *zap.SugaredLogger) *Controller {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Controller{T: t, Device: d, Log: log, stopPollInterval: 100 * time.Millisecond, homePollInterval: time.Second}
}

// LoadSlopeTable installs a table at its fixed RAM slot via
// write_gamma(0x28, addr, bytes), per spec.md §4.3, Loading.
func (c *Controller) LoadSlopeTable(slot asic.SlopeTableSlot, table []uint16) error {
	return c.T.WriteGamma(transport.KindGamma, slot.BaseAddr(), SlopeBytes(table))
}

// Start sets the SCAN bit, and MOVE too when startMotor requests head
// movement (LED/offset calibration scans with the head still).
func (c *Controller) Start(startMotor bool) error {
	bits := asic.BitScan
	if startMotor {
		bits |= asic.BitMove
	}
	if err := c.T.WriteRegister(asic.RegMode1, bits); err != nil {
		return sane.Wrap(sane.StatusIOError, "motion.start", err)
	}
	c.Device.SetRegister(asic.RegMode1, bits)
	return nil
}

// Stop clears SCAN+MOVE, polls for the motor-stopped condition, and sleeps
// 100ms afterward — required, per spec.md §4.3: some ASICs lock up on
// immediate re-scan.
func (c *Controller) Stop() error {
	if err := c.T.WriteRegister(asic.RegMode1, 0); err != nil {
		return sane.Wrap(sane.StatusIOError, "motion.stop", err)
	}
	c.Device.SetRegister(asic.RegMode1, 0)

	deadline := 10 // 10 * 100ms = 1s, per spec.md §5
	for i := 0; i < deadline; i++ {
		status, err := c.T.ReadRegister(asic.RegStatus)
		if err != nil {
			return sane.Wrap(sane.StatusIOError, "motion.stop.poll", err)
		}
		if status&asic.StatusMotorEnabled == 0 && status&asic.StatusDataEnable == 0 {
			c.T.SleepMS(100)
			return nil
		}
		c.T.SleepMS(100)
	}
	return sane.Wrap(sane.StatusIOError, "motion.stop.timeout", nil)
}

// Home performs a home search, per spec.md §4.3: if the head is known to
// be far from home it pre-feeds at the fast profile to within 500 steps,
// then switches to the slowest profile for a clean hit on the home sensor.
// It marks the position unknown on timeout.
func (c *Controller) Home(wait bool) (err error) {
	m := c.Device.Motor
	defer func() {
		if err != nil {
			_ = c.Stop()
			c.Device.Primary.Unknown = true
		}
	}()

	if c.Device.Primary.Unknown || c.Device.Primary.Steps > 500 {
		pre := m.FastestFast()
		if err = c.loadAndGo(asic.SlotFast, pre, 600); err != nil {
			return err
		}
	}
	slow := m.SlowestFast()
	if err = c.loadAndGo(asic.SlotHome, slow, 300); err != nil {
		return err
	}
	if !wait {
		return nil
	}

	deadline := 30 // 30 * 1s, per spec.md §5
	for i := 0; i < deadline; i++ {
		status, rerr := c.T.ReadRegister(asic.RegStatus)
		if rerr != nil {
			return sane.Wrap(sane.StatusIOError, "motion.home.poll", rerr)
		}
		if status&asic.StatusAtHome != 0 {
			c.Device.Primary = descriptors.Position{Steps: 0}
			return c.Stop()
		}
		c.T.SleepMS(1000)
	}
	return sane.Wrap(sane.StatusIOError, "motion.home.timeout", nil)
}

func (c *Controller) loadAndGo(slot asic.SlopeTableSlot, profile descriptors.MotorProfile, targetSpeed int) error {
	table := GenerateSlopeTable(c.Device.Family, profile, targetSpeed, StepMultiplier(0))
	if err := c.LoadSlopeTable(slot, table); err != nil {
		return sane.Wrap(sane.StatusIOError, "motion.load_slope", err)
	}
	return c.Start(true)
}

// Feed issues a scan-direction move of distance steps at the given
// profile, used by load_document/eject_document on sheet-fed models.
func (c *Controller) Feed(profile descriptors.MotorProfile, steps int) error {
	table := GenerateSlopeTable(c.Device.Family, profile, profile.MaxSpeedW, StepMultiplier(0))
	if err := c.LoadSlopeTable(asic.SlotScan, table); err != nil {
		return sane.Wrap(sane.StatusIOError, "motion.feed.load", err)
	}
	if err := c.Start(true); err != nil {
		return err
	}
	c.Device.Primary.Steps += steps
	return nil
}
