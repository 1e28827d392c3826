// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"strconv"

	"github.com/jochenvg/go-udev"

	"github.com/sane-project/genesys/descriptors"
)

// EnumerateAttached walks udev's usb subsystem for devices matching one of
// matches, resolving each to its descriptors.Model via Lookup, per
// spec.md §6's "auto-attach" flow: genesys.conf only narrows which VID:PID
// pairs the backend considers; enumeration itself is udev's job.
func EnumerateAttached(matches []USBMatch) ([]descriptors.Identity, error) {
	u := udev.Udev{}
	enum := u.NewEnumerate()
	if err := enum.AddMatchSubsystem("usb"); err != nil {
		return nil, err
	}
	if err := enum.AddMatchProperty("DEVTYPE", "usb_device"); err != nil {
		return nil, err
	}
	devices, err := enum.Devices()
	if err != nil {
		return nil, err
	}

	allowed := make(map[USBMatch]bool, len(matches))
	for _, m := range matches {
		allowed[m] = true
	}

	var out []descriptors.Identity
	for _, dev := range devices {
		vid, okV := parseSysHex(dev.PropertyValue("ID_VENDOR_ID"))
		pid, okP := parseSysHex(dev.PropertyValue("ID_MODEL_ID"))
		if !okV || !okP {
			continue
		}
		if len(allowed) > 0 && !allowed[USBMatch{VendorID: vid, ProductID: pid}] {
			continue
		}
		model, ok := descriptors.Lookup(vid, pid)
		if !ok {
			continue
		}
		out = append(out, descriptors.Identity{
			VendorID: vid, ProductID: pid, Model: model.Name, USBPath: dev.Syspath(),
		})
	}
	return out, nil
}

func parseSysHex(s string) (uint16, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// Monitor watches udev for USB scanner attach/detach events matching
// matches, invoking onAttach/onDetach as they arrive. It blocks until the
// caller's done channel closes.
func Monitor(matches []USBMatch, onAttach, onDetach func(descriptors.Identity), done <-chan struct{}) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if err := mon.FilterAddMatchSubsystem("usb"); err != nil {
		return err
	}
	ch, errCh, err := mon.DeviceChan(done)
	if err != nil {
		return err
	}

	allowed := make(map[USBMatch]bool, len(matches))
	for _, m := range matches {
		allowed[m] = true
	}

	for {
		select {
		case <-done:
			return nil
		case err := <-errCh:
			return err
		case dev, ok := <-ch:
			if !ok {
				return nil
			}
			vid, okV := parseSysHex(dev.PropertyValue("ID_VENDOR_ID"))
			pid, okP := parseSysHex(dev.PropertyValue("ID_MODEL_ID"))
			if !okV || !okP {
				continue
			}
			if len(allowed) > 0 && !allowed[USBMatch{VendorID: vid, ProductID: pid}] {
				continue
			}
			model, ok := descriptors.Lookup(vid, pid)
			if !ok {
				continue
			}
			id := descriptors.Identity{VendorID: vid, ProductID: pid, Model: model.Name, USBPath: dev.Syspath()}
			switch dev.Action() {
			case "add":
				if onAttach != nil {
					onAttach(id)
				}
			case "remove":
				if onDetach != nil {
					onDetach(id)
				}
			}
		}
	}
}
