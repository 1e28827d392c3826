// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package backend ties device discovery, option handling and the
// lifecycle state machine together into the entry points a SANE frontend
// calls: sane_init, sane_get_devices, sane_open, sane_close and friends
// (spec.md §5). It plays the same coordinating role the periph package
// plays for host drivers: a process-wide registry that frontends go
// through instead of touching descriptors/lifecycle directly.
package backend

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sane-project/genesys/calibration"
	"github.com/sane-project/genesys/config"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/lifecycle"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/transport"
)

// Info is one entry in the list sane_get_devices returns: a discoverable
// scanner the backend can open by name.
type Info struct {
	Name    string // opaque handle name, e.g. the USB syspath
	Vendor  string
	Model   string
	Type    string // "flatbed scanner" or "sheetfed scanner"
	Identity descriptors.Identity
}

// Backend is one loaded instance of the driver: the genesys.conf
// auto-attach list, extras settings, and the set of handles currently
// open. A process normally creates exactly one, mirroring sane_init's
// singleton contract.
type Backend struct {
	mu sync.Mutex

	log    *zap.SugaredLogger
	extras config.Extras
	matches []config.USBMatch

	devices []Info
	handles map[string]*lifecycle.Handle // keyed by Info.Name
}

// Open runs sane_init: reads genesys.conf and the extras file (both paths
// optional — missing files fall back to matching every known Model and
// to config.DefaultExtras), and prepares the backend for
// sane_get_devices. It does not touch USB until a device is opened.
func Open(confPath, extrasPath string, log *zap.SugaredLogger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	b := &Backend{log: log, handles: map[string]*lifecycle.Handle{}}

	matches, err := loadConfFile(confPath)
	if err != nil {
		return nil, err
	}
	b.matches = matches

	extras, err := config.LoadExtras(extrasPath)
	if err != nil {
		return nil, err
	}
	b.extras = extras
	return b, nil
}

// Devices runs sane_get_devices: enumerates attached USB scanners via
// udev, narrowed to genesys.conf's auto-attach list when one was loaded
// (an empty list means "match every model the backend knows"), sorted by
// name for a stable frontend listing.
func (b *Backend) Devices() ([]Info, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids, err := config.EnumerateAttached(b.matches)
	if err != nil {
		return nil, sane.Wrap(sane.StatusIOError, "get_devices", err)
	}
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		model, ok := descriptors.Lookup(id.VendorID, id.ProductID)
		if !ok {
			continue
		}
		kind := "flatbed scanner"
		if model.SheetFed {
			kind = "sheetfed scanner"
		}
		name := id.USBPath
		if name == "" {
			name = model.Name
		}
		infos = append(infos, Info{Name: name, Vendor: "Genesys-Logic", Model: model.Name, Type: kind, Identity: id})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	b.devices = infos
	return infos, nil
}

// OpenDevice runs sane_open: resolves name to a discovered device (re-running
// Devices if it hasn't been called yet), claims the USB interface, and
// drives the cold-boot OPEN→READY transition.
func (b *Backend) OpenDevice(name string) (*lifecycle.Handle, error) {
	b.mu.Lock()
	devices := b.devices
	b.mu.Unlock()
	if devices == nil {
		var err error
		devices, err = b.Devices()
		if err != nil {
			return nil, err
		}
	}

	var found *Info
	for i := range devices {
		if devices[i].Name == name {
			found = &devices[i]
			break
		}
	}
	if found == nil {
		return nil, sane.Wrap(sane.StatusInval, "open", nil)
	}
	model, ok := descriptors.Lookup(found.Identity.VendorID, found.Identity.ProductID)
	if !ok {
		return nil, sane.Wrap(sane.StatusInval, "open", nil)
	}

	t, err := transport.OpenUSB(found.Identity.VendorID, found.Identity.ProductID, transport.Options{Logger: b.log})
	if err != nil {
		return nil, err
	}
	device := descriptors.NewDevice(found.Identity, model.Family, model.Sensor, model.Motor, model.Frontend, model.GPO)

	cachePath := config.CacheFilePath(model.Name, found.Identity.USBPath)
	cache := loadCacheFile(cachePath, b.extras.ExpirationMin)

	h, err := lifecycle.Open(t, device, cache, model.SheetFed, model.HasTransparencyAdapter, b.log)
	if err != nil {
		t.Close()
		return nil, err
	}

	b.mu.Lock()
	b.handles[found.Name] = h
	b.mu.Unlock()
	return h, nil
}

// CloseDevice runs sane_close for the handle opened under name: it
// persists the calibration cache to disk and releases the USB interface.
func (b *Backend) CloseDevice(name string) error {
	b.mu.Lock()
	h, ok := b.handles[name]
	if ok {
		delete(b.handles, name)
	}
	devices := b.devices
	b.mu.Unlock()
	if !ok {
		return sane.Wrap(sane.StatusInval, "close", nil)
	}

	var model *descriptors.Model
	usbPath := ""
	for _, d := range devices {
		if d.Name == name {
			model, _ = descriptors.Lookup(d.Identity.VendorID, d.Identity.ProductID)
			usbPath = d.Identity.USBPath
			break
		}
	}
	cachePath := ""
	if model != nil {
		cachePath = config.CacheFilePath(model.Name, usbPath)
	}
	return h.Close(func(c *calibration.Cache) error {
		if cachePath == "" {
			return nil
		}
		return writeCacheFile(cachePath, c)
	})
}

// Exit runs sane_exit: closes every handle still open, best-effort.
func (b *Backend) Exit() {
	b.mu.Lock()
	names := make([]string, 0, len(b.handles))
	for n := range b.handles {
		names = append(names, n)
	}
	b.mu.Unlock()
	for _, n := range names {
		if err := b.CloseDevice(n); err != nil {
			b.log.Warnw("exit: close device failed", "name", n, "error", err)
		}
	}
}

func loadConfFile(path string) ([]config.USBMatch, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return config.ParseConfFile(f)
}

// loadCacheFile reads a calibration cache from disk, per spec.md §4.5:
// a missing or corrupt file is never fatal, it just means an empty cache
// and a full calibration on first scan.
func loadCacheFile(path string, expireMinutes int) *calibration.Cache {
	f, err := os.Open(path)
	if err != nil {
		return calibration.NewCache(expireMinutes)
	}
	defer f.Close()
	return calibration.ReadCache(f, expireMinutes)
}

// writeCacheFile persists the calibration cache to disk, creating its
// parent directory (normally $HOME/.sane) if needed.
func writeCacheFile(path string, c *calibration.Cache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return c.Write(f)
}
