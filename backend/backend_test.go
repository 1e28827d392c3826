// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sane-project/genesys/calibration"
	"github.com/sane-project/genesys/config"
	"github.com/sane-project/genesys/session"
)

func TestLoadConfFileMissingReturnsNilMatches(t *testing.T) {
	matches, err := loadConfFile(filepath.Join(t.TempDir(), "missing.conf"))
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestLoadConfFileEmptyPathSkipsReading(t *testing.T) {
	matches, err := loadConfFile("")
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestLoadConfFileParsesUSBLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesys.conf")
	require.NoError(t, os.WriteFile(path, []byte("usb 0x04a9 0x190e\n"), 0o644))
	matches, err := loadConfFile(path)
	require.NoError(t, err)
	assert.Equal(t, []config.USBMatch{{VendorID: 0x04a9, ProductID: 0x190e}}, matches)
}

func TestLoadCacheFileMissingReturnsEmptyCache(t *testing.T) {
	c := loadCacheFile(filepath.Join(t.TempDir(), "missing.cal"), -1)
	assert.Empty(t, c.Entries)
}

func TestWriteCacheFileThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "model.cal")

	src := calibration.NewCache(-1)
	src.Put(calibration.Entry{Fingerprint: session.Fingerprint{XRes: 300, YRes: 300}})

	require.NoError(t, writeCacheFile(path, src))

	loaded := loadCacheFile(path, -1)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, 300, loaded.Entries[0].Fingerprint.XRes)
}

func TestOpenReadsConfAndExtras(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(dir, "genesys.conf")
	require.NoError(t, os.WriteFile(confPath, []byte("usb 0x03f0 0x1b05\n"), 0o644))

	b, err := Open(confPath, filepath.Join(dir, "missing-extras.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, []config.USBMatch{{VendorID: 0x03f0, ProductID: 0x1b05}}, b.matches)
	assert.Equal(t, config.DefaultExtras(), b.extras)
}
