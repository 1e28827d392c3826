// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// CacheDir resolves the directory calibration cache files live under,
// per spec.md §6: "$HOME/.sane/". When HOME isn't set (Windows, minimal
// containers) it falls back through USERPROFILE, TMPDIR, then TMP, the
// same search order the source's config-path resolver uses.
func CacheDir() string {
	for _, env := range []string{"HOME", "USERPROFILE", "TMPDIR", "TMP"} {
		if v := os.Getenv(env); v != "" {
			return filepath.Join(v, ".sane")
		}
	}
	return ".sane"
}

// CacheFilePath builds the cache file name from the scanner model, or the
// USB path when usbPath is non-empty (multiple identical units attached),
// per spec.md §6: "$HOME/.sane/<model-or-usb-path>.cal".
func CacheFilePath(model, usbPath string) string {
	key := model
	if usbPath != "" {
		key = usbPath
	}
	safe := unsafeFilenameChars.ReplaceAllString(strings.ToLower(key), "-")
	return filepath.Join(CacheDir(), safe+".cal")
}
