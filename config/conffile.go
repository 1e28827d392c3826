// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config reads genesys.conf's USB auto-attach list, the extras
// settings file, and resolves calibration-cache file paths, mirroring the
// ambient concerns spec.md §6 leaves to "peer collaborators" (configuration
// parsing, cache encoding's on-disk path) rather than the core backend.
package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// USBMatch is one "usb VENDOR_ID PRODUCT_ID" line from genesys.conf.
type USBMatch struct {
	VendorID, ProductID uint16
}

// ParseConfFile reads genesys.conf's auto-attach matcher list (spec.md
// §6): each non-comment, non-blank line has the form "usb VENDOR_ID
// PRODUCT_ID", both hex with an optional "0x" prefix. Unrecognized lines
// are ignored, matching the source's tolerant parser.
func ParseConfFile(r io.Reader) ([]USBMatch, error) {
	var matches []USBMatch
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[0] != "usb" {
			continue
		}
		vid, err := parseHex(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "config: genesys.conf line %d: vendor id", lineNo)
		}
		pid, err := parseHex(fields[2])
		if err != nil {
			return nil, errors.Wrapf(err, "config: genesys.conf line %d: product id", lineNo)
		}
		matches = append(matches, USBMatch{VendorID: vid, ProductID: pid})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "config: read genesys.conf")
	}
	return matches, nil
}

func parseHex(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("not a hex id: %q", s)
	}
	return uint16(v), nil
}
