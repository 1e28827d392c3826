// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"os"

	"github.com/spf13/viper"
)

// Extras is the "extras" option group from spec.md §6: lamp power policy
// and calibration-cache expiration, loaded from an INI/YAML/TOML/JSON
// settings file (whatever viper's format auto-detection picks) so a
// distro can ship a single genesys.toml/genesys.yaml alongside
// genesys.conf.
type Extras struct {
	LampOff         bool // enable the automatic lamp-off timer
	LampOffTimeMin  int  // minutes of idle time before the lamp powers down
	ExpirationMin   int  // calibration cache expiration, -1 = never, 0 = disabled
}

// DefaultExtras matches the source's power-friendly defaults: lamp off
// after 15 minutes idle, calibration cached indefinitely.
func DefaultExtras() Extras {
	return Extras{LampOff: true, LampOffTimeMin: 15, ExpirationMin: -1}
}

// LoadExtras reads Extras from the named settings file via viper,
// falling back to DefaultExtras for any key the file doesn't set. A
// missing file is not an error: scanners work fine with defaults.
func LoadExtras(path string) (Extras, error) {
	v := viper.New()
	extras := DefaultExtras()
	v.SetDefault("lamp-off", extras.LampOff)
	v.SetDefault("lamp-off-time", extras.LampOffTimeMin)
	v.SetDefault("expiration-time", extras.ExpirationMin)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return extras, nil
		}
		// An explicit SetConfigFile path that does not exist surfaces as
		// the underlying file-open error rather than ConfigFileNotFoundError.
		if os.IsNotExist(err) {
			return extras, nil
		}
		return extras, err
	}

	extras.LampOff = v.GetBool("lamp-off")
	extras.LampOffTimeMin = v.GetInt("lamp-off-time")
	extras.ExpirationMin = v.GetInt("expiration-time")
	return extras, nil
}
