// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package backend

import (
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/session"
)

// OptionTable builds the sane_get_option_descriptor array for a device,
// per spec.md §6's option groups. Index 0 is always the option count
// (SANE_Option_Descriptor convention); the rest follow in declaration
// order so a frontend's "option N" stays stable across one handle's
// lifetime.
func OptionTable(model *descriptors.Model) []sane.Descriptor {
	modes := []string{"Lineart", "Gray", "Color"}
	if model.Sensor.SupportsMethod(descriptors.MethodTransparency) || model.Sensor.SupportsMethod(descriptors.MethodTransparencyInfrared) {
		modes = append(modes, "Halftone")
	}

	methods := []string{"Flatbed"}
	if model.HasTransparencyAdapter {
		methods = append(methods, "Transparency")
	}

	resolutions := resolutionWordList(model.Sensor)

	opts := []sane.Descriptor{
		{Index: 0, Name: "", Title: "Number of options", Type: sane.TypeInt, Cap: sane.CapSoftDetect},

		{Index: 1, Name: "mode", Title: "Scan mode", Desc: "Selects the scan mode (lineart, grayscale, color).",
			Type: sane.TypeString, Group: sane.GroupMode, Cap: sane.CapSoftSelect | sane.CapSoftDetect,
			Constraint: sane.Constraint{Kind: sane.ConstraintStringList, StringList: modes}},

		{Index: 2, Name: "source", Title: "Scan source", Desc: "Selects the scan source (flatbed, transparency adapter).",
			Type: sane.TypeString, Group: sane.GroupMode, Cap: sane.CapSoftSelect | sane.CapSoftDetect,
			Constraint: sane.Constraint{Kind: sane.ConstraintStringList, StringList: methods}},

		{Index: 3, Name: "resolution", Title: "Scan resolution", Desc: "Sets the resolution of the scanned image.",
			Type: sane.TypeInt, Unit: sane.UnitDPI, Group: sane.GroupMode, Cap: sane.CapSoftSelect | sane.CapSoftDetect,
			Constraint: sane.Constraint{Kind: sane.ConstraintWordList, WordList: resolutions}},

		{Index: 4, Name: "tl-x", Title: "Top-left x", Desc: "Top-left x position of scan area.",
			Type: sane.TypeFixed, Unit: sane.UnitMM, Group: sane.GroupGeometry, Cap: sane.CapSoftSelect | sane.CapSoftDetect},
		{Index: 5, Name: "tl-y", Title: "Top-left y", Desc: "Top-left y position of scan area.",
			Type: sane.TypeFixed, Unit: sane.UnitMM, Group: sane.GroupGeometry, Cap: sane.CapSoftSelect | sane.CapSoftDetect},
		{Index: 6, Name: "br-x", Title: "Bottom-right x", Desc: "Bottom-right x position of scan area.",
			Type: sane.TypeFixed, Unit: sane.UnitMM, Group: sane.GroupGeometry, Cap: sane.CapSoftSelect | sane.CapSoftDetect},
		{Index: 7, Name: "br-y", Title: "Bottom-right y", Desc: "Bottom-right y position of scan area.",
			Type: sane.TypeFixed, Unit: sane.UnitMM, Group: sane.GroupGeometry, Cap: sane.CapSoftSelect | sane.CapSoftDetect},

		{Index: 8, Name: "threshold", Title: "Lineart threshold", Desc: "Sets the gray level threshold used by lineart mode.",
			Type: sane.TypeInt, Unit: sane.UnitPercent, Group: sane.GroupEnhancement, Cap: sane.CapSoftSelect | sane.CapSoftDetect | sane.CapInactive,
			Constraint: sane.Constraint{Kind: sane.ConstraintRange, Range: [3]int{0, 100, 1}}},

		{Index: 9, Name: "disable-interpolation", Title: "Disable interpolation",
			Desc: "When enabled, do not use host-side software interpolation to achieve requested resolutions.",
			Type: sane.TypeBool, Group: sane.GroupSoftwarePost, Cap: sane.CapSoftSelect | sane.CapSoftDetect | sane.CapAdvanced},

		{Index: 10, Name: "lamp-off-time", Title: "Lamp off time", Desc: "Minutes of idle time before the lamp is powered down.",
			Type: sane.TypeInt, Unit: sane.UnitNone, Group: sane.GroupExtras, Cap: sane.CapSoftSelect | sane.CapSoftDetect | sane.CapAdvanced,
			Constraint: sane.Constraint{Kind: sane.ConstraintRange, Range: [3]int{0, 60, 1}}},
	}
	opts[0].Size = 4
	return opts
}

func resolutionWordList(s *descriptors.Sensor) []int {
	set := map[int]bool{}
	for res := range s.PerResolutionExposure {
		set[res] = true
	}
	// Always offer the optical resolution and a few common downsamples,
	// even for entries PerResolutionExposure doesn't enumerate. Exposure
	// lookup is exact (Sensor.ExposureFor): an unlisted resolution gets a
	// zero triple, and LED calibration then starts from its 400/400/400
	// default.
	for _, res := range []int{75, 150, 300, 600, s.OpticalRes} {
		set[res] = true
	}
	out := make([]int, 0, len(set))
	for res := range set {
		out = append(out, res)
	}
	sortInts(out)
	return out
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// SettingsFromOptions translates a SANE option snapshot into a
// session.Settings, the shape lifecycle.Handle.Configure wants. A real
// frontend calls sane_control_option repeatedly; this helper is the
// single seam tests and cmd/ drive instead of re-implementing
// sane_control_option's dispatch.
func SettingsFromOptions(mode string, source string, resolution int, tlx, tly, brx, bry float64, depth int, threshold byte, disableInterp bool) session.Settings {
	m := session.ModeGray
	switch mode {
	case "Lineart":
		m = session.ModeLineart
	case "Color":
		m = session.ModeColor
	case "Halftone":
		m = session.ModeHalftone
	}
	method := descriptors.MethodFlatbed
	if source == "Transparency" {
		method = descriptors.MethodTransparency
	}
	return session.Settings{
		XRes: resolution, YRes: resolution,
		TLX: tlx, TLY: tly, BRX: brx, BRY: bry,
		Depth: depth, Mode: m, Method: method, Threshold: threshold,
		DisableInterpolation: disableInterp,
	}
}
