// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// genesys-scanimage lists and drives Genesys-Logic USB scanners, writing
// the scanned image as a PNM file, the way the scanimage CLI drives any
// SANE backend.
package main

import (
	"bufio"
	"fmt"
	"image/png"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sane-project/genesys/backend"
	"github.com/sane-project/genesys/pipeline"
	"github.com/sane-project/genesys/sane"
)

func mainImpl() error {
	list := pflag.BoolP("list-devices", "L", false, "list attached scanners and exit")
	deviceName := pflag.StringP("device-name", "d", "", "device to scan from, as shown by -L")
	mode := pflag.String("mode", "Gray", "scan mode: Lineart, Gray or Color")
	source := pflag.String("source", "Flatbed", "scan source: Flatbed or Transparency")
	resolution := pflag.Int("resolution", 300, "scan resolution in dpi")
	depth := pflag.Int("depth", 8, "bit depth: 1, 8 or 16")
	tlx := pflag.Float64("tl-x", 0, "top-left x, mm")
	tly := pflag.Float64("tl-y", 0, "top-left y, mm")
	brx := pflag.Float64("br-x", 215.9, "bottom-right x, mm")
	bry := pflag.Float64("br-y", 297.0, "bottom-right y, mm")
	output := pflag.StringP("output-file", "o", "", "write scanned image here instead of stdout")
	thumbnail := pflag.String("thumbnail", "", "also write a downscaled PNG preview to this path")
	thumbnailWidth := pflag.Int("thumbnail-width", 256, "preview width in pixels")
	confPath := pflag.String("config", "/etc/sane.d/genesys.conf", "genesys.conf path")
	extrasPath := pflag.String("extras", "", "extras settings file (lamp-off, expiration-time, ...)")
	verbose := pflag.BoolP("verbose", "v", false, "verbose logging")
	pflag.Parse()

	var log *zap.SugaredLogger
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log = l.Sugar()
	} else {
		log = zap.NewNop().Sugar()
	}

	b, err := backend.Open(*confPath, *extrasPath, log)
	if err != nil {
		return err
	}
	defer b.Exit()

	devices, err := b.Devices()
	if err != nil {
		return err
	}

	if *list {
		if len(devices) == 0 {
			fmt.Println("No scanners found.")
			return nil
		}
		for _, d := range devices {
			fmt.Printf("device `%s' is a %s %s\n", d.Name, d.Vendor, d.Model)
		}
		return nil
	}

	name := *deviceName
	if name == "" {
		if len(devices) == 0 {
			return fmt.Errorf("no scanners found, and no -d given")
		}
		name = devices[0].Name
	}

	h, err := b.OpenDevice(name)
	if err != nil {
		return err
	}
	defer b.CloseDevice(name)

	settings := backend.SettingsFromOptions(*mode, *source, *resolution, *tlx, *tly, *brx, *bry, *depth, 128, false)
	params, err := h.Configure(settings, 0, 0)
	if err != nil {
		return err
	}

	if err := h.Start(pipeline.Options{}); err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	if err := writePNMHeader(w, params); err != nil {
		return err
	}

	var preview []byte
	var totalBytes int
	buf := make([]byte, 64*1024)
	for {
		n, rerr := h.Read(buf)
		if n > 0 {
			totalBytes += n
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			if *thumbnail != "" {
				preview = append(preview, buf[:n]...)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
		if params.BytesPerLine > 0 {
			if perr := h.PollDocumentEnd(totalBytes / params.BytesPerLine); perr != nil {
				return perr
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if *thumbnail != "" {
		return writeThumbnail(*thumbnail, preview, params, *thumbnailWidth)
	}
	return nil
}

func writeThumbnail(path string, data []byte, params sane.Parameters, maxWidth int) error {
	img, err := pipeline.Thumbnail(data, params, maxWidth)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// writePNMHeader emits a PBM/PGM/PPM header matching params, the same
// trio of formats scanimage writes for lineart/gray/color output.
func writePNMHeader(w io.Writer, p sane.Parameters) error {
	switch {
	case p.Depth == 1:
		_, err := fmt.Fprintf(w, "P4\n%d %d\n", p.PixelsPerLine, p.Lines)
		return err
	case p.Format == sane.FrameRGB:
		maxVal := 255
		if p.Depth == 16 {
			maxVal = 65535
		}
		_, err := fmt.Fprintf(w, "P6\n%d %d\n%d\n", p.PixelsPerLine, p.Lines, maxVal)
		return err
	default:
		maxVal := 255
		if p.Depth == 16 {
			maxVal = 65535
		}
		_, err := fmt.Fprintf(w, "P5\n%d %d\n%d\n", p.PixelsPerLine, p.Lines, maxVal)
		return err
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "genesys-scanimage: %s.\n", err)
		os.Exit(1)
	}
}
