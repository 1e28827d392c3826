// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lifecycle

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sane-project/genesys/calibration"
	"github.com/sane-project/genesys/commandset"
	"github.com/sane-project/genesys/descriptors"
	"github.com/sane-project/genesys/pipeline"
	"github.com/sane-project/genesys/sane"
	"github.com/sane-project/genesys/session"
	"github.com/sane-project/genesys/transport"
)

const gainCoeff = 0.9

// Handle is one open scanner: the device, its CommandSet, the live
// calibration cache, and (while SCANNING) the resolved session and
// pipeline reader. One Handle serves one Scanner_Handle's worth of SANE
// calls; callers must serialize calls on a Handle themselves (spec.md §5,
// single-threaded cooperative per scanner handle) except for Cancel, which
// is safe to call concurrently with Read.
type Handle struct {
	mu sync.Mutex

	State State

	T      transport.Interface
	Device *descriptors.Device
	CS     commandset.CommandSet
	Log    *zap.SugaredLogger

	Cache         *calibration.Cache
	SheetFed      bool
	HasTransparencyAdapter bool

	sess     *session.ScanSession
	reader   io.Reader
	rawSrc   *pipeline.RawRowSource
	guard    *ScanGuard

	cancelled bool
}

// Open runs the OPEN→READY transition: ASIC cold boot, home search (for
// flatbed units), calibration cache load, default gamma install (spec.md
// §4.7).
func Open(t transport.Interface, d *descriptors.Device, cache *calibration.Cache, sheetFed, hasTA bool, log *zap.SugaredLogger) (*Handle, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	cs, err := commandset.NewForDevice(t, d, log)
	if err != nil {
		return nil, err
	}
	h := &Handle{
		State: StateOpen, T: t, Device: d, CS: cs, Log: log,
		Cache: cache, SheetFed: sheetFed, HasTransparencyAdapter: hasTA,
	}
	if err := cs.Init(); err != nil {
		return nil, err
	}
	if !sheetFed {
		if err := cs.MoveBackHome(true); err != nil {
			return nil, err
		}
	}
	if err := cs.SendGammaTable(); err != nil {
		return nil, err
	}
	h.State = StateReady
	return h, nil
}

// Configure plans the requested scan and returns the SANE_Parameters a
// frontend will see, per spec.md §4.7 READY state.
func (h *Handle) Configure(settings session.Settings, xOffsetMM, yOffsetMM float64) (sane.Parameters, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.State != StateReady {
		return sane.Parameters{}, sane.Wrap(sane.StatusDeviceBusy, "configure", nil)
	}
	if settings.Method != descriptors.MethodFlatbed && h.HasTransparencyAdapter {
		if err := h.CS.MoveToTransparencyAdapter(); err != nil {
			return sane.Parameters{}, err
		}
	}
	sess, err := h.CS.CalculateScanSession(settings, xOffsetMM, yOffsetMM)
	if err != nil {
		return sane.Parameters{}, err
	}
	h.sess = sess
	return parametersOf(sess), nil
}

func parametersOf(sess *session.ScanSession) sane.Parameters {
	format := sane.FrameGray
	if sess.Settings.Channels() == 3 {
		format = sane.FrameRGB
	}
	return sane.Parameters{
		Format:        format,
		LastFrame:     true,
		BytesPerLine:  sess.OutputLineBytes,
		PixelsPerLine: sess.OutputPixels,
		Lines:         sess.OutputLineCount,
		Depth:         sess.Settings.Depth,
	}
}

// Start runs READY→SCANNING: calibrate (cached or fresh), install scan
// registers and slope tables, begin the scan, and build the image
// pipeline reader (spec.md §4.7).
func (h *Handle) Start(buildOpts pipeline.Options) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.State != StateReady || h.sess == nil {
		return sane.Wrap(sane.StatusDeviceBusy, "start", nil)
	}
	h.cancelled = false

	if err := h.calibrate(); err != nil {
		return err
	}

	if h.SheetFed {
		if err := h.CS.LoadDocument(); err != nil {
			return sane.Wrap(sane.StatusJammed, "start.load_document", err)
		}
		ended, err := h.CS.DetectDocumentEnd()
		if err != nil {
			return err
		}
		if ended {
			return sane.Wrap(sane.StatusNoDocs, "start.load_document", nil)
		}
	}

	if h.CS.NeedsHomeBeforeInitRegsForScan() {
		if err := h.CS.MoveBackHome(true); err != nil {
			return err
		}
	}
	if err := h.CS.InitRegsForShading(h.sess); err != nil {
		return err
	}
	if err := h.CS.InitRegsForScan(h.sess); err != nil {
		return err
	}
	if err := h.CS.InitRegsForScanSession(h.sess); err != nil {
		return err
	}

	h.guard = NewScanGuard(h.CS, h.Log)
	if err := h.CS.BeginScan(true); err != nil {
		h.guard.Release()
		return err
	}

	h.rawSrc = pipeline.NewRawRowSource(bulkReader{h.T, h.sess.OutputLineBytesRaw}, h.sess.OutputLineBytesRaw, h.sess.OutputLineBytesRaw*h.sess.OutputLineCount)
	h.reader = pipeline.Build(h.sess, h.rawSrc, buildOpts)
	h.State = StateScanning
	return nil
}

// bulkReader adapts transport.Interface.BulkRead(n) to io.Reader for
// pipeline.RawRowSource, which wants exactly n bytes per call.
type bulkReader struct {
	t       transport.Interface
	rowSize int
}

func (b bulkReader) Read(p []byte) (int, error) {
	data, err := b.t.BulkRead(len(p))
	n := copy(p, data)
	return n, err
}

func (h *Handle) calibrate() error {
	fp := h.sess.Fingerprint(h.Device.Sensor.Name)
	if entry, ok := h.Cache.Find(fp, time.Now()); ok {
		if err := h.applyCachedEntry(entry); err != nil {
			return err
		}
		return nil
	}
	result, err := h.CS.Calibrate(h.sess)
	if err != nil {
		return err
	}
	h.Cache.Put(result.Entry)
	return nil
}

func (h *Handle) applyCachedEntry(entry calibration.Entry) error {
	addrs := [3]byte{h.Device.Frontend.OffsetR, h.Device.Frontend.OffsetG, h.Device.Frontend.OffsetB}
	gains := [3]byte{h.Device.Frontend.GainR, h.Device.Frontend.GainG, h.Device.Frontend.GainB}
	for c := 0; c < 3; c++ {
		if err := h.T.WriteFrontEndRegister(addrs[c], entry.FrontendOffset[c]); err != nil {
			return sane.Wrap(sane.StatusIOError, "calibrate.cached.offset", err)
		}
		if err := h.T.WriteFrontEndRegister(gains[c], entry.FrontendGain[c]); err != nil {
			return sane.Wrap(sane.StatusIOError, "calibrate.cached.gain", err)
		}
	}
	coeffs := calibration.ComputeCoefficients(entry.DarkAverage, entry.WhiteAverage, gainCoeff)
	return h.CS.SendShadingData(coeffs, h.sess.OpticalResolution)
}

// Read fills p from the pipeline, returning CANCELLED if Cancel was
// called, and io.EOF at the planned end of the scan (spec.md §4.7
// SCANNING→READY, natural EOF).
func (h *Handle) Read(p []byte) (int, error) {
	h.mu.Lock()
	cancelled := h.cancelled
	h.mu.Unlock()
	if cancelled {
		return 0, sane.Wrap(sane.StatusCancelled, "read", nil)
	}
	n, err := h.reader.Read(p)
	if err == io.EOF {
		h.endScan(false)
		return n, io.EOF
	}
	if err != nil {
		h.endScan(true)
		return n, sane.Wrap(sane.StatusIOError, "read", err)
	}
	return n, nil
}

// NotifyDocumentEnd lets a sheet-fed caller report the paper sensor
// dropped before the planned byte count was reached; the pipeline trims
// its remaining budget and emits EOF at the current scanline instead
// (spec.md §4.6, End-of-scan).
func (h *Handle) NotifyDocumentEnd(scanlinesRead int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rawSrc == nil {
		return
	}
	h.rawSrc.TrimRemaining(scanlinesRead * h.sess.OutputLineBytesRaw)
}

// PollDocumentEnd checks the paper sensor on sheet-fed units and trims
// the remaining read budget to scanlinesRead if it has dropped, so the
// next Read call emits EOF at the current line instead of running to the
// originally planned line count (spec.md §4.6 End-of-scan, sheet-fed
// case). A no-op on flatbed units.
func (h *Handle) PollDocumentEnd(scanlinesRead int) error {
	if !h.SheetFed {
		return nil
	}
	ended, err := h.CS.DetectDocumentEnd()
	if err != nil {
		return err
	}
	if ended {
		h.NotifyDocumentEnd(scanlinesRead)
	}
	return nil
}

// Cancel is asynchronous-safe per spec.md §5: it only sets a flag and
// issues a stop; the next Read call observes it and returns CANCELLED.
func (h *Handle) Cancel() {
	h.mu.Lock()
	h.cancelled = true
	h.mu.Unlock()
	h.T.Cancel()
	_ = h.CS.EndScan(true)
}

func (h *Handle) endScan(failed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.guard != nil {
		h.guard.Release()
		h.guard = nil
	}
	h.reader = nil
	h.rawSrc = nil
	h.State = StateReady
	if h.SheetFed {
		go func() {
			if err := h.CS.EjectDocument(); err != nil {
				h.Log.Warnw("eject_document: background eject failed", "error", err)
			}
		}()
	} else {
		go func() {
			if err := h.CS.MoveBackHome(false); err != nil {
				h.Log.Warnw("park_head: background home failed", "error", err)
			}
		}()
	}
}

// Close runs SCANNING/READY→CLOSED: if a scan is in progress it is
// cancelled first, then the head is parked synchronously (sheet-fed units
// skip parking; flatbed already started a background park on the last
// end_scan but Close waits for correctness) and the calibration cache is
// persisted. Cache write failures are logged, never fatal (spec.md §5,
// "persistence happens on sane_close outside the scan critical path").
func (h *Handle) Close(persistCache func(*calibration.Cache) error) error {
	h.mu.Lock()
	scanning := h.State == StateScanning
	h.mu.Unlock()
	if scanning {
		h.Cancel()
	}
	if !h.SheetFed {
		if err := h.CS.MoveBackHome(true); err != nil {
			h.Log.Warnw("close: park_head failed", "error", err)
		}
	}
	if persistCache != nil {
		if err := persistCache(h.Cache); err != nil {
			h.Log.Warnw("close: cache persist failed", "error", err)
		}
	}
	h.mu.Lock()
	h.State = StateClosed
	h.mu.Unlock()
	return h.T.Close()
}
