package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/densemap/framebridge/internal/mesh"
	"github.com/densemap/framebridge/internal/monitoring"
	"github.com/densemap/framebridge/internal/rgbd"
	"github.com/densemap/framebridge/internal/transport"
)

// MeshSource is the reconstruction engine collaborator. Mesh meshes
// the current scene and returns a borrowed view of its triangle
// buffer; the buffer stays engine-owned.
type MeshSource interface {
	Mesh() (*mesh.Mesh, error)
}

// Engine bridges the callback-driven sensor streams to the synchronous
// reconstruction loop and serves scene export requests.
type Engine struct {
	cfg   Config
	tr    transport.Transport
	src   MeshSource
	log   *ExportLog // optional
	latch *rgbd.CalibrationLatch
	sync  *rgbd.Synchronizer
}

// New assembles an engine. src may be nil when no reconstruction
// engine is attached; exports then fail with a precondition violation.
// exportLog may be nil to disable export history.
func New(cfg Config, tr transport.Transport, src MeshSource, exportLog *ExportLog) *Engine {
	e := &Engine{
		cfg:   cfg.withDefaults(),
		tr:    tr,
		src:   src,
		log:   exportLog,
		latch: rgbd.NewCalibrationLatch(),
	}
	e.sync = rgbd.NewSynchronizer(tr.ServiceOnce)
	return e
}

// Config returns the effective (defaulted) configuration.
func (e *Engine) Config() Config { return e.cfg }

// Start subscribes the sensor and calibration streams, registers the
// export endpoint, and blocks until both camera info messages have
// arrived or ctx is cancelled. Sensors that never publish calibration
// surface as ctx.Err() rather than an indefinite hang.
func (e *Engine) Start(ctx context.Context) error {
	subs := []struct {
		stream  string
		handler transport.Handler
	}{
		{e.cfg.ColorInfoStream, e.infoHandler(rgbd.ModalityColor)},
		{e.cfg.DepthInfoStream, e.infoHandler(rgbd.ModalityDepth)},
		{e.cfg.ColorStream, e.frameHandler(rgbd.ModalityColor, e.sync.OfferColor)},
		{e.cfg.DepthStream, e.frameHandler(rgbd.ModalityDepth, e.sync.OfferDepth)},
	}
	for _, s := range subs {
		if err := e.tr.Subscribe(s.stream, s.handler); err != nil {
			return fmt.Errorf("subscribe %q: %w", s.stream, err)
		}
	}
	if err := e.tr.RegisterRequestHandler(e.cfg.ExportRequest, e.serveExport); err != nil {
		return fmt.Errorf("register %q: %w", e.cfg.ExportRequest, err)
	}

	monitoring.Logf("bridge: waiting for %s and %s", e.cfg.ColorInfoStream, e.cfg.DepthInfoStream)
	if err := e.latch.Wait(ctx, e.tr.ServiceOnce); err != nil {
		return fmt.Errorf("calibration wait: %w", err)
	}

	ci, _ := e.latch.Get(rgbd.ModalityColor)
	di, _ := e.latch.Get(rgbd.ModalityDepth)
	monitoring.Logf("bridge: color intrinsics fx=%.2f fy=%.2f cx=%.2f cy=%.2f %dx%d",
		ci.Fx, ci.Fy, ci.Cx, ci.Cy, ci.Width, ci.Height)
	monitoring.Logf("bridge: depth intrinsics fx=%.2f fy=%.2f cx=%.2f cy=%.2f %dx%d",
		di.Fx, di.Fy, di.Cx, di.Cy, di.Width, di.Height)
	return nil
}

func (e *Engine) infoHandler(m rgbd.Modality) transport.Handler {
	return func(payload []byte) {
		info, err := transport.DecodeCameraInfo(payload)
		if err != nil {
			monitoring.Logf("bridge: bad %s camera info: %v", m, err)
			return
		}
		first := !e.latch.Complete()
		e.latch.Record(m, rgbd.Intrinsics{
			Fx: info.Fx, Fy: info.Fy,
			Cx: info.Cx, Cy: info.Cy,
			Width: info.Width, Height: info.Height,
		})
		if first {
			monitoring.Logf("bridge: got %s camera info", m)
		}
	}
}

func (e *Engine) frameHandler(m rgbd.Modality, offer func(w, h int, raw []byte) error) transport.Handler {
	wantBpp := rgbd.ColorRawBytesPerPixel
	if m == rgbd.ModalityDepth {
		wantBpp = rgbd.DepthRawBytesPerPixel
	}
	return func(payload []byte) {
		msg, err := transport.DecodeFrame(payload)
		if err != nil {
			monitoring.Debugf("bridge: bad %s frame message: %v", m, err)
			return
		}
		if msg.BytesPerPixel != wantBpp {
			// Float-encoded depth (4 bytes/px) lands here: unsupported.
			monitoring.Debugf("bridge: unsupported %s encoding, %d bytes/px", m, msg.BytesPerPixel)
			return
		}
		// Drops are best effort and already counted by the synchronizer.
		_ = offer(msg.Width, msg.Height, msg.Payload)
	}
}

// NextFramePair polls for a synchronized color/depth pair. It returns
// rgbd.ErrNotReady while either slot is empty; the not-ready path
// services the transport once so producer callbacks keep flowing.
func (e *Engine) NextFramePair(dst *rgbd.FramePair) error {
	return e.sync.NextPair(dst)
}

// HasCalibration reports whether both modalities have recorded
// intrinsics.
func (e *Engine) HasCalibration() bool { return e.latch.Complete() }

// Intrinsics returns the recorded parameters for a modality.
func (e *Engine) Intrinsics(m rgbd.Modality) (rgbd.Intrinsics, bool) {
	return e.latch.Get(m)
}

// DepthScale converts raw depth counts to metres.
func (e *Engine) DepthScale() float64 { return e.cfg.DepthUnitScale }

// Stats returns the synchronizer counters.
func (e *Engine) Stats() rgbd.SyncStats { return e.sync.Stats() }

// RequestExport flattens the current scene mesh and publishes the
// resulting point cloud on the export stream. It is synchronous and
// uninterruptible: the accelerator download is a blocking cost paid
// only on explicit export requests, off the frame-rate-critical path.
// A failed export leaves the synchronizer and its gate untouched and
// is fatal only to this call.
func (e *Engine) RequestExport() (*mesh.PointCloud, error) {
	start := time.Now()
	exportID := uuid.NewString()

	fail := func(err error) (*mesh.PointCloud, error) {
		e.recordExport(ExportRecord{
			ExportID: exportID,
			Duration: time.Since(start),
			Outcome:  err.Error(),
		})
		return nil, err
	}

	if e.src == nil {
		return fail(fmt.Errorf("%w: no mesh source attached", mesh.ErrPrecondition))
	}
	m, err := e.src.Mesh()
	if err != nil {
		return fail(fmt.Errorf("mesh scene: %w", err))
	}
	pc, err := mesh.Flatten(m)
	if err != nil {
		return fail(err)
	}
	pc.FrameID = exportID
	pc.ReferenceFrame = e.cfg.ReferenceFrame

	payload, err := pc.EncodeGob()
	if err != nil {
		return fail(err)
	}
	if err := e.tr.Publish(e.cfg.ExportStream, payload); err != nil {
		return fail(fmt.Errorf("publish %q: %w", e.cfg.ExportStream, err))
	}

	min, max := pc.Bounds()
	monitoring.Logf("bridge: exported %d points on %q in %v (bounds [%.2f %.2f %.2f]..[%.2f %.2f %.2f])",
		len(pc.Points), e.cfg.ExportStream, time.Since(start).Round(time.Millisecond),
		min.X, min.Y, min.Z, max.X, max.Y, max.Z)
	e.recordExport(ExportRecord{
		ExportID:  exportID,
		Triangles: len(pc.Points) / 3,
		Points:    len(pc.Points),
		Duration:  time.Since(start),
		Outcome:   "ok",
	})
	return pc, nil
}

// serveExport adapts RequestExport to the transport's request/response
// endpoint.
func (e *Engine) serveExport() ([]byte, error) {
	pc, err := e.RequestExport()
	if err != nil {
		return nil, err
	}
	return pc.EncodeGob()
}

func (e *Engine) recordExport(rec ExportRecord) {
	if e.log == nil {
		return
	}
	if err := e.log.Record(rec); err != nil {
		monitoring.Logf("bridge: export log: %v", err)
	}
}
