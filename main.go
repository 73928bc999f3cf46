package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/densemap/framebridge/internal/bridge"
	"github.com/densemap/framebridge/internal/mesh"
	"github.com/densemap/framebridge/internal/monitoring"
	"github.com/densemap/framebridge/internal/rgbd"
	"github.com/densemap/framebridge/internal/transport"
)

var (
	broker       = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	clientID     = flag.String("client-id", "framebridge", "MQTT client identifier")
	configPath   = flag.String("config", "", "Optional JSON config file for stream names")
	dbPath       = flag.String("db", "framebridge.db", "Export history database path (empty to disable)")
	devMode      = flag.Bool("dev", false, "Run against an in-memory transport with a synthetic sensor")
	pollInterval = flag.Duration("poll", 5*time.Millisecond, "Consumer poll interval")
	calibWait    = flag.Duration("calibration-timeout", 2*time.Minute, "How long to wait for camera info at startup")
	debug        = flag.Bool("debug", false, "Enable verbose logging")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)

	var cfg bridge.Config
	if *configPath != "" {
		var err error
		if cfg, err = bridge.LoadConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	var exportLog *bridge.ExportLog
	if *dbPath != "" {
		var err error
		if exportLog, err = bridge.OpenExportLog(*dbPath); err != nil {
			log.Fatalf("open export log: %v", err)
		}
		defer exportLog.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	var tr transport.Transport
	var src bridge.MeshSource

	if *devMode {
		lb := transport.NewLoopback()
		tr = lb
		src = syntheticMeshSource()
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSyntheticSensor(ctx, lb, cfg)
		}()
	} else {
		mq, err := transport.NewMQTT(transport.MQTTConfig{
			BrokerURL: *broker,
			ClientID:  *clientID,
		})
		if err != nil {
			log.Fatalf("connect transport: %v", err)
		}
		tr = mq
		// The reconstruction engine attaches here; without one, export
		// requests fail with a precondition violation.
	}
	defer tr.Close()

	engine := bridge.New(cfg, tr, src, exportLog)

	startCtx, cancel := context.WithTimeout(ctx, *calibWait)
	err := engine.Start(startCtx)
	cancel()
	if err != nil {
		log.Fatalf("start bridge: %v", err)
	}

	// Periodic counter reporting, teacher-style: one early report, then
	// a steady interval.
	wg.Add(1)
	go func() {
		defer wg.Done()
		reportStats(ctx, engine)
	}()

	runConsumer(ctx, engine, *devMode)

	stop()
	wg.Wait()
	log.Print("framebridge stopped")
}

// runConsumer is the synchronous processing loop: it polls for frame
// pairs at a fixed interval and, in dev mode, periodically exercises
// the export path.
func runConsumer(ctx context.Context, engine *bridge.Engine, dev bool) {
	ticker := time.NewTicker(*pollInterval)
	defer ticker.Stop()

	var exportTick <-chan time.Time
	if dev {
		t := time.NewTicker(5 * time.Second)
		defer t.Stop()
		exportTick = t.C
	}

	var pair rgbd.FramePair
	for {
		select {
		case <-ctx.Done():
			return
		case <-exportTick:
			if _, err := engine.RequestExport(); err != nil {
				log.Printf("export failed: %v", err)
			}
		case <-ticker.C:
			err := engine.NextFramePair(&pair)
			if errors.Is(err, rgbd.ErrNotReady) {
				continue
			}
			if err != nil {
				log.Printf("frame pair: %v", err)
				continue
			}
			monitoring.Debugf("pair: depth %dx%d color %dx%d",
				pair.Depth.Width, pair.Depth.Height, pair.Color.Width, pair.Color.Height)
		}
	}
}

func reportStats(ctx context.Context, engine *bridge.Engine) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(2 * time.Second):
		logStats(engine)
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logStats(engine)
		}
	}
}

func logStats(engine *bridge.Engine) {
	s := engine.Stats()
	log.Printf("sync: pairs=%d gate_drops=%d color{w=%d occ=%d res=%d bad=%d} depth{w=%d occ=%d res=%d bad=%d}",
		s.Pairs, s.GateDrops,
		s.Color.Writes, s.Color.OccupiedDrops, s.Color.ResolutionDrops, s.Color.PayloadDrops,
		s.Depth.Writes, s.Depth.OccupiedDrops, s.Depth.ResolutionDrops, s.Depth.PayloadDrops)
}

// runSyntheticSensor publishes camera info and gradient frame pairs on
// the loopback transport so the bridge can be exercised end to end
// without hardware.
func runSyntheticSensor(ctx context.Context, lb *transport.Loopback, cfg bridge.Config) {
	const w, h = 64, 48
	streams := bridgeStreams(cfg)

	info := transport.EncodeCameraInfo(transport.CameraInfoMessage{
		Fx: 525, Fy: 525, Cx: w / 2, Cy: h / 2, Width: w, Height: h,
	})

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	depth := make([]byte, w*h*rgbd.DepthRawBytesPerPixel)
	color := make([]byte, w*h*rgbd.ColorRawBytesPerPixel)
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		// Re-send calibration for the first second in case the bridge
		// subscribed after the first publish.
		if n < 30 {
			lb.Publish(streams.colorInfo, info)
			lb.Publish(streams.depthInfo, info)
		}
		fill := byte(n % 251)
		for i := range depth {
			depth[i] = fill
		}
		for i := range color {
			color[i] = fill
		}
		lb.Publish(streams.depth, transport.EncodeFrame(transport.FrameMessage{
			Width: w, Height: h, BytesPerPixel: rgbd.DepthRawBytesPerPixel, Payload: depth,
		}))
		lb.Publish(streams.color, transport.EncodeFrame(transport.FrameMessage{
			Width: w, Height: h, BytesPerPixel: rgbd.ColorRawBytesPerPixel, Payload: color,
		}))
	}
}

type streamNames struct {
	color, depth, colorInfo, depthInfo string
}

func bridgeStreams(cfg bridge.Config) streamNames {
	s := streamNames{
		color:     cfg.ColorStream,
		depth:     cfg.DepthStream,
		colorInfo: cfg.ColorInfoStream,
		depthInfo: cfg.DepthInfoStream,
	}
	if s.color == "" {
		s.color = bridge.DefaultColorStream
	}
	if s.depth == "" {
		s.depth = bridge.DefaultDepthStream
	}
	if s.colorInfo == "" {
		s.colorInfo = bridge.DefaultColorInfoStream
	}
	if s.depthInfo == "" {
		s.depthInfo = bridge.DefaultDepthInfoStream
	}
	return s
}

// syntheticMeshSource returns a fixed two-triangle scene so dev-mode
// exports produce a non-empty cloud.
func syntheticMeshSource() bridge.MeshSource {
	return meshSourceFunc(func() (*mesh.Mesh, error) {
		return &mesh.Mesh{Triangles: mesh.NewHostBuffer([]mesh.Triangle{
			{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}},
			{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 1, Z: 1}},
		})}, nil
	})
}

type meshSourceFunc func() (*mesh.Mesh, error)

func (f meshSourceFunc) Mesh() (*mesh.Mesh, error) { return f() }
