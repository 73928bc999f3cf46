package rgbd

import (
	"context"
	"sync"
	"time"
)

// calibrationPollInterval is the coarse poll used by Wait. This runs
// once at startup, never on the frame path, so a sleep loop is
// acceptable.
const calibrationPollInterval = 250 * time.Millisecond

// CalibrationLatch accumulates the two independent camera info
// signals. Initialization blocks until both modalities have reported
// at least once; after that the latch is permanently complete.
type CalibrationLatch struct {
	mu      sync.Mutex
	color   Intrinsics
	depth   Intrinsics
	colorOK bool
	depthOK bool
}

// NewCalibrationLatch returns an empty latch.
func NewCalibrationLatch() *CalibrationLatch {
	return &CalibrationLatch{}
}

// Record stores intrinsics for a modality. Callable from any callback
// context, any number of times: later calls overwrite the stored value
// (last write wins) but the received flag never reverts.
func (l *CalibrationLatch) Record(m Modality, in Intrinsics) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch m {
	case ModalityColor:
		l.color = in
		l.colorOK = true
	case ModalityDepth:
		l.depth = in
		l.depthOK = true
	}
}

// Complete reports whether both modalities have recorded at least once.
func (l *CalibrationLatch) Complete() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.colorOK && l.depthOK
}

// Get returns the stored intrinsics for a modality and whether that
// modality has recorded yet.
func (l *CalibrationLatch) Get(m Modality) (Intrinsics, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch m {
	case ModalityColor:
		return l.color, l.colorOK
	case ModalityDepth:
		return l.depth, l.depthOK
	default:
		return Intrinsics{}, false
	}
}

// Wait blocks until the latch is complete or ctx is cancelled. tick,
// if non-nil, runs once per iteration before the completeness check;
// poll-driven transports pass their service function here so pending
// camera info callbacks can fire during the wait. If the sensors never
// publish calibration the wait would otherwise hang forever; callers
// bound it with a deadline context and get ctx.Err() back.
func (l *CalibrationLatch) Wait(ctx context.Context, tick func()) error {
	ticker := time.NewTicker(calibrationPollInterval)
	defer ticker.Stop()
	for {
		if tick != nil {
			tick()
		}
		if l.Complete() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
