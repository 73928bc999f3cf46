package rgbd

import (
	"sync/atomic"

	"github.com/densemap/framebridge/internal/monitoring"
)

// SyncStats aggregates the synchronizer's counters.
type SyncStats struct {
	Color     SlotStats
	Depth     SlotStats
	GateDrops uint64 // producer writes dropped while the consumer was mid-drain
	Pairs     uint64 // successful paired reads
}

// Synchronizer coordinates the two frame slots and the accepting gate.
//
// The gate is the sole cross-slot primitive: the consumer closes it for
// the duration of a drain, making the read-clear-reopen sequence
// indivisible from the producers' point of view. Producers observe
// either "accepting" (slot writable if empty) or "not accepting"
// (write dropped); no intermediate drain state leaks out.
type Synchronizer struct {
	color *FrameSlot
	depth *FrameSlot

	accepting atomic.Bool
	gateDrops atomic.Uint64
	pairs     atomic.Uint64

	// service performs one non-blocking dispatch of pending transport
	// deliveries. Invoked on the not-ready poll path so producer
	// callbacks get a chance to fire even when the transport is
	// poll-driven. May be nil.
	service func()
}

// NewSynchronizer returns a synchronizer with empty slots and an open
// gate. service may be nil.
func NewSynchronizer(service func()) *Synchronizer {
	s := &Synchronizer{
		color:   NewFrameSlot(ModalityColor),
		depth:   NewFrameSlot(ModalityDepth),
		service: service,
	}
	s.accepting.Store(true)
	return s
}

// OfferColor delivers a raw color frame from a producer callback.
// Drops are silent from the transport's point of view: the returned
// error is for counters and diagnostics only, never backpressure.
func (s *Synchronizer) OfferColor(width, height int, raw []byte) error {
	return s.offer(s.color, width, height, raw)
}

// OfferDepth delivers a raw depth frame from a producer callback.
func (s *Synchronizer) OfferDepth(width, height int, raw []byte) error {
	return s.offer(s.depth, width, height, raw)
}

func (s *Synchronizer) offer(slot *FrameSlot, width, height int, raw []byte) error {
	if !s.accepting.Load() {
		s.gateDrops.Add(1)
		monitoring.Debugf("rgbd: dropped %s frame, gate closed", slot.Modality())
		return ErrGateClosed
	}
	if err := slot.Offer(width, height, raw); err != nil {
		monitoring.Debugf("rgbd: dropped %s frame: %v", slot.Modality(), err)
		return err
	}
	return nil
}

// NextPair polls for a synchronized frame pair.
//
// When either slot is empty it performs one transport service tick and
// returns ErrNotReady without consuming anything. When both slots are
// ready it closes the gate, drains depth then color in that fixed
// order into dst's reusable buffers, clears both ready flags and
// reopens the gate.
func (s *Synchronizer) NextPair(dst *FramePair) error {
	if !s.depth.Ready() || !s.color.Ready() {
		if s.service != nil {
			s.service()
		}
		return ErrNotReady
	}

	s.accepting.Store(false)
	defer s.accepting.Store(true)

	// Both drains succeed: ready can only be cleared by this consumer,
	// and the closed gate keeps producers out for the whole window.
	s.depth.drainDepth(&dst.Depth)
	s.color.drainColor(&dst.Color)
	s.pairs.Add(1)
	return nil
}

// Stats returns a snapshot of all synchronizer counters.
func (s *Synchronizer) Stats() SyncStats {
	return SyncStats{
		Color:     s.color.Stats(),
		Depth:     s.depth.Stats(),
		GateDrops: s.gateDrops.Load(),
		Pairs:     s.pairs.Load(),
	}
}
