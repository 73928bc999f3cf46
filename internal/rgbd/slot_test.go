package rgbd

import (
	"errors"
	"testing"
)

func depthRaw(w, h int, fill byte) []byte {
	raw := make([]byte, w*h*DepthRawBytesPerPixel)
	for i := range raw {
		raw[i] = fill
	}
	return raw
}

func TestSlotOfferAndDrain(t *testing.T) {
	s := NewFrameSlot(ModalityDepth)
	if s.Ready() {
		t.Fatal("new slot must be empty")
	}

	if err := s.Offer(2, 2, []byte{0x34, 0x12, 0, 0, 0, 0, 0xff, 0xff}); err != nil {
		t.Fatalf("offer: %v", err)
	}
	if !s.Ready() {
		t.Fatal("slot not ready after accepted offer")
	}

	var dst DepthFrame
	if !s.drainDepth(&dst) {
		t.Fatal("drain failed on ready slot")
	}
	if dst.Width != 2 || dst.Height != 2 {
		t.Fatalf("drained size %dx%d, want 2x2", dst.Width, dst.Height)
	}
	if dst.Samples[0] != 0x1234 || dst.Samples[3] != 0xffff {
		t.Fatalf("drained samples %v", dst.Samples)
	}
	if s.Ready() {
		t.Fatal("slot still ready after drain")
	}
	if s.drainDepth(&dst) {
		t.Fatal("drain succeeded on empty slot")
	}
}

func TestSlotOccupiedDrop(t *testing.T) {
	s := NewFrameSlot(ModalityDepth)
	if err := s.Offer(2, 2, depthRaw(2, 2, 1)); err != nil {
		t.Fatalf("first offer: %v", err)
	}
	err := s.Offer(2, 2, depthRaw(2, 2, 2))
	if !errors.Is(err, ErrSlotOccupied) {
		t.Fatalf("second offer: got %v, want ErrSlotOccupied", err)
	}

	// The held frame must be the first one, untouched by the drop.
	var dst DepthFrame
	s.drainDepth(&dst)
	if dst.Samples[0] != 0x0101 {
		t.Fatalf("held frame corrupted by dropped write: %#04x", dst.Samples[0])
	}

	stats := s.Stats()
	if stats.Writes != 1 || stats.OccupiedDrops != 1 {
		t.Fatalf("stats = %+v, want 1 write and 1 occupied drop", stats)
	}
}

func TestSlotResolutionMismatchRejected(t *testing.T) {
	s := NewFrameSlot(ModalityDepth)
	if err := s.Offer(4, 4, depthRaw(4, 4, 0)); err != nil {
		t.Fatalf("pin size: %v", err)
	}
	var dst DepthFrame
	s.drainDepth(&dst)

	// Sensor resolution changed mid-stream: the frame is rejected and
	// the slot keeps its pinned size.
	err := s.Offer(8, 8, depthRaw(8, 8, 0))
	if !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("mismatched offer: got %v, want ErrResolutionMismatch", err)
	}
	w, h := s.Size()
	if w != 4 || h != 4 {
		t.Fatalf("pinned size changed to %dx%d", w, h)
	}
	if s.Stats().ResolutionDrops != 1 {
		t.Fatalf("stats = %+v, want 1 resolution drop", s.Stats())
	}

	// Matching frames still flow after the rejection.
	if err := s.Offer(4, 4, depthRaw(4, 4, 3)); err != nil {
		t.Fatalf("offer after rejection: %v", err)
	}
}

func TestSlotBadPayloadRejected(t *testing.T) {
	s := NewFrameSlot(ModalityColor)
	err := s.Offer(2, 2, make([]byte, 7)) // 2x2 color wants 12 bytes
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("got %v, want ErrBadPayload", err)
	}
	if s.Ready() {
		t.Fatal("slot became ready from a bad payload")
	}
}
