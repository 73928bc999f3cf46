package rgbd

import "sync"

// SlotStats is a snapshot of a slot's producer-side counters.
type SlotStats struct {
	Writes          uint64 // frames accepted into the slot
	OccupiedDrops   uint64 // dropped because the previous frame was unconsumed
	ResolutionDrops uint64 // dropped because dimensions disagreed with the pinned size
	PayloadDrops    uint64 // dropped because the payload length was wrong
}

// FrameSlot is a single-slot buffer for one modality. It is written by
// an asynchronous producer callback and read-then-cleared by the
// synchronous consumer; each role contends only for this slot's mutex,
// so the color and depth producers never block each other.
//
// The slot owns its raw byte buffer. A producer write copies the
// transport payload in; the consumer drain decodes out of it into
// consumer-owned storage. Invariant: ready == true implies the held
// payload is complete and not being concurrently written.
type FrameSlot struct {
	modality Modality

	mu     sync.Mutex
	width  int
	height int
	raw    []byte
	ready  bool
	stats  SlotStats
}

// NewFrameSlot returns an empty slot for the given modality. The first
// accepted frame pins the slot's dimensions.
func NewFrameSlot(m Modality) *FrameSlot {
	return &FrameSlot{modality: m}
}

// Modality returns the stream this slot buffers.
func (s *FrameSlot) Modality() Modality { return s.modality }

// Offer attempts to store a raw frame. It returns nil when the frame
// was accepted and an error naming the drop reason otherwise. Callable
// from any goroutine.
func (s *FrameSlot) Offer(width, height int, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		s.stats.OccupiedDrops++
		return ErrSlotOccupied
	}
	if s.width != 0 && (width != s.width || height != s.height) {
		s.stats.ResolutionDrops++
		return ErrResolutionMismatch
	}
	if err := validateRaw(s.modality, width, height, raw); err != nil {
		s.stats.PayloadDrops++
		return err
	}

	s.width, s.height = width, height
	if cap(s.raw) < len(raw) {
		s.raw = make([]byte, len(raw))
	}
	s.raw = s.raw[:len(raw)]
	copy(s.raw, raw)
	s.ready = true
	s.stats.Writes++
	return nil
}

// Ready reports whether an unconsumed frame is held.
func (s *FrameSlot) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Size returns the pinned frame dimensions, or zeros before the first
// accepted frame.
func (s *FrameSlot) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// Stats returns a snapshot of the slot counters.
func (s *FrameSlot) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// drainDepth decodes the held payload into dst and clears the slot.
// Read-then-clear is atomic with respect to this slot's producer.
func (s *FrameSlot) drainDepth(dst *DepthFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false
	}
	n := s.width * s.height
	if cap(dst.Samples) < n {
		dst.Samples = make([]uint16, n)
	}
	dst.Samples = dst.Samples[:n]
	dst.Width, dst.Height = s.width, s.height
	decodeDepthInto(dst.Samples, s.raw)
	s.ready = false
	return true
}

// drainColor decodes the held payload into dst and clears the slot.
func (s *FrameSlot) drainColor(dst *ColorFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return false
	}
	n := s.width * s.height * ColorBytesPerPixel
	if cap(dst.Pixels) < n {
		dst.Pixels = make([]byte, n)
	}
	dst.Pixels = dst.Pixels[:n]
	dst.Width, dst.Height = s.width, s.height
	decodeColorInto(dst.Pixels, s.raw)
	s.ready = false
	return true
}
