package rgbd

import "errors"

var (
	// ErrNotReady is the expected, non-fatal poll result: the caller
	// retries on the next tick.
	ErrNotReady = errors.New("frame pair not ready")

	// ErrGateClosed reports a producer write attempted while the
	// consumer is mid-drain. The frame is dropped.
	ErrGateClosed = errors.New("synchronizer gate closed")

	// ErrSlotOccupied reports a producer write against a slot whose
	// previous frame has not been consumed yet. The frame is dropped.
	ErrSlotOccupied = errors.New("slot occupied")

	// ErrResolutionMismatch reports a frame whose dimensions disagree
	// with the size established by the first accepted frame. The
	// mismatching frame is rejected; the slot keeps its pinned size.
	ErrResolutionMismatch = errors.New("frame resolution mismatch")

	// ErrBadPayload reports a raw payload whose length does not match
	// the declared geometry for its modality.
	ErrBadPayload = errors.New("bad frame payload")
)
