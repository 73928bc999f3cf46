// Package rgbd implements the synchronization bridge between an
// asynchronous RGB-D sensor stream and a synchronous consumer that
// processes one color/depth frame pair at a time.
//
// The production side runs in transport callback contexts; the
// consumption side is a single poll-driven loop. Each modality is
// buffered in a single-slot mailbox with an overwrite-suppression
// policy: a frame cannot be replaced until consumed, and frames that
// arrive while a slot is occupied (or while a drain is in progress)
// are dropped. Freshness wins over completeness.
package rgbd

import "fmt"

// Modality identifies which sensor stream a frame or calibration
// message belongs to.
type Modality int

const (
	ModalityColor Modality = iota
	ModalityDepth
)

func (m Modality) String() string {
	switch m {
	case ModalityColor:
		return "color"
	case ModalityDepth:
		return "depth"
	default:
		return fmt.Sprintf("modality(%d)", int(m))
	}
}

// Raw transport encodings. Depth arrives as 16-bit little-endian
// samples (millimetre raw counts); color arrives as packed RGB.
// Float-encoded depth is not supported.
const (
	DepthRawBytesPerPixel = 2
	ColorRawBytesPerPixel = 3
	ColorBytesPerPixel    = 4 // decoded RGBA, alpha fixed at 255
)

// ColorFrame is a decoded color image: 4 bytes per pixel (R, G, B, A)
// with the alpha channel always 255. Immutable once returned from a
// pair read.
type ColorFrame struct {
	Width  int
	Height int
	Pixels []byte
}

// DepthFrame is a decoded depth image: one 16-bit unsigned sample per
// pixel. Immutable once returned from a pair read.
type DepthFrame struct {
	Width   int
	Height  int
	Samples []uint16
}

// FramePair is a consumer-owned destination for one synchronized
// color/depth read. Its backing buffers are grown as needed and reused
// across reads, so a consumer can poll at frame rate without
// per-frame allocation.
type FramePair struct {
	Color ColorFrame
	Depth DepthFrame
}

// Intrinsics holds the pinhole parameters reported by a camera info
// message: focal lengths, principal point and sensor resolution.
type Intrinsics struct {
	Fx, Fy float64
	Cx, Cy float64
	Width  int
	Height int
}
