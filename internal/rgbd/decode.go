package rgbd

import (
	"encoding/binary"
	"fmt"
)

// decodeDepthInto unpacks raw little-endian 16-bit depth samples into
// dst. The caller guarantees len(raw) == 2*len(dst).
func decodeDepthInto(dst []uint16, raw []byte) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
}

// decodeColorInto expands packed RGB source bytes into RGBA with a
// constant alpha of 255. The caller guarantees
// len(raw) == 3*(len(dst)/4).
func decodeColorInto(dst []byte, raw []byte) {
	for i, j := 0, 0; i < len(raw); i, j = i+3, j+4 {
		dst[j] = raw[i]
		dst[j+1] = raw[i+1]
		dst[j+2] = raw[i+2]
		dst[j+3] = 255
	}
}

// rawFrameLen returns the expected raw payload size for a frame of the
// given modality and dimensions.
func rawFrameLen(m Modality, width, height int) int {
	switch m {
	case ModalityDepth:
		return width * height * DepthRawBytesPerPixel
	case ModalityColor:
		return width * height * ColorRawBytesPerPixel
	default:
		return -1
	}
}

// validateRaw checks a raw payload against the frame geometry before
// it is admitted into a slot.
func validateRaw(m Modality, width, height int, raw []byte) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadPayload, width, height)
	}
	if want := rawFrameLen(m, width, height); len(raw) != want {
		return fmt.Errorf("%w: %s frame %dx%d wants %d bytes, got %d",
			ErrBadPayload, m, width, height, want, len(raw))
	}
	return nil
}
