package transport

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Frame messages carry a 12-byte little-endian header (width, height,
// bytes-per-pixel) followed by the raw image payload. Camera info
// messages carry four float64 intrinsics followed by the sensor
// resolution.
const (
	frameHeaderLen       = 12
	cameraInfoPayloadLen = 4*8 + 2*4
)

// FrameMessage is a decoded sensor frame delivery.
type FrameMessage struct {
	Width         int
	Height        int
	BytesPerPixel int
	Payload       []byte
}

// CameraInfoMessage is a decoded calibration delivery.
type CameraInfoMessage struct {
	Fx, Fy float64
	Cx, Cy float64
	Width  int
	Height int
}

// EncodeFrame packs a frame message for publication.
func EncodeFrame(m FrameMessage) []byte {
	out := make([]byte, frameHeaderLen+len(m.Payload))
	binary.LittleEndian.PutUint32(out[0:], uint32(m.Width))
	binary.LittleEndian.PutUint32(out[4:], uint32(m.Height))
	binary.LittleEndian.PutUint32(out[8:], uint32(m.BytesPerPixel))
	copy(out[frameHeaderLen:], m.Payload)
	return out
}

// DecodeFrame unpacks a frame message. The returned payload aliases
// msg; callers that keep it must copy.
func DecodeFrame(msg []byte) (FrameMessage, error) {
	if len(msg) < frameHeaderLen {
		return FrameMessage{}, fmt.Errorf("frame message too short: %d bytes", len(msg))
	}
	m := FrameMessage{
		Width:         int(binary.LittleEndian.Uint32(msg[0:])),
		Height:        int(binary.LittleEndian.Uint32(msg[4:])),
		BytesPerPixel: int(binary.LittleEndian.Uint32(msg[8:])),
		Payload:       msg[frameHeaderLen:],
	}
	if want := m.Width * m.Height * m.BytesPerPixel; len(m.Payload) != want {
		return FrameMessage{}, fmt.Errorf("frame payload %d bytes, header declares %d", len(m.Payload), want)
	}
	return m, nil
}

// EncodeCameraInfo packs a calibration message for publication.
func EncodeCameraInfo(m CameraInfoMessage) []byte {
	out := make([]byte, cameraInfoPayloadLen)
	binary.LittleEndian.PutUint64(out[0:], math.Float64bits(m.Fx))
	binary.LittleEndian.PutUint64(out[8:], math.Float64bits(m.Fy))
	binary.LittleEndian.PutUint64(out[16:], math.Float64bits(m.Cx))
	binary.LittleEndian.PutUint64(out[24:], math.Float64bits(m.Cy))
	binary.LittleEndian.PutUint32(out[32:], uint32(m.Width))
	binary.LittleEndian.PutUint32(out[36:], uint32(m.Height))
	return out
}

// DecodeCameraInfo unpacks a calibration message.
func DecodeCameraInfo(msg []byte) (CameraInfoMessage, error) {
	if len(msg) != cameraInfoPayloadLen {
		return CameraInfoMessage{}, fmt.Errorf("camera info message %d bytes, want %d", len(msg), cameraInfoPayloadLen)
	}
	return CameraInfoMessage{
		Fx:     math.Float64frombits(binary.LittleEndian.Uint64(msg[0:])),
		Fy:     math.Float64frombits(binary.LittleEndian.Uint64(msg[8:])),
		Cx:     math.Float64frombits(binary.LittleEndian.Uint64(msg[16:])),
		Cy:     math.Float64frombits(binary.LittleEndian.Uint64(msg[24:])),
		Width:  int(binary.LittleEndian.Uint32(msg[32:])),
		Height: int(binary.LittleEndian.Uint32(msg[36:])),
	}, nil
}
