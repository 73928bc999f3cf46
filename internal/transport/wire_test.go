package transport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrameMessageRoundTrip(t *testing.T) {
	in := FrameMessage{
		Width:         3,
		Height:        2,
		BytesPerPixel: 2,
		Payload:       []byte{0x34, 0x12, 0, 0, 0, 0, 0, 0, 0xff, 0xff, 1, 2},
	}
	got, err := DecodeFrame(EncodeFrame(in))
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeFrameRejectsGeometryMismatch(t *testing.T) {
	msg := EncodeFrame(FrameMessage{Width: 4, Height: 4, BytesPerPixel: 2, Payload: make([]byte, 32)})
	if _, err := DecodeFrame(msg[:len(msg)-1]); err == nil {
		t.Fatal("expected error for truncated payload")
	}
	if _, err := DecodeFrame(msg[:8]); err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestCameraInfoRoundTrip(t *testing.T) {
	in := CameraInfoMessage{
		Fx: 570.34, Fy: 570.34,
		Cx: 314.5, Cy: 235.5,
		Width: 640, Height: 480,
	}
	got, err := DecodeCameraInfo(EncodeCameraInfo(in))
	if err != nil {
		t.Fatalf("DecodeCameraInfo: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: %+v != %+v", got, in)
	}

	if _, err := DecodeCameraInfo([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short message")
	}
}
