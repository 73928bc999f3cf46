package rgbd

import (
	"errors"
	"testing"
)

func TestDecodeDepthLittleEndian(t *testing.T) {
	raw := []byte{0x34, 0x12, 0xff, 0x00, 0x00, 0xff}
	dst := make([]uint16, 3)
	decodeDepthInto(dst, raw)

	want := []uint16{0x1234, 0x00ff, 0xff00}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("sample %d: got %#04x, want %#04x", i, dst[i], want[i])
		}
	}
}

func TestDecodeColorExpandsAlpha(t *testing.T) {
	raw := []byte{10, 20, 30, 40, 50, 60}
	dst := make([]byte, 8)
	decodeColorInto(dst, raw)

	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Errorf("byte %d: got %d, want %d", i, dst[i], want[i])
		}
	}
}

func TestValidateRaw(t *testing.T) {
	tests := []struct {
		name     string
		modality Modality
		w, h     int
		rawLen   int
		wantErr  bool
	}{
		{"depth exact", ModalityDepth, 4, 2, 16, false},
		{"color exact", ModalityColor, 4, 2, 24, false},
		{"depth short", ModalityDepth, 4, 2, 15, true},
		{"depth float encoded", ModalityDepth, 4, 2, 32, true},
		{"color long", ModalityColor, 4, 2, 25, true},
		{"zero width", ModalityDepth, 0, 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRaw(tt.modality, tt.w, tt.h, make([]byte, tt.rawLen))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateRaw: err=%v, wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadPayload) {
				t.Fatalf("error %v is not ErrBadPayload", err)
			}
		})
	}
}
