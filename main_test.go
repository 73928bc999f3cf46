package main

import (
	"testing"

	"github.com/densemap/framebridge/internal/bridge"
)

func TestBridgeStreamsDefaulting(t *testing.T) {
	s := bridgeStreams(bridge.Config{DepthStream: "d0"})
	if s.depth != "d0" {
		t.Fatalf("depth stream = %q", s.depth)
	}
	if s.color != bridge.DefaultColorStream || s.colorInfo != bridge.DefaultColorInfoStream {
		t.Fatalf("unexpected defaults: %+v", s)
	}
}

func TestSyntheticMeshSource(t *testing.T) {
	src := syntheticMeshSource()
	m, err := src.Mesh()
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if m.Triangles.Len() != 2 {
		t.Fatalf("triangles = %d, want 2", m.Triangles.Len())
	}
}
