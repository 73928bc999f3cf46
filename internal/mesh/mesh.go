// Package mesh flattens a triangulated surface mesh, possibly resident
// in accelerator memory, into a host-side point cloud for transmission.
//
// The mesh and its triangle buffer are owned by the reconstruction
// engine; this package borrows them read-only. When the buffer lives in
// accelerator memory it is materialized on the host through a single
// transient copy whose lifetime is confined to the flatten call.
package mesh

import (
	"fmt"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a vertex position. Vertices are stored as float32 to match
// the reconstruction engine's buffer layout.
type Vec3 struct {
	X, Y, Z float32
}

// R3 widens the vertex to a gonum r3 vector for point cloud output.
func (v Vec3) R3() r3.Vec {
	return r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

// IsFinite reports whether all three components are finite.
func (v Vec3) IsFinite() bool {
	finite := func(f float32) bool { return !math32.IsNaN(f) && !math32.IsInf(f, 0) }
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

// Triangle is one face of the triangle soup: three vertices, no shared
// vertex indexing.
type Triangle [3]Vec3

// MemoryDomain names where a triangle buffer resides. A buffer lives in
// exactly one domain at a time.
type MemoryDomain int

const (
	DomainHost MemoryDomain = iota
	DomainAccelerator
)

func (d MemoryDomain) String() string {
	switch d {
	case DomainHost:
		return "host"
	case DomainAccelerator:
		return "accelerator"
	default:
		return fmt.Sprintf("domain(%d)", int(d))
	}
}

// TriangleBuffer is the engine-owned triangle storage borrowed by the
// flattener.
//
// Len is the number of valid triangles; Cap is the allocated capacity
// (accelerator buffers are copied at full capacity, mirroring the
// engine's block transfer granularity). HostTriangles is only valid for
// host-resident buffers. CopyToHost downloads an accelerator-resident
// buffer into dst, which must hold Cap triangles.
type TriangleBuffer interface {
	Domain() MemoryDomain
	Len() int
	Cap() int
	HostTriangles() []Triangle
	CopyToHost(dst []Triangle) error
}

// HostBuffer is a host-resident TriangleBuffer backed by a plain slice.
type HostBuffer struct {
	tris []Triangle
}

// NewHostBuffer wraps tris as a host-resident buffer. The buffer
// borrows the slice; it does not copy.
func NewHostBuffer(tris []Triangle) *HostBuffer {
	return &HostBuffer{tris: tris}
}

func (b *HostBuffer) Domain() MemoryDomain      { return DomainHost }
func (b *HostBuffer) Len() int                  { return len(b.tris) }
func (b *HostBuffer) Cap() int                  { return cap(b.tris) }
func (b *HostBuffer) HostTriangles() []Triangle { return b.tris }

// CopyToHost exists to satisfy TriangleBuffer; host buffers are read in
// place and never downloaded.
func (b *HostBuffer) CopyToHost(dst []Triangle) error {
	copy(dst, b.tris)
	return nil
}

// Mesh is the borrowed view of the engine's scene mesh.
type Mesh struct {
	Triangles TriangleBuffer
}

// Bounds returns the component-wise min and max corners over the
// vertices of tris. It returns zero vectors for an empty slice.
func Bounds(tris []Triangle) (min, max Vec3) {
	if len(tris) == 0 {
		return Vec3{}, Vec3{}
	}
	min, max = tris[0][0], tris[0][0]
	for _, t := range tris {
		for _, v := range t {
			min.X = math32.Min(min.X, v.X)
			min.Y = math32.Min(min.Y, v.Y)
			min.Z = math32.Min(min.Z, v.Z)
			max.X = math32.Max(max.X, v.X)
			max.Y = math32.Max(max.Y, v.Y)
			max.Z = math32.Max(max.Z, v.Z)
		}
	}
	return min, max
}
