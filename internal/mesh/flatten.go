package mesh

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/densemap/framebridge/internal/monitoring"
)

// ErrPrecondition reports a missing mesh or triangle buffer at export
// time. This is a programming error upstream: it is surfaced
// immediately and never retried.
var ErrPrecondition = errors.New("mesh precondition violated")

// Flatten produces a fresh, caller-owned point cloud from the mesh's
// triangle soup: three points per triangle, in triangle-then-vertex
// order, with no deduplication across shared edges. Triangles carrying
// a NaN or infinite vertex are screened out; degenerate but finite
// geometry passes through.
//
// An accelerator-resident buffer is first materialized on the host
// through a transient copy sized to the buffer's capacity; the copy is
// local to this call and released with it on every exit path. The input
// mesh is never mutated.
func Flatten(m *Mesh) (*PointCloud, error) {
	if m == nil || m.Triangles == nil {
		return nil, fmt.Errorf("%w: nil mesh or triangle buffer", ErrPrecondition)
	}
	buf := m.Triangles

	var tris []Triangle
	switch buf.Domain() {
	case DomainHost:
		tris = buf.HostTriangles()
		if len(tris) < buf.Len() {
			return nil, fmt.Errorf("%w: host buffer holds %d of %d triangles",
				ErrPrecondition, len(tris), buf.Len())
		}
		tris = tris[:buf.Len()]
	case DomainAccelerator:
		tmp := make([]Triangle, buf.Cap())
		if err := buf.CopyToHost(tmp); err != nil {
			return nil, fmt.Errorf("download triangle buffer: %w", err)
		}
		tris = tmp[:buf.Len()]
	default:
		return nil, fmt.Errorf("%w: unknown memory domain %v", ErrPrecondition, buf.Domain())
	}

	pc := &PointCloud{
		Stamp:  time.Now().UTC(),
		Dense:  false, // degenerate and duplicate points are not ruled out
		Points: make([]r3.Vec, 0, 3*len(tris)),
	}
	screened := 0
	for _, t := range tris {
		if !t[0].IsFinite() || !t[1].IsFinite() || !t[2].IsFinite() {
			screened++
			continue
		}
		pc.Points = append(pc.Points, t[0].R3(), t[1].R3(), t[2].R3())
	}
	if screened > 0 {
		monitoring.Logf("mesh: screened %d of %d triangles with non-finite vertices", screened, len(tris))
	}
	return pc, nil
}
