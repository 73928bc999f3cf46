package mesh

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// PointCloud is an ordered, unindexed collection of 3D points, one per
// mesh vertex (three per triangle). Produced fresh on each flatten;
// ownership passes to the caller.
type PointCloud struct {
	FrameID        string    // unique export identifier
	ReferenceFrame string    // coordinate frame the points are expressed in
	Stamp          time.Time // export time, UTC
	Dense          bool      // false: degenerate/duplicate points possible
	Points         []r3.Vec
}

// Bounds returns the component-wise min and max corners of the cloud,
// or zero vectors for an empty cloud.
func (pc *PointCloud) Bounds() (min, max r3.Vec) {
	if len(pc.Points) == 0 {
		return r3.Vec{}, r3.Vec{}
	}
	min, max = pc.Points[0], pc.Points[0]
	for _, p := range pc.Points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}
	return min, max
}

// EncodeGob serialises the cloud as gzip-compressed gob for transport
// publication.
func (pc *PointCloud) EncodeGob() ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(zw).Encode(pc); err != nil {
		zw.Close()
		return nil, fmt.Errorf("encode point cloud: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress point cloud: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePointCloud reverses EncodeGob.
func DecodePointCloud(payload []byte) (*PointCloud, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("decompress point cloud: %w", err)
	}
	defer zr.Close()
	var pc PointCloud
	if err := gob.NewDecoder(zr).Decode(&pc); err != nil {
		return nil, fmt.Errorf("decode point cloud: %w", err)
	}
	return &pc, nil
}

// WriteASC writes the cloud in CloudCompare-compatible .asc text form.
func (pc *PointCloud) WriteASC(w io.Writer) error {
	if len(pc.Points) == 0 {
		return fmt.Errorf("no points to export")
	}
	if _, err := fmt.Fprintf(w, "# Exported points (%s, frame %s)\n# Format: X Y Z\n",
		pc.ReferenceFrame, pc.FrameID); err != nil {
		return err
	}
	for _, p := range pc.Points {
		if _, err := fmt.Fprintf(w, "%.6f %.6f %.6f\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return nil
}
