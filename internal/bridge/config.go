// Package bridge wires the transport layer, the frame synchronizer,
// the calibration latch and the mesh flattener into one engine exposed
// to the reconstruction loop.
package bridge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Default stream and parameter values. Each option is independently
// defaulted: a config file may override any subset.
const (
	DefaultColorStream     = "camera/rgb"
	DefaultDepthStream     = "camera/depth"
	DefaultColorInfoStream = "camera/rgb/info"
	DefaultDepthInfoStream = "camera/depth/info"
	DefaultReferenceFrame  = "world"
	DefaultExportStream    = "complete_cloud"
	DefaultExportRequest   = "publish_scene"

	// DefaultDepthUnitScale converts raw 16-bit depth counts
	// (millimetres) to metres.
	DefaultDepthUnitScale = 0.001
)

// Config is the bridge configuration surface. Zero-valued fields are
// filled with defaults, so partial configs are safe.
type Config struct {
	ColorStream     string  `json:"color_stream,omitempty"`
	DepthStream     string  `json:"depth_stream,omitempty"`
	ColorInfoStream string  `json:"color_info_stream,omitempty"`
	DepthInfoStream string  `json:"depth_info_stream,omitempty"`
	ReferenceFrame  string  `json:"reference_frame,omitempty"`
	ExportStream    string  `json:"export_stream,omitempty"`
	ExportRequest   string  `json:"export_request,omitempty"`
	DepthUnitScale  float64 `json:"depth_unit_scale,omitempty"`
}

func (c Config) withDefaults() Config {
	if c.ColorStream == "" {
		c.ColorStream = DefaultColorStream
	}
	if c.DepthStream == "" {
		c.DepthStream = DefaultDepthStream
	}
	if c.ColorInfoStream == "" {
		c.ColorInfoStream = DefaultColorInfoStream
	}
	if c.DepthInfoStream == "" {
		c.DepthInfoStream = DefaultDepthInfoStream
	}
	if c.ReferenceFrame == "" {
		c.ReferenceFrame = DefaultReferenceFrame
	}
	if c.ExportStream == "" {
		c.ExportStream = DefaultExportStream
	}
	if c.ExportRequest == "" {
		c.ExportRequest = DefaultExportRequest
	}
	if c.DepthUnitScale == 0 {
		c.DepthUnitScale = DefaultDepthUnitScale
	}
	return c
}

// LoadConfig reads a JSON config file. Fields omitted from the file
// keep their defaults when the config is applied.
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config JSON: %w", err)
	}
	return cfg, nil
}
