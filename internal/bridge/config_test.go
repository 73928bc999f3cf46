package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaultsAreIndependent(t *testing.T) {
	cfg := Config{DepthStream: "sensors/depth0"}.withDefaults()

	require.Equal(t, "sensors/depth0", cfg.DepthStream)
	require.Equal(t, DefaultColorStream, cfg.ColorStream)
	require.Equal(t, DefaultColorInfoStream, cfg.ColorInfoStream)
	require.Equal(t, DefaultDepthInfoStream, cfg.DepthInfoStream)
	require.Equal(t, DefaultReferenceFrame, cfg.ReferenceFrame)
	require.Equal(t, DefaultExportStream, cfg.ExportStream)
	require.Equal(t, DefaultExportRequest, cfg.ExportRequest)
	require.Equal(t, DefaultDepthUnitScale, cfg.DepthUnitScale)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"reference_frame":"map","export_stream":"scene/points"}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	cfg = cfg.withDefaults()
	require.Equal(t, "map", cfg.ReferenceFrame)
	require.Equal(t, "scene/points", cfg.ExportStream)
	require.Equal(t, DefaultColorStream, cfg.ColorStream, "omitted field must keep its default")
}

func TestLoadConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadConfig("bridge.yaml")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
}
