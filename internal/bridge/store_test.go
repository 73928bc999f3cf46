package bridge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExportLogRoundTrip(t *testing.T) {
	l, err := OpenExportLog(filepath.Join(t.TempDir(), "exports.db"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(ExportRecord{
		ExportID:  "a",
		Triangles: 2,
		Points:    6,
		Duration:  12 * time.Millisecond,
		Outcome:   "ok",
	}))
	require.NoError(t, l.Record(ExportRecord{
		ExportID: "b",
		Outcome:  "mesh precondition violated",
	}))

	recs, err := l.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "b", recs[0].ExportID, "newest first")
	require.Equal(t, "a", recs[1].ExportID)
	require.Equal(t, 6, recs[1].Points)
	require.Equal(t, "ok", recs[1].Outcome)
	require.InDelta(t, 12, float64(recs[1].Duration)/float64(time.Millisecond), 0.01)
}

func TestExportLogDuplicateID(t *testing.T) {
	l, err := OpenExportLog(filepath.Join(t.TempDir(), "exports.db"))
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Record(ExportRecord{ExportID: "dup", Outcome: "ok"}))
	require.Error(t, l.Record(ExportRecord{ExportID: "dup", Outcome: "ok"}))
}
