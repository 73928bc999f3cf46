package bridge

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ExportRecord is one row of the export history.
type ExportRecord struct {
	ExportID  string
	Triangles int
	Points    int
	Duration  time.Duration
	Outcome   string // "ok" or an error summary
	Timestamp time.Time
}

// ExportLog persists export history in sqlite so operators can audit
// how often scene publication ran and how large the clouds were.
type ExportLog struct {
	db *sql.DB
}

// OpenExportLog opens (creating if needed) the export history database.
func OpenExportLog(path string) (*ExportLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS exports (
			export_id    TEXT PRIMARY KEY,
			triangles    BIGINT,
			points       BIGINT,
			duration_ms  DOUBLE,
			outcome      TEXT,
			timestamp    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create exports table: %w", err)
	}
	return &ExportLog{db: db}, nil
}

// Record inserts one export outcome.
func (l *ExportLog) Record(rec ExportRecord) error {
	_, err := l.db.Exec(
		"INSERT INTO exports (export_id, triangles, points, duration_ms, outcome) VALUES (?, ?, ?, ?, ?)",
		rec.ExportID, rec.Triangles, rec.Points,
		float64(rec.Duration)/float64(time.Millisecond), rec.Outcome,
	)
	if err != nil {
		return fmt.Errorf("record export %s: %w", rec.ExportID, err)
	}
	return nil
}

// Recent returns up to n most recent export records, newest first.
func (l *ExportLog) Recent(n int) ([]ExportRecord, error) {
	rows, err := l.db.Query(
		"SELECT export_id, triangles, points, duration_ms, outcome, timestamp FROM exports ORDER BY timestamp DESC, rowid DESC LIMIT ?", n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var ms float64
		if err := rows.Scan(&rec.ExportID, &rec.Triangles, &rec.Points, &ms, &rec.Outcome, &rec.Timestamp); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(ms * float64(time.Millisecond))
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (l *ExportLog) Close() error { return l.db.Close() }
