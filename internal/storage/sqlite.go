// Package storage provides SQLite-based persistence for analysis runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for the run index.
type Store struct {
	db *sql.DB
}

// Run is one recorded analysis of a map.
type Run struct {
	ID           int64
	MapID        string
	TerrainHash  string
	Regions      int
	Ramps        int
	ChokePoints  int
	NoiseCells   int
	DurationMS   int64
	SnapshotPath string
	CreatedAt    time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			map_id TEXT NOT NULL,
			terrain_hash TEXT NOT NULL,
			regions INTEGER NOT NULL,
			ramps INTEGER NOT NULL,
			choke_points INTEGER NOT NULL,
			noise_cells INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			snapshot_path TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_map_id ON runs(map_id);
		CREATE INDEX IF NOT EXISTS idx_runs_recent ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a completed analysis run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(run Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs
		 (map_id, terrain_hash, regions, ramps, choke_points, noise_cells, duration_ms, snapshot_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.MapID,
		run.TerrainHash,
		run.Regions,
		run.Ramps,
		run.ChokePoints,
		run.NoiseCells,
		run.DurationMS,
		run.SnapshotPath,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns retrieves the most recent analysis runs.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, map_id, terrain_hash, regions, ramps, choke_points, noise_cells, duration_ms, snapshot_path, created_at
		 FROM runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// RunsForMap retrieves the run history for one map, newest first.
func (s *Store) RunsForMap(mapID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, map_id, terrain_hash, regions, ramps, choke_points, noise_cells, duration_ms, snapshot_path, created_at
		 FROM runs
		 WHERE map_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		mapID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// LastRun returns the most recent run for a map, or nil when none exists.
func (s *Store) LastRun(mapID string) (*Run, error) {
	runs, err := s.RunsForMap(mapID, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt any
		if err := rows.Scan(
			&r.ID,
			&r.MapID,
			&r.TerrainHash,
			&r.Regions,
			&r.Ramps,
			&r.ChokePoints,
			&r.NoiseCells,
			&r.DurationMS,
			&r.SnapshotPath,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}

		// Parse the datetime - handle both time.Time and string
		switch v := createdAt.(type) {
		case time.Time:
			r.CreatedAt = v
		case string:
			if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
				r.CreatedAt = parsed
			}
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}
