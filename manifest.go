package spacetraveling

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Manifest records every artifact a build wrote and its content hash, so
// the next build can skip unchanged files and prune stale ones. It stores
// nothing about posts themselves.
type Manifest struct {
	db *sql.DB
}

// Artifact is one manifest row.
type Artifact struct {
	Path  string
	Hash  string
	Size  int64
	Build int64
}

// OpenManifest opens (or creates) the SQLite database at path, ensures the
// directory exists, and runs schema migrations.
func OpenManifest(path string) (*Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the fallback renderer write while a reader holds the db;
	// busy_timeout makes concurrent writers wait instead of failing.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	m := &Manifest{db: db}
	if err := m.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// RemoveManifest deletes the database and its WAL companions.
func RemoveManifest(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (m *Manifest) Close() error {
	return m.db.Close()
}

func (m *Manifest) ensureSchema() error {
	_, err := m.db.Exec(`
CREATE TABLE IF NOT EXISTS builds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    posts INTEGER NOT NULL DEFAULT 0,
    written INTEGER NOT NULL DEFAULT 0,
    unchanged INTEGER NOT NULL DEFAULT 0,
    removed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS artifacts (
    path TEXT PRIMARY KEY,
    hash TEXT NOT NULL,
    size INTEGER NOT NULL,
    build INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS artifacts_build ON artifacts(build);
`)
	return err
}

// BeginBuild opens a new build generation and returns its id.
func (m *Manifest) BeginBuild(ctx context.Context, started time.Time) (int64, error) {
	res, err := m.db.ExecContext(ctx, `INSERT INTO builds (started_at) VALUES (?)`, started.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishBuild stores the counters of build id.
func (m *Manifest) FinishBuild(ctx context.Context, id int64, stats Stats, finished time.Time) error {
	_, err := m.db.ExecContext(ctx,
		`UPDATE builds SET finished_at = ?, posts = ?, written = ?, unchanged = ?, removed = ? WHERE id = ?`,
		finished.UTC().Format(time.RFC3339), stats.Posts, stats.Written, stats.Unchanged, stats.Removed, id)
	return err
}

// LatestBuild returns the id of the most recent finished build, or 0.
func (m *Manifest) LatestBuild(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	err := m.db.QueryRowContext(ctx, `SELECT MAX(id) FROM builds WHERE finished_at IS NOT NULL`).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id.Int64, nil
}

// Lookup returns the recorded artifact at path. ok is false when the path
// was never written.
func (m *Manifest) Lookup(ctx context.Context, path string) (Artifact, bool, error) {
	a := Artifact{Path: path}
	err := m.db.QueryRowContext(ctx, `SELECT hash, size, build FROM artifacts WHERE path = ?`, path).
		Scan(&a.Hash, &a.Size, &a.Build)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, err
	}
	return a, true, nil
}

// Record upserts an artifact and stamps it with the build that produced it.
func (m *Manifest) Record(ctx context.Context, a Artifact) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO artifacts (path, hash, size, build) VALUES (?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, size = excluded.size, build = excluded.build`,
		a.Path, a.Hash, a.Size, a.Build)
	return err
}

// Stale lists artifacts not produced by build id, ordered by path.
func (m *Manifest) Stale(ctx context.Context, id int64) ([]Artifact, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT path, hash, size, build FROM artifacts WHERE build <> ? ORDER BY path`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stale []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Path, &a.Hash, &a.Size, &a.Build); err != nil {
			return nil, err
		}
		stale = append(stale, a)
	}
	return stale, rows.Err()
}

// Forget removes path from the manifest.
func (m *Manifest) Forget(ctx context.Context, path string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM artifacts WHERE path = ?`, path)
	return err
}

// Count returns the number of recorded artifacts.
func (m *Manifest) Count(ctx context.Context) (int, error) {
	var n int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artifacts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return n, nil
}
