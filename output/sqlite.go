/*
Package output writes the galaxy population at the requested output
snapshots.
*/
package output

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/phil-mansfield/galtree/engine"
	"github.com/phil-mansfield/galtree/galaxy"
	"github.com/phil-mansfield/galtree/halo"
)

var (
	_ engine.Writer = &SQLiteWriter{}
	_ engine.Writer = Discard{}
)

// Discard drops everything written to it.
type Discard struct{}

func (Discard) Write(*galaxy.Population, *halo.Catalog, int, int, int) error {
	return nil
}

var schema = []string{`CREATE TABLE IF NOT EXISTS runs (
	run_id  TEXT PRIMARY KEY,
	created TEXT NOT NULL
)`, `CREATE TABLE IF NOT EXISTS snapshots (
	run_id       TEXT NOT NULL,
	snapshot     INTEGER NOT NULL,
	output_index INTEGER NOT NULL,
	n_galaxies   INTEGER NOT NULL,
	PRIMARY KEY (run_id, output_index)
)`, `CREATE TABLE IF NOT EXISTS galaxies (
	run_id           TEXT NOT NULL,
	output_index     INTEGER NOT NULL,
	snapshot         INTEGER NOT NULL,
	galaxy_id        INTEGER NOT NULL,
	type             INTEGER NOT NULL,
	ghost            INTEGER NOT NULL,
	halo_id          INTEGER,
	central_id       INTEGER,
	merger_target_id INTEGER,
	mvir  REAL, dm REAL, rvir REAL, vvir REAL, vmax REAL,
	x REAL, y REAL, z REAL, vx REAL, vy REAL, vz REAL,
	merg_time    REAL,
	cos_inc      REAL,
	hot_gas      REAL,
	cold_gas     REAL,
	stellar_mass REAL,
	sfr          REAL,
	PRIMARY KEY (run_id, output_index, galaxy_id)
)`}

const insertGalaxy = `INSERT INTO galaxies (
	run_id, output_index, snapshot, galaxy_id, type, ghost, halo_id, central_id,
	merger_target_id, mvir, dm, rvir, vvir, vmax, x, y, z, vx, vy, vz,
	merg_time, cos_inc, hot_gas, cold_gas, stellar_mass, sfr
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteWriter stores every output snapshot of a run in a SQLite database.
// Each run gets its own ID, so several runs can share one database.
type SQLiteWriter struct {
	db    *sql.DB
	runID string
}

// NewSQLiteWriter opens (or creates) the database at path and registers a
// new run in it.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create tables: %w", err)
		}
	}

	w := &SQLiteWriter{db: db, runID: uuid.NewString()}
	if _, err := db.Exec(
		`INSERT INTO runs (run_id, created) VALUES (?, ?)`,
		w.runID, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return w, nil
}

// RunID returns the ID which every row written by w is tagged with.
func (w *SQLiteWriter) RunID() string { return w.runID }

// Write stores every galaxy in pop, in global sequence order, as a single
// transaction. Rows are keyed by output index, so a snapshot listed twice
// among the outputs is stored twice.
func (w *SQLiteWriter) Write(
	pop *galaxy.Population, cat *halo.Catalog, snap, iOut, nOut int,
) (retErr error) {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(
		`INSERT INTO snapshots (run_id, snapshot, output_index, n_galaxies)
		VALUES (?, ?, ?, ?)`, w.runID, snap, iOut, nOut,
	); err != nil {
		return fmt.Errorf("insert snapshot %d: %w", snap, err)
	}

	stmt, err := tx.Prepare(insertGalaxy)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for gal := pop.Get(pop.First()); gal != nil; gal = pop.Get(gal.Next) {
		var haloID sql.NullInt64
		if !gal.Ghost && cat.Valid(gal.Halo) {
			haloID = sql.NullInt64{Int64: int64(cat.Halos[gal.Halo].ID), Valid: true}
		}
		if _, err := stmt.Exec(
			w.runID, iOut, snap, gal.ID, int(gal.Type), gal.Ghost, haloID,
			idOf(pop, gal.FirstInHalo), idOf(pop, gal.MergerTarget),
			gal.Mvir, gal.DM, gal.Rvir, gal.Vvir, gal.Vmax,
			gal.Pos[0], gal.Pos[1], gal.Pos[2],
			gal.Vel[0], gal.Vel[1], gal.Vel[2],
			gal.MergTime, gal.CosInc, gal.HotGas, gal.ColdGas,
			gal.StellarMass, gal.Sfr,
		); err != nil {
			return fmt.Errorf("insert galaxy %d: %w", gal.ID, err)
		}
	}

	return tx.Commit()
}

func idOf(pop *galaxy.Population, h galaxy.Handle) sql.NullInt64 {
	if gal := pop.Get(h); gal != nil {
		return sql.NullInt64{Int64: gal.ID, Valid: true}
	}
	return sql.NullInt64{}
}

// CountGalaxies returns the number of galaxy rows stored for snap by this
// run, summed over every output index which wrote snap.
func (w *SQLiteWriter) CountGalaxies(snap int) (int, error) {
	var n int
	err := w.db.QueryRow(
		`SELECT COUNT(*) FROM galaxies WHERE run_id = ? AND snapshot = ?`,
		w.runID, snap,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count galaxies: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
