// Package store persists detection results in a single-file SQLite
// database.
//
// A database holds areas (one per scanned map image). Each area owns the
// addresses detected on it plus the streets and teams that later
// canvassing work attaches to those addresses.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/ironsheep/addrslips/internal/detection"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS area (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL,
	color       INTEGER NOT NULL DEFAULT 0,
	state       INTEGER NOT NULL DEFAULT 0,
	image_path  TEXT    NOT NULL,
	created_at  TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS street (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	area_id   INTEGER NOT NULL REFERENCES area(id) ON DELETE CASCADE,
	name      TEXT,
	verified  INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS address (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	area_id          INTEGER NOT NULL REFERENCES area(id) ON DELETE CASCADE,
	house_number     TEXT    NOT NULL,
	x                INTEGER NOT NULL,
	y                INTEGER NOT NULL,
	confidence       REAL    NOT NULL,
	circle_radius    INTEGER NOT NULL,
	verified         INTEGER NOT NULL DEFAULT 0,
	estimated_flats  INTEGER,
	street_id        INTEGER REFERENCES street(id) ON DELETE SET NULL,
	run_id           TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS address_area ON address(area_id);
CREATE TABLE IF NOT EXISTS team (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	area_id  INTEGER NOT NULL REFERENCES area(id) ON DELETE CASCADE,
	number   INTEGER NOT NULL,
	UNIQUE (area_id, number)
);
`

// Store is a handle to one project database.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "addrslips.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps the foreign_keys pragma in effect for every query.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddArea registers a scanned map image.
func (s *Store) AddArea(ctx context.Context, a NewArea) (Area, error) {
	if a.Name == "" {
		return Area{}, errors.New("area name must not be empty")
	}
	created := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO area (name, color, state, image_path, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.Name, a.Color.Int64(), int64(AreaImported), a.ImagePath, created.Format(time.RFC3339))
	if err != nil {
		return Area{}, fmt.Errorf("insert area: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Area{}, fmt.Errorf("insert area: %w", err)
	}
	return Area{
		ID:        id,
		Name:      a.Name,
		Color:     a.Color,
		State:     AreaImported,
		ImagePath: a.ImagePath,
		CreatedAt: created.Truncate(time.Second),
	}, nil
}

// Area returns one area by id.
func (s *Store) Area(ctx context.Context, id int64) (Area, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, state, image_path, created_at FROM area WHERE id = ?`, id)
	a, err := scanArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Area{}, fmt.Errorf("area %d: %w", id, ErrNotFound)
	}
	return a, err
}

// Areas lists all areas in creation order.
func (s *Store) Areas(ctx context.Context) ([]Area, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, state, image_path, created_at FROM area ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Area
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindArea returns the most recent area registered for imagePath.
func (s *Store) FindArea(ctx context.Context, imagePath string) (Area, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, color, state, image_path, created_at FROM area WHERE image_path = ? ORDER BY id DESC LIMIT 1`,
		imagePath)
	a, err := scanArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Area{}, fmt.Errorf("area for %s: %w", imagePath, ErrNotFound)
	}
	return a, err
}

// SetAreaState records the workflow state of an area.
func (s *Store) SetAreaState(ctx context.Context, id int64, state AreaState) error {
	if !state.Valid() {
		return fmt.Errorf("invalid area state %d", state)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE area SET state = ? WHERE id = ?`, int64(state), id)
	if err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("area %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteArea removes an area with its streets, addresses and teams.
func (s *Store) DeleteArea(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM area WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("area %d: %w", id, ErrNotFound)
	}
	return nil
}

// SaveDetections stores one address row per detection and moves the area
// to AreaAddressesDetected, all in one transaction. runID tags the rows
// with the pipeline run that produced them.
func (s *Store) SaveDetections(ctx context.Context, areaID int64, runID string, ds []detection.Detection) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE area SET state = ? WHERE id = ?`, int64(AreaAddressesDetected), areaID)
	if err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("area %d: %w", areaID, ErrNotFound)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO address
		(area_id, house_number, x, y, confidence, circle_radius, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range ds {
		radius := int64(d.Radius + 0.5)
		if _, err := stmt.ExecContext(ctx, areaID, d.Text, d.X, d.Y, d.Confidence, radius, runID); err != nil {
			return fmt.Errorf("insert address %q: %w", d.Text, err)
		}
	}
	return tx.Commit()
}

// RecordRun stores a detection run for the image in a. The most recent
// area registered for a.ImagePath receives the rows; a new area is created
// from a when there is none.
func (s *Store) RecordRun(ctx context.Context, a NewArea, runID string, ds []detection.Detection) (Area, error) {
	area, err := s.FindArea(ctx, a.ImagePath)
	if errors.Is(err, ErrNotFound) {
		area, err = s.AddArea(ctx, a)
	}
	if err != nil {
		return Area{}, err
	}
	if err := s.SaveDetections(ctx, area.ID, runID, ds); err != nil {
		return Area{}, err
	}
	area.State = AreaAddressesDetected
	return area, nil
}

// Addresses lists the addresses of an area ordered top to bottom, then
// left to right.
func (s *Store) Addresses(ctx context.Context, areaID int64) ([]Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, area_id, house_number, x, y, confidence,
		circle_radius, verified, estimated_flats, street_id, run_id
		FROM address WHERE area_id = ? ORDER BY y, x, id`, areaID)
	if err != nil {
		return nil, fmt.Errorf("select addresses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Address
	for rows.Next() {
		var (
			a      Address
			flats  sql.NullInt64
			street sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.AreaID, &a.HouseNumber, &a.X, &a.Y, &a.Confidence,
			&a.CircleRadius, &a.Verified, &flats, &street, &a.RunID); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		if flats.Valid {
			a.EstimatedFlats = &flats.Int64
		}
		if street.Valid {
			a.StreetID = &street.Int64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddStreet creates a named street in an area.
func (s *Store) AddStreet(ctx context.Context, areaID int64, name string) (Street, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO street (area_id, name) VALUES (?, ?)`, areaID, name)
	if err != nil {
		return Street{}, fmt.Errorf("insert street: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Street{}, fmt.Errorf("insert street: %w", err)
	}
	return Street{ID: id, AreaID: areaID, Name: name}, nil
}

// AssignStreet links an address to a street; streetID 0 clears the link.
func (s *Store) AssignStreet(ctx context.Context, addressID, streetID int64) error {
	var arg any
	if streetID != 0 {
		arg = streetID
	}
	res, err := s.db.ExecContext(ctx, `UPDATE address SET street_id = ? WHERE id = ?`, arg, addressID)
	if err != nil {
		return fmt.Errorf("assign street: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("address %d: %w", addressID, ErrNotFound)
	}
	return nil
}

// AddTeam creates the next numbered team of an area (1, 2, ...).
func (s *Store) AddTeam(ctx context.Context, areaID int64) (Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM team WHERE area_id = ?`, areaID).Scan(&next); err != nil {
		return Team{}, fmt.Errorf("next team number: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO team (area_id, number) VALUES (?, ?)`, areaID, next)
	if err != nil {
		return Team{}, fmt.Errorf("insert team: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Team{}, fmt.Errorf("insert team: %w", err)
	}
	return Team{ID: id, AreaID: areaID, Number: int(next)}, nil
}

// Teams lists the teams of an area by number.
func (s *Store) Teams(ctx context.Context, areaID int64) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, area_id, number FROM team WHERE area_id = ? ORDER BY number`, areaID)
	if err != nil {
		return nil, fmt.Errorf("select teams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.AreaID, &t.Number); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArea(row scanner) (Area, error) {
	var (
		a       Area
		color   int64
		state   int64
		created string
	)
	if err := row.Scan(&a.ID, &a.Name, &color, &state, &a.ImagePath, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Area{}, err
		}
		return Area{}, fmt.Errorf("scan area: %w", err)
	}
	a.Color = ColorFromInt64(color)
	a.State = AreaState(state)
	if !a.State.Valid() {
		return Area{}, fmt.Errorf("area %d has invalid state %d", a.ID, state)
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return Area{}, fmt.Errorf("area %d created_at: %w", a.ID, err)
	}
	a.CreatedAt = t
	return a, nil
}
