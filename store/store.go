// Package store keeps the outcome of locator runs in SQLite: one row per run
// and one row per resolved query point.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/notargets/DGLocator/utils"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunInfo describes one distributed locate run
type RunInfo struct {
	MeshName    string
	Dim         int
	WorldSize   int
	Strategy    string
	NumElements int
}

type Run struct {
	ID uuid.UUID
	RunInfo
	CreatedAt time.Time
}

// Resolution is the owner found for one query point, Owner is -1 when no
// rank claimed it
type Resolution struct {
	Index int
	Coord []float64
	Owner int
}

type Store struct {
	db  *sql.DB
	log utils.Logger
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema
func Open(path string, log utils.Logger) (*Store, error) {
	if log == nil {
		log = utils.NopLogger()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// Closing m would close the shared *sql.DB
	m.Log = &migrateLogger{log: s.log}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct {
	log utils.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// CreateRun records a new run and returns its id
func (s *Store) CreateRun(ctx context.Context, info RunInfo) (uuid.UUID, error) {
	if info.Dim < 1 || info.Dim > 3 {
		return uuid.Nil, fmt.Errorf("invalid dimension %d", info.Dim)
	}
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, mesh_name, dim, world_size, strategy, num_elements, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), info.MeshName, info.Dim, info.WorldSize, info.Strategy, info.NumElements,
		time.Now().UnixNano())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// SaveResolutions stores the owner of every coordinate of a run, in one
// transaction
func (s *Store) SaveResolutions(ctx context.Context, runID uuid.UUID, coords [][]float64, owners []int) error {
	if len(coords) != len(owners) {
		return fmt.Errorf("%d coordinates but %d owners", len(coords), len(owners))
	}
	var dim int
	if err := s.db.QueryRowContext(ctx, `SELECT dim FROM runs WHERE id = ?`, runID.String()).Scan(&dim); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO resolutions (run_id, idx, x, y, z, owner) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range coords {
		if len(c) < dim {
			return fmt.Errorf("coordinate %d has %d components, run is %dD", i, len(c), dim)
		}
		var xyz [3]sql.NullFloat64
		for d := 0; d < dim; d++ {
			xyz[d] = sql.NullFloat64{Float64: c[d], Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, runID.String(), i, xyz[0], xyz[1], xyz[2], owners[i]); err != nil {
			return fmt.Errorf("failed to insert resolution %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolutions: %w", err)
	}
	s.log.Debug("resolutions saved", "run", runID.String(), "count", len(coords))
	return nil
}

// Resolutions returns the stored resolutions of a run in query order
func (s *Store) Resolutions(ctx context.Context, runID uuid.UUID) ([]Resolution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.idx, r.x, r.y, r.z, r.owner, runs.dim
		 FROM resolutions r JOIN runs ON runs.id = r.run_id
		 WHERE r.run_id = ? ORDER BY r.idx`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var out []Resolution
	for rows.Next() {
		var (
			res Resolution
			xyz [3]sql.NullFloat64
			dim int
		)
		if err := rows.Scan(&res.Index, &xyz[0], &xyz[1], &xyz[2], &res.Owner, &dim); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		res.Coord = make([]float64, dim)
		for d := range res.Coord {
			res.Coord[d] = xyz[d].Float64
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Runs lists every stored run, oldest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, mesh_name, dim, world_size, strategy, num_elements, created_at
		 FROM runs ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			id      string
			created int64
		)
		if err := rows.Scan(&id, &r.MeshName, &r.Dim, &r.WorldSize, &r.Strategy, &r.NumElements, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		r.CreatedAt = time.Unix(0, created)
		out = append(out, r)
	}
	return out, rows.Err()
}
