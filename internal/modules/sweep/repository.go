package sweep

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository persists sweeps in the results database.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a sweep repository and ensures its schema.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	r := &Repository{
		db:  db,
		log: log.With().Str("repository", "sweep").Logger(),
	}
	if err := r.ensureSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		modes INTEGER NOT NULL,
		levels INTEGER NOT NULL,
		peak_epsilon REAL NOT NULL,
		peak_phi REAL NOT NULL,
		records TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sweeps_created_at ON sweeps(created_at);

	CREATE TABLE IF NOT EXISTS phi_cache (
		config_hash TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		created_at INTEGER NOT NULL
	);`
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create sweep schema: %w", err)
	}
	return nil
}

// Save stores a completed sweep.
func (r *Repository) Save(s *Sweep) error {
	records, err := json.Marshal(s.Records)
	if err != nil {
		return fmt.Errorf("failed to marshal sweep records: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT OR REPLACE INTO sweeps (id, created_at, modes, levels, peak_epsilon, peak_phi, records)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.CreatedAt.Unix(), s.Modes, s.Levels, s.PeakEpsilon, s.PeakPhi, string(records),
	)
	if err != nil {
		return fmt.Errorf("failed to save sweep %s: %w", s.ID, err)
	}
	return nil
}

// Get loads one sweep by ID; (nil, nil) when absent.
func (r *Repository) Get(id string) (*Sweep, error) {
	row := r.db.QueryRow(
		`SELECT id, created_at, modes, levels, peak_epsilon, peak_phi, records
		 FROM sweeps WHERE id = ?`, id)

	var s Sweep
	var createdAt int64
	var records string
	err := row.Scan(&s.ID, &createdAt, &s.Modes, &s.Levels, &s.PeakEpsilon, &s.PeakPhi, &records)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep %s: %w", id, err)
	}
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(records), &s.Records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sweep records: %w", err)
	}
	return &s, nil
}

// List returns sweep summaries (no records), newest first.
func (r *Repository) List(limit int) ([]*Sweep, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, created_at, modes, levels, peak_epsilon, peak_phi
		 FROM sweeps ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweeps: %w", err)
	}
	defer rows.Close()

	var out []*Sweep
	for rows.Next() {
		var s Sweep
		var createdAt int64
		if err := rows.Scan(&s.ID, &createdAt, &s.Modes, &s.Levels, &s.PeakEpsilon, &s.PeakPhi); err != nil {
			return nil, fmt.Errorf("failed to scan sweep row: %w", err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		out = append(out, &s)
	}
	return out, rows.Err()
}
