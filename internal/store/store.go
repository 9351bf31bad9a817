// Package store persists skills and their progress updates in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/skillchart/pkg/models"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

var (
	// ErrSkillNotFound is returned when a skill id has no row.
	ErrSkillNotFound = errors.New("skill not found")
	// ErrInvalidSkill is returned for skills without an id.
	ErrInvalidSkill = errors.New("skill id is required")
	// ErrUnsupportedValue is returned for scores that are not a number,
	// string or null.
	ErrUnsupportedValue = errors.New("unsupported value type")
)

// timeLayout is fixed-width so recorded_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// score and target are declared without a type so SQLite keeps whatever
// storage class was written: integers, reals and text all round-trip.
const schema = `
CREATE TABLE IF NOT EXISTS skills (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS progress_updates (
	id          TEXT PRIMARY KEY,
	skill_id    TEXT NOT NULL REFERENCES skills(id),
	recorded_at TEXT NOT NULL DEFAULT '',
	score,
	target,
	notes       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_progress_updates_skill ON progress_updates(skill_id, recorded_at);
`

// Store is a SQLite-backed progress store.
type Store struct {
	db *sql.DB
}

// Open connects to the SQLite database at dsn, applies pragmas and creates
// the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSkill inserts or updates a skill.
func (s *Store) SaveSkill(ctx context.Context, sk models.Skill) error {
	if strings.TrimSpace(sk.ID) == "" {
		return ErrInvalidSkill
	}
	if sk.Name == "" {
		sk.Name = sk.ID
	}
	if sk.CreatedAt.IsZero() {
		sk.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO skills (id, name, description, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		sk.ID, sk.Name, sk.Description, sk.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save skill %s: %w", sk.ID, err)
	}
	return nil
}

// Skill returns a skill by id.
func (s *Store) Skill(ctx context.Context, id string) (models.Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM skills WHERE id = ?`, id)
	sk, err := scanSkill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Skill{}, fmt.Errorf("%w: %s", ErrSkillNotFound, id)
	}
	if err != nil {
		return models.Skill{}, fmt.Errorf("query skill %s: %w", id, err)
	}
	return sk, nil
}

// ListSkills returns all skills ordered by name.
func (s *Store) ListSkills(ctx context.Context) ([]models.Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM skills ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

// AddUpdate appends a progress update to a skill and returns its id.
// Scores and targets are stored as given.
func (s *Store) AddUpdate(ctx context.Context, skillID string, u models.ProgressUpdate) (string, error) {
	if _, err := s.Skill(ctx, skillID); err != nil {
		return "", err
	}

	score, err := storable(u.RawScore)
	if err != nil {
		return "", fmt.Errorf("score: %w", err)
	}
	target, err := storable(u.RawTarget)
	if err != nil {
		return "", fmt.Errorf("target: %w", err)
	}

	recorded := ""
	if !u.RecordedAt.IsZero() {
		recorded = u.RecordedAt.UTC().Format(timeLayout)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO progress_updates (id, skill_id, recorded_at, score, target, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		id, skillID, recorded, score, target, u.Notes)
	if err != nil {
		return "", fmt.Errorf("insert update for %s: %w", skillID, err)
	}
	return id, nil
}

// Updates returns a skill's progress updates oldest first. Updates recorded
// at the same instant keep insertion order.
func (s *Store) Updates(ctx context.Context, skillID string) ([]models.ProgressUpdate, error) {
	if _, err := s.Skill(ctx, skillID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT recorded_at, score, target, notes FROM progress_updates
		 WHERE skill_id = ? ORDER BY recorded_at, rowid`, skillID)
	if err != nil {
		return nil, fmt.Errorf("query updates for %s: %w", skillID, err)
	}
	defer rows.Close()

	var updates []models.ProgressUpdate
	for rows.Next() {
		var (
			recorded      string
			score, target any
			u             models.ProgressUpdate
		)
		if err := rows.Scan(&recorded, &score, &target, &u.Notes); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		if recorded != "" {
			if t, err := time.Parse(timeLayout, recorded); err == nil {
				u.RecordedAt = t
			}
		}
		u.RawScore = loaded(score)
		u.RawTarget = loaded(target)
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// DeleteSkill removes a skill and its updates.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM progress_updates WHERE skill_id = ?`, id); err != nil {
		return fmt.Errorf("delete updates for %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete skill %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSkillNotFound, id)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkill(r rowScanner) (models.Skill, error) {
	var (
		sk      models.Skill
		created string
	)
	if err := r.Scan(&sk.ID, &sk.Name, &sk.Description, &created); err != nil {
		return models.Skill{}, err
	}
	if t, err := time.Parse(timeLayout, created); err == nil {
		sk.CreatedAt = t
	}
	return sk, nil
}

// storable converts a loose score into a value the driver accepts.
func storable(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case []byte:
		return string(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if f, err := x.Float64(); err == nil {
			return f, nil
		}
		return x.String(), nil
	default:
		return nil, fmt.Errorf("%w %T", ErrUnsupportedValue, v)
	}
}

// loaded maps driver values back to the shapes the chart normalizer expects.
func loaded(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// applyPragmas configures SQLite for single-practice use.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. SKILLCHART_DB environment variable
// 2. $XDG_DATA_HOME/skillchart/skillchart.db
// 3. ~/.local/share/skillchart/skillchart.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("SKILLCHART_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "skillchart", "skillchart.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
