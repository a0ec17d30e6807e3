// Package store persists projects, their topologies and generated
// solutions in SQLite.
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
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/circuit-architect/internal/solution"
	"github.com/joelkehle/circuit-architect/internal/topology"
)

var ErrNotFound = errors.New("not found")

type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Brief     string    `json:"brief"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type projectRow struct {
	ID        string `db:"project_id"`
	Name      string `db:"name"`
	Brief     string `db:"brief"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r projectRow) project() Project {
	return Project{
		ID:        r.ID,
		Name:      r.Name,
		Brief:     r.Brief,
		CreatedAt: stringToTime(r.CreatedAt),
		UpdatedAt: stringToTime(r.UpdatedAt),
	}
}

type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS projects (
	project_id TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	brief      TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS topologies (
	project_id TEXT PRIMARY KEY REFERENCES projects(project_id),
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS solutions (
	project_id   TEXT NOT NULL REFERENCES projects(project_id),
	position     INTEGER NOT NULL,
	solution_id  TEXT NOT NULL,
	body         TEXT NOT NULL,
	generated_at TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (project_id, position)
);

CREATE INDEX IF NOT EXISTS solutions_by_id ON solutions(project_id, solution_id);
`

type Option func(*SQLiteStore)

// WithClock overrides the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

func Open(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name, brief string) (Project, error) {
	now := timeToString(s.now())
	row := projectRow{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Brief:     strings.TrimSpace(brief),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO projects (project_id, name, brief, created_at, updated_at)
		VALUES (:project_id, :name, :brief, :created_at, :updated_at)`, row)
	if err != nil {
		return Project{}, fmt.Errorf("insert project: %w", err)
	}
	return row.project(), nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (Project, error) {
	var row projectRow
	err := s.db.GetContext(ctx, &row, "SELECT project_id, name, brief, created_at, updated_at FROM projects WHERE project_id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Project{}, fmt.Errorf("get project: %w", err)
	}
	return row.project(), nil
}

// ListProjects returns projects newest first.
func (s *SQLiteStore) ListProjects(ctx context.Context) ([]Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT project_id, name, brief, created_at, updated_at FROM projects ORDER BY created_at DESC, project_id"); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]Project, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.project())
	}
	return out, nil
}

func (s *SQLiteStore) SaveTopology(ctx context.Context, projectID string, t topology.Topology) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal topology: %w", err)
	}
	now := timeToString(s.now())
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT INTO topologies (project_id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(project_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		projectID, string(body), now); err != nil {
		return fmt.Errorf("upsert topology: %w", err)
	}
	if err := touchProject(ctx, tx, projectID, now); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTopology returns an empty topology for a project that never saved one.
func (s *SQLiteStore) GetTopology(ctx context.Context, projectID string) (topology.Topology, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return topology.Topology{}, err
	}
	var body string
	err := s.db.GetContext(ctx, &body, "SELECT body FROM topologies WHERE project_id = ?", projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return topology.Topology{Nodes: []topology.Node{}, Connections: []topology.Connection{}}, nil
	}
	if err != nil {
		return topology.Topology{}, fmt.Errorf("get topology: %w", err)
	}
	var t topology.Topology
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return topology.Topology{}, fmt.Errorf("decode topology: %w", err)
	}
	return t, nil
}

// SaveSolutions replaces the project's solution set, keeping slice order.
func (s *SQLiteStore) SaveSolutions(ctx context.Context, projectID string, sols []solution.DesignSolution) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM solutions WHERE project_id = ?", projectID); err != nil {
		return fmt.Errorf("clear solutions: %w", err)
	}
	for i, sol := range sols {
		body, err := json.Marshal(sol)
		if err != nil {
			return fmt.Errorf("marshal solution %s: %w", sol.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO solutions (project_id, position, solution_id, body, generated_at) VALUES (?, ?, ?, ?, ?)",
			projectID, i, sol.ID, string(body), timeToString(sol.GeneratedAt)); err != nil {
			return fmt.Errorf("insert solution %s: %w", sol.ID, err)
		}
	}
	if err := touchProject(ctx, tx, projectID, timeToString(s.now())); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListSolutions(ctx context.Context, projectID string) ([]solution.DesignSolution, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	var bodies []string
	if err := s.db.SelectContext(ctx, &bodies, "SELECT body FROM solutions WHERE project_id = ? ORDER BY position", projectID); err != nil {
		return nil, fmt.Errorf("list solutions: %w", err)
	}
	out := make([]solution.DesignSolution, 0, len(bodies))
	for _, b := range bodies {
		sol, err := decodeSolution(b)
		if err != nil {
			return nil, err
		}
		out = append(out, sol)
	}
	return out, nil
}

// GetSolution returns the first solution with the id; ids are only unique
// within one generation batch.
func (s *SQLiteStore) GetSolution(ctx context.Context, projectID, solutionID string) (solution.DesignSolution, error) {
	var body string
	err := s.db.GetContext(ctx, &body, "SELECT body FROM solutions WHERE project_id = ? AND solution_id = ? ORDER BY position LIMIT 1", projectID, solutionID)
	if errors.Is(err, sql.ErrNoRows) {
		return solution.DesignSolution{}, fmt.Errorf("solution %s/%s: %w", projectID, solutionID, ErrNotFound)
	}
	if err != nil {
		return solution.DesignSolution{}, fmt.Errorf("get solution: %w", err)
	}
	return decodeSolution(body)
}

func touchProject(ctx context.Context, tx *sqlx.Tx, projectID, now string) error {
	if _, err := tx.ExecContext(ctx, "UPDATE projects SET updated_at = ? WHERE project_id = ?", now, projectID); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

func decodeSolution(body string) (solution.DesignSolution, error) {
	var sol solution.DesignSolution
	if err := json.Unmarshal([]byte(body), &sol); err != nil {
		return solution.DesignSolution{}, fmt.Errorf("decode solution: %w", err)
	}
	return sol, nil
}

func timeToString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func stringToTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
