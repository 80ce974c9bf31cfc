// Package cache persists the last fetched snapshot per scope in a local
// sqlite database, so listings work offline and the board has something to
// paint before the live fetch lands.
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/taskdeck/taskdeck/internal/models"
)

// ErrNoSnapshot is returned when a scope has never been cached.
var ErrNoSnapshot = errors.New("no cached snapshot")

// Scope names for the standard listings.
const (
	ScopeAllTasks = "tasks"
	ScopeMyTasks  = "tasks:mine"
	ScopeProjects = "projects"
)

// ProjectScope names the task snapshot of one project.
func ProjectScope(projectID int64) string {
	return fmt.Sprintf("project:%d", projectID)
}

const schema = `
CREATE TABLE IF NOT EXISTS task_snapshots (
	scope       TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	id          INTEGER NOT NULL,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	status      TEXT    NOT NULL,
	priority    TEXT    NOT NULL,
	due_date    TEXT    NOT NULL DEFAULT '',
	start_time  TEXT    NOT NULL DEFAULT '',
	end_time    TEXT    NOT NULL DEFAULT '',
	assignee_id INTEGER,
	project_id  INTEGER,
	created_at  TIMESTAMP,
	PRIMARY KEY (scope, id)
);

CREATE TABLE IF NOT EXISTS project_snapshots (
	scope       TEXT    NOT NULL,
	position    INTEGER NOT NULL,
	id          INTEGER NOT NULL,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	color       TEXT    NOT NULL DEFAULT '',
	owner_id    INTEGER NOT NULL,
	created_at  TIMESTAMP,
	PRIMARY KEY (scope, id)
);

CREATE TABLE IF NOT EXISTS snapshot_meta (
	scope      TEXT PRIMARY KEY,
	fetched_at TIMESTAMP NOT NULL
);
`

// Store is a sqlite-backed snapshot store.
type Store struct {
	db *sqlx.DB
}

// Open opens (and if needed creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type taskRow struct {
	models.Task
	Scope    string `db:"scope"`
	Position int    `db:"position"`
}

type projectRow struct {
	models.Project
	Scope    string `db:"scope"`
	Position int    `db:"position"`
}

// SaveTasks replaces the cached task snapshot for a scope, preserving the
// snapshot's order.
func (s *Store) SaveTasks(scope string, tasks []models.Task) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM task_snapshots WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear task snapshot: %w", err)
	}
	for i, t := range tasks {
		if t.ID == 0 {
			continue // placeholders are not persisted
		}
		row := taskRow{Task: t, Scope: scope, Position: i}
		_, err := tx.NamedExec(`
			INSERT INTO task_snapshots
				(scope, position, id, title, description, status, priority,
				 due_date, start_time, end_time, assignee_id, project_id, created_at)
			VALUES
				(:scope, :position, :id, :title, :description, :status, :priority,
				 :due_date, :start_time, :end_time, :assignee_id, :project_id, :created_at)`, row)
		if err != nil {
			return fmt.Errorf("insert task snapshot row: %w", err)
		}
	}
	if err := s.touch(tx, scope); err != nil {
		return err
	}
	return tx.Commit()
}

// Tasks loads the cached task snapshot for a scope in its saved order.
func (s *Store) Tasks(scope string) ([]models.Task, error) {
	var rows []taskRow
	err := s.db.Select(&rows, `
		SELECT scope, position, id, title, description, status, priority,
		       due_date, start_time, end_time, assignee_id, project_id, created_at
		FROM task_snapshots WHERE scope = ? ORDER BY position`, scope)
	if err != nil {
		return nil, fmt.Errorf("load task snapshot: %w", err)
	}
	if len(rows) == 0 {
		if _, err := s.FetchedAt(scope); err != nil {
			return nil, ErrNoSnapshot
		}
	}
	tasks := make([]models.Task, len(rows))
	for i, row := range rows {
		tasks[i] = row.Task
	}
	return tasks, nil
}

// SaveProjects replaces the cached project snapshot.
func (s *Store) SaveProjects(projects []models.Project) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM project_snapshots WHERE scope = ?`, ScopeProjects); err != nil {
		return fmt.Errorf("clear project snapshot: %w", err)
	}
	for i, p := range projects {
		row := projectRow{Project: p, Scope: ScopeProjects, Position: i}
		_, err := tx.NamedExec(`
			INSERT INTO project_snapshots
				(scope, position, id, title, description, color, owner_id, created_at)
			VALUES
				(:scope, :position, :id, :title, :description, :color, :owner_id, :created_at)`, row)
		if err != nil {
			return fmt.Errorf("insert project snapshot row: %w", err)
		}
	}
	if err := s.touch(tx, ScopeProjects); err != nil {
		return err
	}
	return tx.Commit()
}

// Projects loads the cached project snapshot.
func (s *Store) Projects() ([]models.Project, error) {
	var rows []projectRow
	err := s.db.Select(&rows, `
		SELECT scope, position, id, title, description, color, owner_id, created_at
		FROM project_snapshots WHERE scope = ? ORDER BY position`, ScopeProjects)
	if err != nil {
		return nil, fmt.Errorf("load project snapshot: %w", err)
	}
	if len(rows) == 0 {
		if _, err := s.FetchedAt(ScopeProjects); err != nil {
			return nil, ErrNoSnapshot
		}
	}
	projects := make([]models.Project, len(rows))
	for i, row := range rows {
		projects[i] = row.Project
	}
	return projects, nil
}

// FetchedAt reports when a scope was last cached.
func (s *Store) FetchedAt(scope string) (time.Time, error) {
	var fetched time.Time
	err := s.db.Get(&fetched, `SELECT fetched_at FROM snapshot_meta WHERE scope = ?`, scope)
	if err != nil {
		return time.Time{}, ErrNoSnapshot
	}
	return fetched, nil
}

func (s *Store) touch(tx *sqlx.Tx, scope string) error {
	_, err := tx.Exec(`
		INSERT INTO snapshot_meta (scope, fetched_at) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET fetched_at = excluded.fetched_at`,
		scope, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("stamp snapshot: %w", err)
	}
	return nil
}
