package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrDatabaseNotFound means the engine has never been started (or was reset)
// and its database file does not exist yet.
var ErrDatabaseNotFound = errors.New("engine: database not found")

// StoredWorkflow is a workflow row read directly from the engine's persisted
// database. Used when the engine itself is not running.
type StoredWorkflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// WorkflowReader reads workflows from the engine's sqlite database without
// going through the engine's API.
type WorkflowReader struct {
	dbPath string
}

// NewWorkflowReader creates a reader for the database inside dataDir.
func NewWorkflowReader(dataDir string) *WorkflowReader {
	return &WorkflowReader{dbPath: filepath.Join(dataDir, "database.sqlite")}
}

// List returns all workflows ordered by name. The database is opened
// read-only; this must never mutate engine state.
func (r *WorkflowReader) List(ctx context.Context) ([]StoredWorkflow, error) {
	if _, err := os.Stat(r.dbPath); os.IsNotExist(err) {
		return nil, ErrDatabaseNotFound
	}

	dsn := fmt.Sprintf("file:%s?mode=ro", r.dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, active
		FROM workflow_entity
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("engine: failed to query workflows: %w", err)
	}
	defer rows.Close()

	var workflows []StoredWorkflow

	for rows.Next() {
		var (
			id     string
			name   sql.NullString
			active sql.NullBool
		)
		if err := rows.Scan(&id, &name, &active); err != nil {
			return nil, fmt.Errorf("engine: failed to scan workflow row: %w", err)
		}

		workflow := StoredWorkflow{
			ID:     id,
			Name:   "Untitled Workflow",
			Active: active.Valid && active.Bool,
		}
		if name.Valid && name.String != "" {
			workflow.Name = name.String
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("engine: failed to read workflows: %w", err)
	}

	if workflows == nil {
		workflows = []StoredWorkflow{}
	}

	return workflows, nil
}
