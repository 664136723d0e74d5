package engine

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEngineDatabase(t *testing.T, dir string) {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(dir, "database.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE workflow_entity (id TEXT PRIMARY KEY, name TEXT, active INTEGER)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO workflow_entity (id, name, active) VALUES
		('wf2', 'Rent payment import', 0),
		('wf1', 'Bill approval', 1),
		('wf3', NULL, 1)`)
	require.NoError(t, err)
}

func TestWorkflowReader_List(t *testing.T) {
	dir := t.TempDir()
	writeEngineDatabase(t, dir)

	reader := NewWorkflowReader(dir)

	workflows, err := reader.List(context.Background())
	require.NoError(t, err)
	require.Len(t, workflows, 3)

	// NULL names sort first in sqlite; rows come back ordered by name.
	assert.Equal(t, "Untitled Workflow", workflows[0].Name)
	assert.Equal(t, "wf3", workflows[0].ID)
	assert.True(t, workflows[0].Active)

	assert.Equal(t, "Bill approval", workflows[1].Name)
	assert.True(t, workflows[1].Active)

	assert.Equal(t, "Rent payment import", workflows[2].Name)
	assert.False(t, workflows[2].Active)
}

func TestWorkflowReader_DatabaseNotFound(t *testing.T) {
	reader := NewWorkflowReader(t.TempDir())

	_, err := reader.List(context.Background())
	assert.ErrorIs(t, err, ErrDatabaseNotFound)
}
