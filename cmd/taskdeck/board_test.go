package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/cache"
	"github.com/taskdeck/taskdeck/internal/models"
	"github.com/taskdeck/taskdeck/internal/state"
)

// Test helpers
func openTestSnapshots(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPreloadBoard(t *testing.T) {
	snapshots := openTestSnapshots(t)
	require.NoError(t, snapshots.SaveTasks(cache.ScopeMyTasks, []models.Task{
		{ID: 1, Title: "cached", Status: models.TaskStatusTodo, Priority: models.PriorityLow},
		{ID: 2, Title: "done already", Status: models.TaskStatusDone, Priority: models.PriorityLow},
	}))

	board := state.NewBoard()
	require.NoError(t, preloadBoard(snapshots, board, nil))

	assert.Equal(t, 2, board.Len())
	todo := board.Bucket(models.TaskStatusTodo)
	require.Len(t, todo, 1)
	assert.Equal(t, "cached", todo[0].Title)
}

func TestPreloadBoard_ProjectScope(t *testing.T) {
	snapshots := openTestSnapshots(t)
	require.NoError(t, snapshots.SaveTasks(cache.ScopeMyTasks, []models.Task{
		{ID: 1, Title: "mine", Status: models.TaskStatusTodo, Priority: models.PriorityLow},
	}))
	require.NoError(t, snapshots.SaveTasks(cache.ProjectScope(7), []models.Task{
		{ID: 2, Title: "scoped", Status: models.TaskStatusTodo, Priority: models.PriorityLow},
	}))

	pid := int64(7)
	board := state.NewBoard()
	require.NoError(t, preloadBoard(snapshots, board, &pid))

	require.Equal(t, 1, board.Len())
	todo := board.Bucket(models.TaskStatusTodo)
	require.Len(t, todo, 1)
	assert.Equal(t, "scoped", todo[0].Title)
}

func TestPreloadBoard_NothingCached(t *testing.T) {
	snapshots := openTestSnapshots(t)

	board := state.NewBoard()
	require.NoError(t, preloadBoard(snapshots, board, nil))
	assert.Equal(t, 0, board.Len())
}
