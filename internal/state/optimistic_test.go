package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/models"
)

func TestBoard_StageCreate_ThenConfirm(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
	})

	key, token := b.StageCreate(models.Task{Title: "new", Status: models.TaskStatusTodo})
	require.NotEmpty(t, token)
	assert.Equal(t, "local-"+token, key)
	assert.Equal(t, []string{"a", "new"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Equal(t, 1, b.PendingCount())

	server := newTask(2, "new", models.TaskStatusTodo)
	b.ConfirmCreate(key, server)

	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 2, b.Len())
	// The confirmed row keeps the placeholder's position under its server key.
	assert.Equal(t, []string{"a", "new"}, bucketTitles(b, models.TaskStatusTodo))
	_, ok := b.Task(key)
	assert.False(t, ok)
	_, ok = b.Task("2")
	assert.True(t, ok)
}

func TestBoard_StageCreate_PushConfirmsByToken(t *testing.T) {
	b := NewBoard()
	key, token := b.StageCreate(models.Task{Title: "new", Status: models.TaskStatusTodo})

	pushed := newTask(7, "new", models.TaskStatusTodo)
	pushed.ClientToken = token
	b.ApplyCreated(pushed)

	// The push confirmed the placeholder; the response arriving second must
	// not produce a duplicate row.
	b.ConfirmCreate(key, pushed)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []string{"new"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_StageCreate_PushConfirmsByTitleAndProject(t *testing.T) {
	project := int64(3)
	b := NewBoard()
	b.StageCreate(models.Task{Title: "new", Status: models.TaskStatusTodo, ProjectID: &project})

	// Payloads from a backend without token echo fall back to title+project.
	pushed := newTask(7, "new", models.TaskStatusTodo)
	pushed.ProjectID = &project
	b.ApplyCreated(pushed)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_StageCreate_FallbackConfirmsOldestFirst(t *testing.T) {
	project := int64(3)
	b := NewBoard()
	first, _ := b.StageCreate(models.Task{Title: "dup", Status: models.TaskStatusTodo, ProjectID: &project})
	second, _ := b.StageCreate(models.Task{Title: "dup", Status: models.TaskStatusTodo, ProjectID: &project})

	// Two pushes without a token echo settle the placeholders in the order
	// they were staged, regardless of map iteration order.
	pushed := newTask(7, "dup", models.TaskStatusTodo)
	pushed.ProjectID = &project
	b.ApplyCreated(pushed)

	_, ok := b.Task(first)
	assert.False(t, ok)
	_, ok = b.Task(second)
	assert.True(t, ok)
	assert.Equal(t, 1, b.PendingCount())

	next := newTask(8, "dup", models.TaskStatusTodo)
	next.ProjectID = &project
	b.ApplyCreated(next)

	_, ok = b.Task(second)
	assert.False(t, ok)
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 2, b.Len())
}

func TestBoard_StageCreate_Rollback(t *testing.T) {
	b := NewBoard()
	key, _ := b.StageCreate(models.Task{Title: "new", Status: models.TaskStatusTodo})

	b.Rollback(key)

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_StageUpdate_Rollback_RestoresFieldsAndPosition(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
		newTask(2, "b", models.TaskStatusTodo),
		newTask(3, "c", models.TaskStatusTodo),
	})

	updated := newTask(2, "b", models.TaskStatusDone)
	require.NoError(t, b.StageUpdate("2", updated))
	assert.Equal(t, []string{"a", "c"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Equal(t, []string{"b"}, bucketTitles(b, models.TaskStatusDone))

	b.Rollback("2")

	assert.Equal(t, []string{"a", "b", "c"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Empty(t, b.Bucket(models.TaskStatusDone))
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_StageUpdate_ConfirmAppliesServerEcho(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
	})

	staged := newTask(1, "a", models.TaskStatusDone)
	require.NoError(t, b.StageUpdate("1", staged))

	echo := newTask(1, "a", models.TaskStatusDone)
	echo.Priority = models.PriorityHigh
	b.Confirm("1", &echo)

	got, ok := b.Task("1")
	require.True(t, ok)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_StageUpdate_UnknownKey(t *testing.T) {
	b := NewBoard()
	err := b.StageUpdate("9", newTask(9, "x", models.TaskStatusTodo))
	assert.Error(t, err)
}

func TestBoard_StageMove(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
		newTask(2, "b", models.TaskStatusDone),
		newTask(3, "c", models.TaskStatusDone),
	})

	require.NoError(t, b.StageMove("1", models.TaskStatusDone, 1))

	assert.Empty(t, b.Bucket(models.TaskStatusTodo))
	assert.Equal(t, []string{"b", "a", "c"}, bucketTitles(b, models.TaskStatusDone))
	got, _ := b.Task("1")
	assert.Equal(t, models.TaskStatusDone, got.Status)

	b.Rollback("1")
	assert.Equal(t, []string{"a"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Equal(t, []string{"b", "c"}, bucketTitles(b, models.TaskStatusDone))
}

func TestBoard_StageMove_UnknownBucket(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{newTask(1, "a", models.TaskStatusTodo)})
	assert.Error(t, b.StageMove("1", "archived", 0))
}

func TestBoard_StageDelete_ConfirmAndRollback(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
		newTask(2, "b", models.TaskStatusTodo),
		newTask(3, "c", models.TaskStatusTodo),
	})

	require.NoError(t, b.StageDelete("2"))
	assert.Equal(t, []string{"a", "c"}, bucketTitles(b, models.TaskStatusTodo))

	b.Rollback("2")
	assert.Equal(t, []string{"a", "b", "c"}, bucketTitles(b, models.TaskStatusTodo))

	require.NoError(t, b.StageDelete("2"))
	b.Confirm("2", nil)
	assert.Equal(t, []string{"a", "c"}, bucketTitles(b, models.TaskStatusTodo))
	assert.Equal(t, 0, b.PendingCount())
}

func TestBoard_SnapshotShieldsPendingRows(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
	})

	staged := newTask(1, "a-edited", models.TaskStatusTodo)
	require.NoError(t, b.StageUpdate("1", staged))
	key, _ := b.StageCreate(models.Task{Title: "new", Status: models.TaskStatusTodo})

	// A concurrent fetch that predates both mutations must not clobber
	// the staged edit or drop the placeholder.
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
	})

	got, ok := b.Task("1")
	require.True(t, ok)
	assert.Equal(t, "a-edited", got.Title)
	_, ok = b.Task(key)
	assert.True(t, ok)
}

func TestBoard_PushEchoSupersedesStagedEdit(t *testing.T) {
	b := NewBoard()
	b.ApplySnapshot([]models.Task{
		newTask(1, "a", models.TaskStatusTodo),
	})
	require.NoError(t, b.StageUpdate("1", newTask(1, "a-local", models.TaskStatusTodo)))

	b.ApplyUpdated(newTask(1, "a-server", models.TaskStatusTodo))

	got, _ := b.Task("1")
	assert.Equal(t, "a-server", got.Title)
	assert.Equal(t, 0, b.PendingCount())
}
