package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/models"
)

func newProject(id int64, title string) models.Project {
	return models.Project{ID: id, Title: title, Color: models.ColorBlue}
}

func projectTitles(l *List[models.Project]) []string {
	items := l.Items()
	titles := make([]string, 0, len(items))
	for _, p := range items {
		titles = append(titles, p.Title)
	}
	return titles
}

func TestList_ApplySnapshot(t *testing.T) {
	l := NewList[models.Project]()
	l.ApplySnapshot([]models.Project{
		newProject(1, "alpha"),
		newProject(2, "beta"),
	})

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []string{"alpha", "beta"}, projectTitles(l))
}

func TestList_ApplySnapshot_PreservesSurvivorOrder(t *testing.T) {
	l := NewList[models.Project]()
	l.ApplySnapshot([]models.Project{
		newProject(1, "alpha"),
		newProject(2, "beta"),
		newProject(3, "gamma"),
	})

	// Refresh with a different server order and one row dropped: survivors
	// keep their relative order, the new row appends.
	l.ApplySnapshot([]models.Project{
		newProject(3, "gamma"),
		newProject(4, "delta"),
		newProject(1, "alpha2"),
	})

	assert.Equal(t, []string{"alpha2", "gamma", "delta"}, projectTitles(l))
	_, ok := l.Get("2")
	assert.False(t, ok)
}

func TestList_ApplyCreated_Deduplicates(t *testing.T) {
	l := NewList[models.Project]()
	l.ApplyCreated(newProject(1, "alpha"))
	l.ApplyCreated(newProject(1, "alpha"))

	assert.Equal(t, 1, l.Len())
}

func TestList_ApplyUpdated(t *testing.T) {
	l := NewList[models.Project]()
	l.ApplySnapshot([]models.Project{
		newProject(1, "alpha"),
		newProject(2, "beta"),
	})

	l.ApplyUpdated(newProject(1, "alpha2"))
	assert.Equal(t, []string{"alpha2", "beta"}, projectTitles(l))

	// Push for an unknown id inserts.
	l.ApplyUpdated(newProject(5, "late"))
	got, ok := l.Get("5")
	require.True(t, ok)
	assert.Equal(t, "late", got.Title)
}

func TestList_ApplyDeleted_Idempotent(t *testing.T) {
	l := NewList[models.Project]()
	l.ApplySnapshot([]models.Project{
		newProject(1, "alpha"),
		newProject(2, "beta"),
	})

	l.ApplyDeleted("1")
	l.ApplyDeleted("1")
	l.ApplyDeleted("99")

	assert.Equal(t, []string{"beta"}, projectTitles(l))
}
