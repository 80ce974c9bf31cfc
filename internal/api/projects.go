package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/models"
)

// ProjectAPI groups the project endpoints.
type ProjectAPI struct {
	c *Client
}

func (a *ProjectAPI) List(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := a.c.do(ctx, http.MethodGet, "/projects", nil, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (a *ProjectAPI) Get(ctx context.Context, id int64) (models.Project, error) {
	var project models.Project
	err := a.c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, nil, &project)
	return project, err
}

func (a *ProjectAPI) Create(ctx context.Context, in models.ProjectCreate) (models.Project, error) {
	var project models.Project
	err := a.c.do(ctx, http.MethodPost, "/projects", nil, in, &project)
	return project, err
}

func (a *ProjectAPI) Update(ctx context.Context, id int64, in models.ProjectCreate) (models.Project, error) {
	var project models.Project
	err := a.c.do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d", id), nil, in, &project)
	return project, err
}

// Delete removes a project. The backend cascades deletion of its tasks.
func (a *ProjectAPI) Delete(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil, nil)
}

// Tasks fetches the tasks belonging to a project.
func (a *ProjectAPI) Tasks(ctx context.Context, id int64) ([]models.Task, error) {
	var tasks []models.Task
	if err := a.c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/tasks", id), nil, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
