package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/taskdeck/taskdeck/internal/models"
)

// TaskAPI groups the task endpoints.
type TaskAPI struct {
	c *Client
}

// List fetches tasks; myTasks limits the result to tasks assigned to or
// created by the current user.
func (a *TaskAPI) List(ctx context.Context, myTasks bool) ([]models.Task, error) {
	query := url.Values{}
	if myTasks {
		query.Set("my_tasks", "true")
	}
	var tasks []models.Task
	if err := a.c.do(ctx, http.MethodGet, "/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Search finds tasks whose title or description matches q.
func (a *TaskAPI) Search(ctx context.Context, q string) ([]models.Task, error) {
	query := url.Values{"q": {q}}
	var tasks []models.Task
	if err := a.c.do(ctx, http.MethodGet, "/tasks/search", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Get fetches a single task.
func (a *TaskAPI) Get(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := a.c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &task)
	return task, err
}

// Create creates a task and returns the server-confirmed row.
func (a *TaskAPI) Create(ctx context.Context, in models.TaskCreate) (models.Task, error) {
	var task models.Task
	err := a.c.do(ctx, http.MethodPost, "/tasks", nil, in, &task)
	return task, err
}

// Update applies a partial update.
func (a *TaskAPI) Update(ctx context.Context, id int64, in models.TaskUpdate) (models.Task, error) {
	var task models.Task
	err := a.c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), nil, in, &task)
	return task, err
}

// Delete removes a task.
func (a *TaskAPI) Delete(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, nil)
}
