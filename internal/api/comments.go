package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/taskdeck/taskdeck/internal/models"
)

// CommentAPI groups the per-task comment endpoints.
type CommentAPI struct {
	c *Client
}

func (a *CommentAPI) List(ctx context.Context, taskID int64) ([]models.Comment, error) {
	var comments []models.Comment
	path := fmt.Sprintf("/tasks/%d/comments", taskID)
	if err := a.c.do(ctx, http.MethodGet, path, nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (a *CommentAPI) Create(ctx context.Context, taskID int64, content string) (models.Comment, error) {
	body := struct {
		Content string `json:"content"`
	}{Content: content}
	var comment models.Comment
	path := fmt.Sprintf("/tasks/%d/comments", taskID)
	err := a.c.do(ctx, http.MethodPost, path, nil, body, &comment)
	return comment, err
}

func (a *CommentAPI) Delete(ctx context.Context, taskID, commentID int64) error {
	path := fmt.Sprintf("/tasks/%d/comments/%d", taskID, commentID)
	return a.c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}
