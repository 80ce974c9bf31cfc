package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/taskdeck/taskdeck/internal/models"
)

// ProfileAPI groups the profile endpoints.
type ProfileAPI struct {
	c *Client
}

func (a *ProfileAPI) Get(ctx context.Context) (models.User, error) {
	var user models.User
	err := a.c.do(ctx, http.MethodGet, "/profile", nil, nil, &user)
	return user, err
}

func (a *ProfileAPI) Update(ctx context.Context, in models.UserUpdate) (models.User, error) {
	var user models.User
	err := a.c.do(ctx, http.MethodPut, "/profile", nil, in, &user)
	return user, err
}

// UploadAvatar sends an avatar image as multipart form data. Uploads are not
// retried: the reader can only be consumed once.
func (a *ProfileAPI) UploadAvatar(ctx context.Context, filename string, r io.Reader) (models.User, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return models.User{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return models.User{}, fmt.Errorf("read avatar file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return models.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.c.baseURL+"/profile/avatar", &buf)
	if err != nil {
		return models.User{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	a.c.authorize(req)

	resp, err := a.c.httpClient.Do(req)
	if err != nil {
		return models.User{}, fmt.Errorf("upload avatar: %w", err)
	}
	defer resp.Body.Close()

	var user models.User
	if _, err := a.c.decode(resp, &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (a *ProfileAPI) DeleteAvatar(ctx context.Context) error {
	return a.c.do(ctx, http.MethodDelete, "/profile/avatar", nil, nil, nil)
}
