package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/taskdeck/taskdeck/internal/models"
)

// NotificationAPI groups the notification endpoints.
type NotificationAPI struct {
	c *Client
}

func (a *NotificationAPI) List(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread_only", "true")
	}
	var notifications []models.Notification
	if err := a.c.do(ctx, http.MethodGet, "/notifications", query, nil, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (a *NotificationAPI) UnreadCount(ctx context.Context) (int, error) {
	var count models.UnreadCount
	if err := a.c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &count); err != nil {
		return 0, err
	}
	return count.Count, nil
}

func (a *NotificationAPI) MarkRead(ctx context.Context, id int64) error {
	return a.c.do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), nil, nil, nil)
}

func (a *NotificationAPI) MarkAllRead(ctx context.Context) error {
	return a.c.do(ctx, http.MethodPut, "/notifications/read-all", nil, nil, nil)
}

// CheckDueDates asks the backend to generate due-soon notifications for
// tasks approaching their deadline.
func (a *NotificationAPI) CheckDueDates(ctx context.Context) error {
	return a.c.do(ctx, http.MethodGet, "/notifications/check-due-dates", nil, nil, nil)
}
