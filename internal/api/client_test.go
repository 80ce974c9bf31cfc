package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/models"
)

// Test helpers
type fakeTokens struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (f *fakeTokens) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared = true
	return nil
}

func (f *fakeTokens) wasCleared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *fakeTokens) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := &fakeTokens{token: "test-token"}
	opts = append([]Option{WithRetryDelays([]time.Duration{time.Millisecond})}, opts...)
	return NewClient(srv.URL, tokens, opts...), tokens
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, []models.Task{{ID: 1, Title: "a", Status: models.TaskStatusTodo}})
	}))

	tasks, err := client.Tasks.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), WithRetries(2))

	_, err := client.Tasks.List(context.Background(), false)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]string{"detail": "Task not found"})
	}))

	_, err := client.Tasks.Get(context.Background(), 42)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Task not found", apiErr.Detail)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	var calls atomic.Int32
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Tasks.List(context.Background(), false)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, tokens.wasCleared())
	// Auth failures are terminal, never retried.
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_AttachesBearerToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(t, w, []models.Task{})
	}))

	_, err := client.Tasks.List(context.Background(), false)
	require.NoError(t, err)
}

func TestClient_StatusTransitionsFireOnce(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var transitions []Status

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, []models.Task{})
	})
	client, _ := newTestClient(t, handler, WithStatusFunc(func(s Status) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	}))

	_, err := client.Tasks.List(context.Background(), false)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	// Two failed attempts produce one reconnecting transition; success
	// produces one connected transition.
	assert.Equal(t, []Status{StatusReconnecting, StatusConnected}, transitions)
}

func TestClient_OnStatusChange(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var transitions []Status

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeJSON(t, w, []models.Task{})
	}))

	// Registered after construction, the way the TUI wires its indicator.
	client.OnStatusChange(func(s Status) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	})

	_, err := client.Tasks.List(context.Background(), false)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusReconnecting, StatusConnected}, transitions)
}

func TestClient_TaskListQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("my_tasks"))
		writeJSON(t, w, []models.Task{})
	}))

	_, err := client.Tasks.List(context.Background(), true)
	require.NoError(t, err)
}

func TestClient_TaskSearchQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/search", r.URL.Path)
		assert.Equal(t, "deploy", r.URL.Query().Get("q"))
		writeJSON(t, w, []models.Task{})
	}))

	_, err := client.Tasks.Search(context.Background(), "deploy")
	require.NoError(t, err)
}

func TestClient_CreateTaskSendsPayload(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tasks", r.URL.Path)

		var in models.TaskCreate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "ship it", in.Title)
		assert.Equal(t, models.PriorityHigh, in.Priority)

		writeJSON(t, w, models.Task{ID: 10, Title: in.Title, Status: models.TaskStatusTodo})
	}))

	task, err := client.Tasks.Create(context.Background(), models.TaskCreate{
		Title:    "ship it",
		Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), task.ID)
}

func TestNotificationAPI_CheckDueDates(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(t, w, map[string]string{"status": "ok"})
	}))

	require.NoError(t, client.Notifications.CheckDueDates(context.Background()))
	assert.Equal(t, "/notifications/check-due-dates", path)
}

func TestClient_ContextCancellationStopsRetrying(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), WithRetryDelays([]time.Duration{time.Minute}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Tasks.List(ctx, false)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAuthAPI_Login(t *testing.T) {
	client, tokens := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("username") != "me@example.com" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, models.Token{AccessToken: "issued", TokenType: "bearer"})
	}))

	token, err := client.Auth.Login(context.Background(), "me@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "issued", token.AccessToken)

	_, err = client.Auth.Login(context.Background(), "me@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	// A login rejection must not wipe the stored session token.
	assert.False(t, tokens.wasCleared())
}

func TestClient_Health(t *testing.T) {
	healthy := atomic.Bool{}
	var mu sync.Mutex
	var transitions []Status

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, map[string]string{"status": "ok"})
	})
	client, _ := newTestClient(t, handler, WithStatusFunc(func(s Status) {
		mu.Lock()
		transitions = append(transitions, s)
		mu.Unlock()
	}))

	assert.Error(t, client.Health(context.Background()))
	assert.Error(t, client.Health(context.Background()))
	healthy.Store(true)
	assert.NoError(t, client.Health(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusReconnecting, StatusConnected}, transitions)
}
