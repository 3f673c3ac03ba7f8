package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionctl/internal/models"
)

func TestCreateTaskWebhookDefaults(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "file the report"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, created["ok"])
	require.NotNil(t, created["id"])

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeBody[[]models.Task](t, rec)
	require.Len(t, tasks, 1)
	assert.Equal(t, "todo", tasks[0].Status)
	assert.Equal(t, "medium", tasks[0].Priority)
	assert.Equal(t, "ai", tasks[0].Assignee)
}

func TestCreateTaskRequiresTitle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"description": "no title"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Contains(t, body["error"], "title")
}

func TestReportUpdateValidation(t *testing.T) {
	srv := newTestServer(t)

	// Seed one pending task to prove bad requests mutate nothing.
	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "queued", "prompt": "do X"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", id), map[string]any{"status": "inprogress", "order": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	pending := decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks/pending", nil))
	require.Len(t, pending, 1)

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/update", map[string]any{"aiStatus": "completed"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/update", map[string]any{"id": id})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	pending = decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks/pending", nil))
	require.Len(t, pending, 1)
	assert.Equal(t, "pending", pending[0].AIStatus)
}

// Full worker round trip: file a task, drag it into progress with a
// prompt, have the runner claim and finish it.
func TestAgentRunnerLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Write spec",
		"status":   "todo",
		"assignee": "ai",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	// No prompt yet: dragging into progress leaves the queue empty.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", id), map[string]any{"status": "inprogress", "order": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks/pending", nil))
	assert.Empty(t, pending)

	// The user supplies a prompt and re-drags the card.
	rec = doJSON(t, srv, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", id), map[string]any{"prompt": "do X"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", id), map[string]any{"status": "inprogress", "order": 0})
	require.Equal(t, http.StatusOK, rec.Code)

	pending = decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks/pending", nil))
	require.Len(t, pending, 1)
	assert.Equal(t, id, pending[0].ID)

	// Worker claims, then reports completion.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/update", map[string]any{"id": id, "aiStatus": "running"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/update", map[string]any{
		"id": id, "aiStatus": "completed", "aiResult": "done", "status": "done",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	tasks := decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks", nil))
	require.Len(t, tasks, 1)
	assert.Equal(t, "completed", tasks[0].AIStatus)
	assert.Equal(t, "done", tasks[0].AIResult)
	assert.Equal(t, "done", tasks[0].Status)

	pending = decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks/pending", nil))
	assert.Empty(t, pending)
}

func TestMoveTaskValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "card"})
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", id), map[string]any{"order": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/tasks/%d/move", id), map[string]any{"status": "limbo", "order": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/abc/move", map[string]any{"status": "done", "order": 1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTaskEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", map[string]any{"title": "short lived"})
	id := int64(decodeBody[map[string]any](t, rec)["id"].(float64))

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	tasks := decodeBody[[]models.Task](t, doJSON(t, srv, http.MethodGet, "/api/tasks", nil))
	assert.Empty(t, tasks)
}
