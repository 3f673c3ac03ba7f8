package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"missionctl/internal/bus"
	"missionctl/internal/models"
)

// recorder captures bus events emitted by the store under test.
type recorder struct {
	events []bus.Event
}

func (r *recorder) Publish(ev bus.Event) {
	r.events = append(r.events, ev)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return newTestStoreWith(t, nil)
}

func newTestStoreWith(t *testing.T, n Notifier) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(":memory:", logger, n)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("", nil, nil)
	require.Error(t, err)
}

func TestStoreNotifiesOnWrites(t *testing.T) {
	rec := &recorder{}
	s := newTestStoreWith(t, rec)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, models.Task{Title: "wire the bus"})
	require.NoError(t, err)

	_, err = s.UpdateTask(ctx, task.ID, TaskPatch{Description: strPtr("details")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, task.ID))

	require.Len(t, rec.events, 3)
	require.Equal(t, bus.Event{Resource: "tasks", Action: bus.ActionCreated, ID: task.ID}, rec.events[0])
	require.Equal(t, bus.Event{Resource: "tasks", Action: bus.ActionUpdated, ID: task.ID}, rec.events[1])
	require.Equal(t, bus.Event{Resource: "tasks", Action: bus.ActionDeleted, ID: task.ID}, rec.events[2])
}

func strPtr(s string) *string { return &s }

func intPtr(n int64) *int64 { return &n }

func floatPtr(f float64) *float64 { return &f }
