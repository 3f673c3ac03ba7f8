package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionctl/internal/models"
)

func TestCreateEventDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	event, err := s.CreateEvent(ctx, models.Event{Title: "standup", StartDate: now, EndDate: now.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "task", event.Category)
	assert.NotEmpty(t, event.Color)

	_, err = s.CreateEvent(ctx, models.Event{Title: "bad", StartDate: now, EndDate: now, Category: "party"})
	assert.Error(t, err)
	_, err = s.CreateEvent(ctx, models.Event{Title: "bad", StartDate: now, EndDate: now, Status: "paused"})
	assert.Error(t, err)
	_, err = s.CreateEvent(ctx, models.Event{Title: "no dates"})
	assert.Error(t, err)
}

func TestListEventsRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	inside, err := s.CreateEvent(ctx, models.Event{Title: "inside", Category: "meeting",
		StartDate: base.Add(24 * time.Hour), EndDate: base.Add(25 * time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, models.Event{Title: "before", Category: "meeting",
		StartDate: base.Add(-48 * time.Hour), EndDate: base.Add(-47 * time.Hour)})
	require.NoError(t, err)

	from := base
	to := base.Add(72 * time.Hour)
	events, err := s.ListEvents(ctx, &from, &to)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, inside.ID, events[0].ID)

	// No bounds returns everything, start ascending.
	events, err = s.ListEvents(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "before", events[0].Title)
}

func TestUpcomingAndTodaysEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	// Fixed mid-day reference keeps the day-window assertions stable.
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

	today, err := s.CreateEvent(ctx, models.Event{Title: "today", Category: "reminder",
		StartDate: now.Add(time.Minute), EndDate: now.Add(time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, models.Event{Title: "next month", Category: "milestone",
		StartDate: now.Add(31 * 24 * time.Hour), EndDate: now.Add(32 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateEvent(ctx, models.Event{Title: "past", Category: "cron",
		StartDate: now.Add(-24 * time.Hour), EndDate: now.Add(-23 * time.Hour)})
	require.NoError(t, err)

	upcoming, err := s.UpcomingEvents(ctx, now)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, today.ID, upcoming[0].ID)

	todays, err := s.TodaysEvents(ctx, now)
	require.NoError(t, err)
	require.Len(t, todays, 1)
	assert.Equal(t, today.ID, todays[0].ID)
}

func TestUpdateEventPartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	event, err := s.CreateEvent(ctx, models.Event{Title: "sync", Category: "meeting",
		StartDate: now, EndDate: now.Add(time.Hour), Recurring: "every weekday"})
	require.NoError(t, err)

	updated, err := s.UpdateEvent(ctx, event.ID, EventPatch{Status: strPtr("completed")})
	require.NoError(t, err)
	assert.Equal(t, "sync", updated.Title)
	assert.Equal(t, "completed", updated.Status)
	assert.Equal(t, "every weekday", updated.Recurring)
	assert.Equal(t, "meeting", updated.Category)

	_, err = s.UpdateEvent(ctx, event.ID, EventPatch{Category: strPtr("party")})
	assert.Error(t, err)
}

func TestDeleteEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	event, err := s.CreateEvent(ctx, models.Event{Title: "temp", StartDate: now, EndDate: now.Add(time.Hour)})
	require.NoError(t, err)
	require.NoError(t, s.DeleteEvent(ctx, event.ID))
	assert.ErrorContains(t, s.DeleteEvent(ctx, event.ID), "not found")
}
