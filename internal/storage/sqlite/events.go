package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"missionctl/internal/bus"
	"missionctl/internal/models"
)

// EventPatch carries a partial event update; nil fields stay untouched.
type EventPatch struct {
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Category    *string
	Color       *string
	Assignee    *string
	Status      *string
	Recurring   *string
}

const eventColumns = `e.id, e.title, e.description, e.start_date, e.end_date, e.category, e.color,
        e.assignee, e.status, e.recurring, e.created_by, e.created_at, e.updated_at,
        m.id, m.name, m.email, m.avatar, m.role, m.status, m.bio, m.last_active, m.joined_at`

const eventFrom = ` FROM events e LEFT JOIN members m ON m.id = e.created_by`

func scanEvent(row interface{ Scan(...any) error }) (models.Event, error) {
	var e models.Event
	var createdBy sql.NullInt64
	var creator memberRow
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.StartDate, &e.EndDate, &e.Category, &e.Color,
		&e.Assignee, &e.Status, &e.Recurring, &createdBy, &e.CreatedAt, &e.UpdatedAt,
		&creator.id, &creator.name, &creator.email, &creator.avatar, &creator.role,
		&creator.status, &creator.bio, &creator.lastActive, &creator.joinedAt)
	if err != nil {
		return models.Event{}, err
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	e.Creator = creator.member()
	return e, nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListEvents returns events ordered by start date. When both bounds are
// given only events whose range falls inside them are returned, via the
// (start_date, end_date) index.
func (s *Store) ListEvents(ctx context.Context, from, to *time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + eventFrom
	var args []any
	if from != nil && to != nil {
		query += ` WHERE e.start_date >= ? AND e.end_date <= ?`
		args = append(args, from.UTC(), to.UTC())
	}
	query += ` ORDER BY e.start_date ASC, e.id ASC`

	events, err := s.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// TodaysEvents returns events starting today in the server's timezone.
func (s *Store) TodaysEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	events, err := s.queryEvents(ctx, `SELECT `+eventColumns+eventFrom+`
        WHERE e.start_date >= ? AND e.start_date <= ? ORDER BY e.start_date ASC, e.id ASC`,
		start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("todays events: %w", err)
	}
	return events, nil
}

// UpcomingEvents returns events starting within the next seven days.
func (s *Store) UpcomingEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	events, err := s.queryEvents(ctx, `SELECT `+eventColumns+eventFrom+`
        WHERE e.start_date >= ? AND e.start_date <= ? ORDER BY e.start_date ASC, e.id ASC`,
		now.UTC(), now.Add(7*24*time.Hour).UTC())
	if err != nil {
		return nil, fmt.Errorf("upcoming events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves an event by id.
func (s *Store) GetEvent(ctx context.Context, id int64) (models.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+eventFrom+` WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fmt.Errorf("event not found")
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// CreateEvent persists a new calendar entry. A missing color is filled
// from the palette so every event renders distinctly.
func (s *Store) CreateEvent(ctx context.Context, e models.Event) (models.Event, error) {
	if strings.TrimSpace(e.Title) == "" {
		return models.Event{}, fmt.Errorf("event title must not be empty")
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return models.Event{}, fmt.Errorf("event start and end dates are required")
	}
	if e.Category == "" {
		e.Category = "task"
	}
	if _, ok := models.ValidEventCategories[e.Category]; !ok {
		return models.Event{}, fmt.Errorf("invalid event category %q", e.Category)
	}
	if e.Status != "" {
		if _, ok := models.ValidEventStatuses[e.Status]; !ok {
			return models.Event{}, fmt.Errorf("invalid event status %q", e.Status)
		}
	}
	if e.Color == "" {
		e.Color = randomPaletteColor()
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO events(title, description, start_date, end_date, category, color, assignee, status, recurring, created_by)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(e.Title), strings.TrimSpace(e.Description), e.StartDate.UTC(), e.EndDate.UTC(),
		e.Category, e.Color, e.Assignee, e.Status, e.Recurring, nullableID(e.CreatedBy))
	if err != nil {
		return models.Event{}, fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Event{}, fmt.Errorf("event id: %w", err)
	}

	created, err := s.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	s.notify("events", bus.ActionCreated, id)
	return created, nil
}

// UpdateEvent applies a partial patch and bumps updated_at.
func (s *Store) UpdateEvent(ctx context.Context, id int64, patch EventPatch) (models.Event, error) {
	current, err := s.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		current.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		current.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.StartDate != nil {
		current.StartDate = patch.StartDate.UTC()
	}
	if patch.EndDate != nil {
		current.EndDate = patch.EndDate.UTC()
	}
	if patch.Category != nil {
		if _, ok := models.ValidEventCategories[*patch.Category]; !ok {
			return models.Event{}, fmt.Errorf("invalid event category %q", *patch.Category)
		}
		current.Category = *patch.Category
	}
	if patch.Color != nil {
		current.Color = *patch.Color
	}
	if patch.Assignee != nil {
		current.Assignee = *patch.Assignee
	}
	if patch.Status != nil {
		if _, ok := models.ValidEventStatuses[*patch.Status]; !ok {
			return models.Event{}, fmt.Errorf("invalid event status %q", *patch.Status)
		}
		current.Status = *patch.Status
	}
	if patch.Recurring != nil {
		current.Recurring = *patch.Recurring
	}

	_, err = s.db.ExecContext(ctx, `UPDATE events SET title = ?, description = ?, start_date = ?, end_date = ?, category = ?, color = ?, assignee = ?, status = ?, recurring = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Title, current.Description, current.StartDate.UTC(), current.EndDate.UTC(),
		current.Category, current.Color, current.Assignee, current.Status, current.Recurring, id)
	if err != nil {
		return models.Event{}, fmt.Errorf("update event: %w", err)
	}

	updated, err := s.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}
	s.notify("events", bus.ActionUpdated, id)
	return updated, nil
}

// DeleteEvent removes an event by id.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("event not found")
	}
	s.notify("events", bus.ActionDeleted, id)
	return nil
}
