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

// ContentPatch carries a partial pipeline-item update; nil fields stay
// untouched. Stage changes go through MoveContent.
type ContentPatch struct {
	Title        *string
	Type         *string
	Description  *string
	Script       *string
	ThumbnailURL *string
	Tags         []string
	Assignee     *string
	DueDate      *time.Time
}

const contentColumns = `id, title, type, stage, description, script, thumbnail_url, tags, assignee, position, due_date, created_at, updated_at`

func scanContent(row interface{ Scan(...any) error }) (models.ContentItem, error) {
	var c models.ContentItem
	var rawTags string
	var due sql.NullTime
	err := row.Scan(&c.ID, &c.Title, &c.Type, &c.Stage, &c.Description, &c.Script, &c.ThumbnailURL,
		&rawTags, &c.Assignee, &c.Order, &due, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.ContentItem{}, err
	}
	c.Tags = decodeTags(rawTags)
	if due.Valid {
		d := due.Time
		c.DueDate = &d
	}
	return c, nil
}

func (s *Store) queryContent(ctx context.Context, query string, args ...any) ([]models.ContentItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ContentItem
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// ListContent returns the whole pipeline ordered for board rendering.
func (s *Store) ListContent(ctx context.Context) ([]models.ContentItem, error) {
	items, err := s.queryContent(ctx, `SELECT `+contentColumns+` FROM content ORDER BY stage, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	return items, nil
}

// ContentByStage returns one pipeline column via the stage index.
func (s *Store) ContentByStage(ctx context.Context, stage string) ([]models.ContentItem, error) {
	if _, ok := models.ValidContentStages[stage]; !ok {
		return nil, fmt.Errorf("invalid content stage %q", stage)
	}
	items, err := s.queryContent(ctx, `SELECT `+contentColumns+` FROM content WHERE stage = ? ORDER BY position, id`, stage)
	if err != nil {
		return nil, fmt.Errorf("content by stage: %w", err)
	}
	return items, nil
}

// OverdueContent returns unpublished items whose due date has passed.
func (s *Store) OverdueContent(ctx context.Context, now time.Time) ([]models.ContentItem, error) {
	items, err := s.queryContent(ctx, `SELECT `+contentColumns+` FROM content
        WHERE due_date IS NOT NULL AND due_date < ? AND stage != 'published' ORDER BY due_date ASC, id ASC`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("overdue content: %w", err)
	}
	return items, nil
}

// ContentStats summarizes the pipeline by stage, type, and overdue count.
func (s *Store) ContentStats(ctx context.Context, now time.Time) (models.ContentStats, error) {
	items, err := s.ListContent(ctx)
	if err != nil {
		return models.ContentStats{}, err
	}

	stats := models.ContentStats{
		ByStage: map[string]int{"idea": 0, "draft": 0, "review": 0, "published": 0},
		ByType:  map[string]int{"blog": 0, "tweet": 0, "video": 0, "article": 0, "podcast": 0},
	}
	for _, c := range items {
		stats.Total++
		stats.ByStage[c.Stage]++
		stats.ByType[c.Type]++
		if c.DueDate != nil && c.DueDate.Before(now) && c.Stage != "published" {
			stats.Overdue++
		}
	}
	return stats, nil
}

// GetContent retrieves a pipeline item by id.
func (s *Store) GetContent(ctx context.Context, id int64) (models.ContentItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	c, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ContentItem{}, fmt.Errorf("content not found")
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("get content: %w", err)
	}
	return c, nil
}

// CreateContent inserts a new item at the bottom of its stage column.
func (s *Store) CreateContent(ctx context.Context, c models.ContentItem) (models.ContentItem, error) {
	if strings.TrimSpace(c.Title) == "" {
		return models.ContentItem{}, fmt.Errorf("content title must not be empty")
	}
	if c.Stage == "" {
		c.Stage = "idea"
	}
	if _, ok := models.ValidContentStages[c.Stage]; !ok {
		return models.ContentItem{}, fmt.Errorf("invalid content stage %q", c.Stage)
	}
	if c.Type == "" {
		c.Type = "blog"
	}
	if _, ok := models.ValidContentTypes[c.Type]; !ok {
		return models.ContentItem{}, fmt.Errorf("invalid content type %q", c.Type)
	}

	pos, err := s.nextContentPosition(ctx, c.Stage)
	if err != nil {
		return models.ContentItem{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO content(title, type, stage, description, script, thumbnail_url, tags, assignee, position, due_date)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(c.Title), c.Type, c.Stage, strings.TrimSpace(c.Description), c.Script,
		c.ThumbnailURL, encodeTags(c.Tags), c.Assignee, pos, nullableTime(c.DueDate))
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("content id: %w", err)
	}

	created, err := s.GetContent(ctx, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	s.notify("content", bus.ActionCreated, id)
	return created, nil
}

// UpdateContent applies a partial patch and bumps updated_at.
func (s *Store) UpdateContent(ctx context.Context, id int64, patch ContentPatch) (models.ContentItem, error) {
	current, err := s.GetContent(ctx, id)
	if err != nil {
		return models.ContentItem{}, err
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		current.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Type != nil {
		if _, ok := models.ValidContentTypes[*patch.Type]; !ok {
			return models.ContentItem{}, fmt.Errorf("invalid content type %q", *patch.Type)
		}
		current.Type = *patch.Type
	}
	if patch.Description != nil {
		current.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Script != nil {
		current.Script = *patch.Script
	}
	if patch.ThumbnailURL != nil {
		current.ThumbnailURL = *patch.ThumbnailURL
	}
	if patch.Tags != nil {
		current.Tags = patch.Tags
	}
	if patch.Assignee != nil {
		current.Assignee = *patch.Assignee
	}
	if patch.DueDate != nil {
		d := patch.DueDate.UTC()
		current.DueDate = &d
	}

	_, err = s.db.ExecContext(ctx, `UPDATE content SET title = ?, type = ?, description = ?, script = ?, thumbnail_url = ?, tags = ?, assignee = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		current.Title, current.Type, current.Description, current.Script, current.ThumbnailURL,
		encodeTags(current.Tags), current.Assignee, nullableTime(current.DueDate), id)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("update content: %w", err)
	}

	updated, err := s.GetContent(ctx, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	s.notify("content", bus.ActionUpdated, id)
	return updated, nil
}

// MoveContent sets the stage and manual position in one write, mirroring
// MoveTask: the dropped index is stored as-is, ties resolve by id.
func (s *Store) MoveContent(ctx context.Context, id int64, stage string, order int64) (models.ContentItem, error) {
	if _, ok := models.ValidContentStages[stage]; !ok {
		return models.ContentItem{}, fmt.Errorf("invalid content stage %q", stage)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE content SET stage = ?, position = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		stage, order, id)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("move content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.ContentItem{}, err
	}
	if affected == 0 {
		return models.ContentItem{}, fmt.Errorf("content not found")
	}

	moved, err := s.GetContent(ctx, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	s.notify("content", bus.ActionUpdated, id)
	return moved, nil
}

// DeleteContent removes a pipeline item by id.
func (s *Store) DeleteContent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("content not found")
	}
	s.notify("content", bus.ActionDeleted, id)
	return nil
}

func (s *Store) nextContentPosition(ctx context.Context, stage string) (int64, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM content WHERE stage = ?`, stage).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	return position.Int64 + 1, nil
}
