package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"missionctl/internal/bus"
	"missionctl/internal/models"
)

// NotePatch carries a partial note update; nil fields stay untouched.
type NotePatch struct {
	Title   *string
	Content *string
	Tags    []string
}

const noteColumns = `n.id, n.title, n.content, n.tags, n.created_by, n.created_at, n.updated_at,
        m.id, m.name, m.email, m.avatar, m.role, m.status, m.bio, m.last_active, m.joined_at`

const noteFrom = ` FROM notes n LEFT JOIN members m ON m.id = n.created_by`

func scanNote(row interface{ Scan(...any) error }) (models.Note, error) {
	var n models.Note
	var rawTags string
	var createdBy sql.NullInt64
	var creator memberRow
	err := row.Scan(&n.ID, &n.Title, &n.Content, &rawTags, &createdBy, &n.CreatedAt, &n.UpdatedAt,
		&creator.id, &creator.name, &creator.email, &creator.avatar, &creator.role,
		&creator.status, &creator.bio, &creator.lastActive, &creator.joinedAt)
	if err != nil {
		return models.Note{}, err
	}
	n.Tags = decodeTags(rawTags)
	if createdBy.Valid {
		n.CreatedBy = &createdBy.Int64
	}
	n.Creator = creator.member()
	return n, nil
}

func (s *Store) queryNotes(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ListNotes returns every note, newest first, with creators resolved where
// they still exist.
func (s *Store) ListNotes(ctx context.Context) ([]models.Note, error) {
	notes, err := s.queryNotes(ctx, `SELECT `+noteColumns+noteFrom+` ORDER BY n.created_at DESC, n.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// SearchNotes runs a full-text match over note content. A blank query
// falls back to the full collection rather than an empty result.
func (s *Store) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	if strings.TrimSpace(query) == "" {
		return s.ListNotes(ctx)
	}
	notes, err := s.queryNotes(ctx, `SELECT `+noteColumns+noteFrom+`
        WHERE n.id IN (SELECT docid FROM notes_fts WHERE notes_fts MATCH ?)
        ORDER BY n.created_at DESC, n.id DESC`, query)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return notes, nil
}

// NotesByTag returns notes carrying the exact tag, newest first. Tags live
// in a JSON column, so this filters in memory at dashboard scale.
func (s *Store) NotesByTag(ctx context.Context, tag string) ([]models.Note, error) {
	all, err := s.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	var notes []models.Note
	for _, n := range all {
		for _, t := range n.Tags {
			if t == tag {
				notes = append(notes, n)
				break
			}
		}
	}
	return notes, nil
}

// TagCounts aggregates tag frequency across all notes, counting repeats
// within a single note, sorted by count descending then tag.
func (s *Store) TagCounts(ctx context.Context) ([]models.TagCount, error) {
	all, err := s.ListNotes(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, n := range all {
		for _, t := range n.Tags {
			counts[t]++
		}
	}

	result := make([]models.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, models.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	return result, nil
}

// GetNote retrieves a note by id.
func (s *Store) GetNote(ctx context.Context, id int64) (models.Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+noteFrom+` WHERE n.id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, fmt.Errorf("note not found")
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// CreateNote persists a new note. The FTS index is synced by trigger.
func (s *Store) CreateNote(ctx context.Context, n models.Note) (models.Note, error) {
	if strings.TrimSpace(n.Title) == "" {
		return models.Note{}, fmt.Errorf("note title must not be empty")
	}
	if strings.TrimSpace(n.Content) == "" {
		return models.Note{}, fmt.Errorf("note content must not be empty")
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO notes(title, content, tags, created_by) VALUES(?, ?, ?, ?)`,
		strings.TrimSpace(n.Title), n.Content, encodeTags(n.Tags), nullableID(n.CreatedBy))
	if err != nil {
		return models.Note{}, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Note{}, fmt.Errorf("note id: %w", err)
	}

	created, err := s.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	s.notify("notes", bus.ActionCreated, id)
	return created, nil
}

// UpdateNote applies a partial patch and bumps updated_at.
func (s *Store) UpdateNote(ctx context.Context, id int64, patch NotePatch) (models.Note, error) {
	current, err := s.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}

	title := current.Title
	content := current.Content
	tags := current.Tags
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		content = *patch.Content
	}
	if patch.Tags != nil {
		tags = patch.Tags
	}

	_, err = s.db.ExecContext(ctx, `UPDATE notes SET title = ?, content = ?, tags = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, content, encodeTags(tags), id)
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}

	updated, err := s.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	s.notify("notes", bus.ActionUpdated, id)
	return updated, nil
}

// DeleteNote removes a note by id.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("note not found")
	}
	s.notify("notes", bus.ActionDeleted, id)
	return nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeTags(raw string) []string {
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
