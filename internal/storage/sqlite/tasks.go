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

// TaskPatch carries a partial update. Nil fields are left untouched, so an
// omitted key never clears a stored value.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Assignee    *string
	DueDate     *time.Time
	Prompt      *string
	AIStatus    *string
	AIResult    *string
}

const taskColumns = `id, title, description, status, priority, assignee, position, due_date, prompt, ai_status, ai_result, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var due sql.NullTime
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Assignee,
		&t.Order, &due, &t.Prompt, &t.AIStatus, &t.AIResult, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ListTasks returns every task ordered for board rendering: grouped by
// status, then manual position, with id as the stable tie-break.
func (s *Store) ListTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY status, position, id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListPendingTasks returns the AI work queue: tasks awaiting a worker
// claim. Served by the ai_status index, never a full scan.
func (s *Store) ListPendingTasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE ai_status = 'pending' ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("task not found")
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task at the bottom of its status column.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return models.Task{}, fmt.Errorf("task title must not be empty")
	}
	if t.Status == "" {
		t.Status = "todo"
	}
	if _, ok := models.ValidTaskStatuses[t.Status]; !ok {
		return models.Task{}, fmt.Errorf("invalid task status %q", t.Status)
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	if _, ok := models.ValidPriorities[t.Priority]; !ok {
		return models.Task{}, fmt.Errorf("invalid task priority %q", t.Priority)
	}
	if t.AIStatus != "" {
		if _, ok := models.ValidAIStatuses[t.AIStatus]; !ok {
			return models.Task{}, fmt.Errorf("invalid ai status %q", t.AIStatus)
		}
	}

	pos, err := s.nextTaskPosition(ctx, t.Status)
	if err != nil {
		return models.Task{}, err
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO tasks(title, description, status, priority, assignee, position, due_date, prompt, ai_status, ai_result)
        VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(t.Title), strings.TrimSpace(t.Description), t.Status, t.Priority, t.Assignee,
		pos, nullableTime(t.DueDate), t.Prompt, t.AIStatus, t.AIResult)
	if err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Task{}, fmt.Errorf("task id: %w", err)
	}

	created, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.notify("tasks", bus.ActionCreated, id)
	return created, nil
}

// UpdateTask applies a partial patch. A status change through the patch
// path re-slots the task at the bottom of its new column; drag-and-drop
// goes through MoveTask instead, which honors the dropped index.
func (s *Store) UpdateTask(ctx context.Context, id int64, patch TaskPatch) (models.Task, error) {
	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	next := current
	if patch.Title != nil && strings.TrimSpace(*patch.Title) != "" {
		next.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		if _, ok := models.ValidTaskStatuses[*patch.Status]; !ok {
			return models.Task{}, fmt.Errorf("invalid task status %q", *patch.Status)
		}
		next.Status = *patch.Status
	}
	if patch.Priority != nil {
		if _, ok := models.ValidPriorities[*patch.Priority]; !ok {
			return models.Task{}, fmt.Errorf("invalid task priority %q", *patch.Priority)
		}
		next.Priority = *patch.Priority
	}
	if patch.Assignee != nil {
		next.Assignee = *patch.Assignee
	}
	if patch.DueDate != nil {
		d := patch.DueDate.UTC()
		next.DueDate = &d
	}
	if patch.Prompt != nil {
		next.Prompt = *patch.Prompt
	}
	if patch.AIStatus != nil {
		if _, ok := models.ValidAIStatuses[*patch.AIStatus]; !ok {
			return models.Task{}, fmt.Errorf("invalid ai status %q", *patch.AIStatus)
		}
		next.AIStatus = *patch.AIStatus
	}
	if patch.AIResult != nil {
		next.AIResult = *patch.AIResult
	}

	if next.Status != current.Status {
		pos, err := s.nextTaskPosition(ctx, next.Status)
		if err != nil {
			return models.Task{}, err
		}
		next.Order = pos
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assignee = ?, position = ?, due_date = ?, prompt = ?, ai_status = ?, ai_result = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		next.Title, next.Description, next.Status, next.Priority, next.Assignee, next.Order,
		nullableTime(next.DueDate), next.Prompt, next.AIStatus, next.AIResult, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}

	updated, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.notify("tasks", bus.ActionUpdated, id)
	return updated, nil
}

// MoveTask sets the status column and manual position in one write, using
// the index the card was dropped at. Siblings are never renumbered; reads
// break position ties by id. Dropping an AI-assigned task with a prompt
// into the in-progress column enqueues it for the agent runner.
func (s *Store) MoveTask(ctx context.Context, id int64, status string, order int64) (models.Task, error) {
	if _, ok := models.ValidTaskStatuses[status]; !ok {
		return models.Task{}, fmt.Errorf("invalid task status %q", status)
	}

	current, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}

	aiStatus := current.AIStatus
	if status == "inprogress" && queueable(current) {
		aiStatus = "pending"
	}

	_, err = s.db.ExecContext(ctx, `UPDATE tasks SET status = ?, position = ?, ai_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, order, aiStatus, id)
	if err != nil {
		return models.Task{}, fmt.Errorf("move task: %w", err)
	}

	moved, err := s.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	s.notify("tasks", bus.ActionUpdated, id)
	return moved, nil
}

// queueable reports whether a task enters the AI queue when it reaches the
// in-progress column: assigned to the agent, carrying a prompt, and not
// already claimed or finished. A failed task re-enqueues once the user
// moves it back in.
func queueable(t models.Task) bool {
	if t.Assignee != models.AIAssignee || strings.TrimSpace(t.Prompt) == "" {
		return false
	}
	switch t.AIStatus {
	case "", "idle", "failed":
		return true
	}
	return false
}

// DeleteTask removes a task by id.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("task not found")
	}
	s.notify("tasks", bus.ActionDeleted, id)
	return nil
}

func (s *Store) nextTaskPosition(ctx context.Context, status string) (int64, error) {
	var position sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(position) FROM tasks WHERE status = ?`, status).Scan(&position)
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	return position.Int64 + 1, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
