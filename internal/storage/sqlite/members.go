package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"missionctl/internal/bus"
	"missionctl/internal/models"
)

// MemberPatch carries a partial profile update; nil fields stay untouched.
type MemberPatch struct {
	Name   *string
	Role   *string
	Bio    *string
	Avatar *string
}

// DeskPatch carries a partial desk-position update used by the upsert.
type DeskPatch struct {
	DeskNumber      *int64
	X               *float64
	Y               *float64
	CurrentActivity *string
	CurrentTask     *string
}

// memberRow scans a possibly-absent member out of a LEFT JOIN. Creator and
// assignee references may dangle after a member is deleted; the dashboard
// gets a nil member instead of an error in that case.
type memberRow struct {
	id         sql.NullInt64
	name       sql.NullString
	email      sql.NullString
	avatar     sql.NullString
	role       sql.NullString
	status     sql.NullString
	bio        sql.NullString
	lastActive sql.NullTime
	joinedAt   sql.NullTime
}

func (r memberRow) member() *models.Member {
	if !r.id.Valid {
		return nil
	}
	return &models.Member{
		ID:         r.id.Int64,
		Name:       r.name.String,
		Email:      r.email.String,
		Avatar:     r.avatar.String,
		Role:       r.role.String,
		Status:     r.status.String,
		Bio:        r.bio.String,
		LastActive: r.lastActive.Time,
		JoinedAt:   r.joinedAt.Time,
	}
}

const memberColumns = `id, name, email, avatar, role, status, bio, last_active, joined_at`

func scanMember(row interface{ Scan(...any) error }) (models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Avatar, &m.Role, &m.Status, &m.Bio, &m.LastActive, &m.JoinedAt)
	return m, err
}

// ListMembers returns the roster with each member's metrics attached.
func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT m.id, m.name, m.email, m.avatar, m.role, m.status, m.bio, m.last_active, m.joined_at,
        mm.tasks_completed, mm.content_created, mm.weekly_goal, mm.last_updated
        FROM members m LEFT JOIN member_metrics mm ON mm.member_id = m.id
        ORDER BY m.joined_at ASC, m.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		var tasksDone, contentMade, goal sql.NullInt64
		var updated sql.NullTime
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Avatar, &m.Role, &m.Status, &m.Bio, &m.LastActive, &m.JoinedAt,
			&tasksDone, &contentMade, &goal, &updated); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if tasksDone.Valid {
			m.Metrics = &models.Metrics{
				MemberID:       m.ID,
				TasksCompleted: tasksDone.Int64,
				ContentCreated: contentMade.Int64,
				WeeklyGoal:     goal.Int64,
				LastUpdated:    updated.Time,
			}
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetMember retrieves a member by id.
func (s *Store) GetMember(ctx context.Context, id int64) (models.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, fmt.Errorf("member not found")
	}
	if err != nil {
		return models.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// CreateMember adds a member to the roster offline, seeding their metrics
// row with the default weekly goal.
func (s *Store) CreateMember(ctx context.Context, m models.Member) (models.Member, error) {
	if strings.TrimSpace(m.Name) == "" {
		return models.Member{}, fmt.Errorf("member name must not be empty")
	}
	if strings.TrimSpace(m.Email) == "" {
		return models.Member{}, fmt.Errorf("member email must not be empty")
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO members(name, email, avatar, role, bio) VALUES(?, ?, ?, ?, ?)`,
		strings.TrimSpace(m.Name), strings.TrimSpace(m.Email), m.Avatar, m.Role, m.Bio)
	if err != nil {
		return models.Member{}, fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Member{}, fmt.Errorf("member id: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `INSERT INTO member_metrics(member_id) VALUES(?)`, id); err != nil {
		return models.Member{}, fmt.Errorf("insert member metrics: %w", err)
	}

	created, err := s.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	s.notify("members", bus.ActionCreated, id)
	return created, nil
}

// UpdateMember applies a partial profile patch.
func (s *Store) UpdateMember(ctx context.Context, id int64, patch MemberPatch) (models.Member, error) {
	current, err := s.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		current.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Role != nil {
		current.Role = *patch.Role
	}
	if patch.Bio != nil {
		current.Bio = *patch.Bio
	}
	if patch.Avatar != nil {
		current.Avatar = *patch.Avatar
	}

	_, err = s.db.ExecContext(ctx, `UPDATE members SET name = ?, role = ?, bio = ?, avatar = ? WHERE id = ?`,
		current.Name, current.Role, current.Bio, current.Avatar, id)
	if err != nil {
		return models.Member{}, fmt.Errorf("update member: %w", err)
	}

	updated, err := s.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	s.notify("members", bus.ActionUpdated, id)
	return updated, nil
}

// UpdateMemberStatus sets presence and refreshes last_active.
func (s *Store) UpdateMemberStatus(ctx context.Context, id int64, status string) (models.Member, error) {
	if _, ok := models.ValidMemberStatuses[status]; !ok {
		return models.Member{}, fmt.Errorf("invalid member status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE members SET status = ?, last_active = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return models.Member{}, fmt.Errorf("update member status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Member{}, err
	}
	if affected == 0 {
		return models.Member{}, fmt.Errorf("member not found")
	}

	updated, err := s.GetMember(ctx, id)
	if err != nil {
		return models.Member{}, err
	}
	s.notify("members", bus.ActionUpdated, id)
	return updated, nil
}

// DeleteMember removes a roster entry. Metrics, desk positions, and
// activity logs are left in place; reads resolve the missing member to nil.
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("member not found")
	}
	s.notify("members", bus.ActionDeleted, id)
	return nil
}

// DeskPositions returns the virtual office layout with occupants resolved
// where they still exist.
func (s *Store) DeskPositions(ctx context.Context) ([]models.DeskPosition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.member_id, d.desk_number, d.x, d.y, d.current_activity, d.current_task, d.last_activity_update,
        m.id, m.name, m.email, m.avatar, m.role, m.status, m.bio, m.last_active, m.joined_at
        FROM desk_positions d LEFT JOIN members m ON m.id = d.member_id
        ORDER BY d.desk_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("list desk positions: %w", err)
	}
	defer rows.Close()

	var positions []models.DeskPosition
	for rows.Next() {
		var p models.DeskPosition
		var occupant memberRow
		if err := rows.Scan(&p.MemberID, &p.DeskNumber, &p.X, &p.Y, &p.CurrentActivity, &p.CurrentTask, &p.LastActivityUpdate,
			&occupant.id, &occupant.name, &occupant.email, &occupant.avatar, &occupant.role,
			&occupant.status, &occupant.bio, &occupant.lastActive, &occupant.joinedAt); err != nil {
			return nil, fmt.Errorf("scan desk position: %w", err)
		}
		p.Member = occupant.member()
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// UpsertDeskPosition creates or patches a member's desk. New desks get the
// default slot (desk 1 at 100,100, idle) for any field the patch omits.
func (s *Store) UpsertDeskPosition(ctx context.Context, memberID int64, patch DeskPatch) (models.DeskPosition, error) {
	var existing models.DeskPosition
	err := s.db.QueryRowContext(ctx, `SELECT member_id, desk_number, x, y, current_activity, current_task, last_activity_update
        FROM desk_positions WHERE member_id = ?`, memberID).
		Scan(&existing.MemberID, &existing.DeskNumber, &existing.X, &existing.Y,
			&existing.CurrentActivity, &existing.CurrentTask, &existing.LastActivityUpdate)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		existing = models.DeskPosition{MemberID: memberID, DeskNumber: 1, X: 100, Y: 100, CurrentActivity: "idle"}
	case err != nil:
		return models.DeskPosition{}, fmt.Errorf("get desk position: %w", err)
	}

	if patch.DeskNumber != nil {
		existing.DeskNumber = *patch.DeskNumber
	}
	if patch.X != nil {
		existing.X = *patch.X
	}
	if patch.Y != nil {
		existing.Y = *patch.Y
	}
	if patch.CurrentActivity != nil {
		existing.CurrentActivity = *patch.CurrentActivity
	}
	if patch.CurrentTask != nil {
		existing.CurrentTask = *patch.CurrentTask
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO desk_positions(member_id, desk_number, x, y, current_activity, current_task, last_activity_update)
        VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(member_id) DO UPDATE SET desk_number = excluded.desk_number, x = excluded.x, y = excluded.y,
            current_activity = excluded.current_activity, current_task = excluded.current_task,
            last_activity_update = CURRENT_TIMESTAMP`,
		memberID, existing.DeskNumber, existing.X, existing.Y, existing.CurrentActivity, existing.CurrentTask)
	if err != nil {
		return models.DeskPosition{}, fmt.Errorf("upsert desk position: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT member_id, desk_number, x, y, current_activity, current_task, last_activity_update
        FROM desk_positions WHERE member_id = ?`, memberID).
		Scan(&existing.MemberID, &existing.DeskNumber, &existing.X, &existing.Y,
			&existing.CurrentActivity, &existing.CurrentTask, &existing.LastActivityUpdate)
	if err != nil {
		return models.DeskPosition{}, fmt.Errorf("get desk position: %w", err)
	}
	s.notify("positions", bus.ActionUpdated, memberID)
	return existing, nil
}

// LogActivity appends an office activity entry for a member.
func (s *Store) LogActivity(ctx context.Context, memberID int64, activity, description string) (models.ActivityLog, error) {
	if strings.TrimSpace(activity) == "" {
		return models.ActivityLog{}, fmt.Errorf("activity must not be empty")
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO activity_logs(member_id, activity, description) VALUES(?, ?, ?)`,
		memberID, activity, description)
	if err != nil {
		return models.ActivityLog{}, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.ActivityLog{}, fmt.Errorf("activity id: %w", err)
	}

	var entry models.ActivityLog
	err = s.db.QueryRowContext(ctx, `SELECT id, member_id, activity, description, timestamp FROM activity_logs WHERE id = ?`, id).
		Scan(&entry.ID, &entry.MemberID, &entry.Activity, &entry.Description, &entry.Timestamp)
	if err != nil {
		return models.ActivityLog{}, fmt.Errorf("get activity: %w", err)
	}
	s.notify("activity", bus.ActionCreated, id)
	return entry, nil
}

// MemberActivity returns a member's recent activity, newest first.
func (s *Store) MemberActivity(ctx context.Context, memberID int64, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, member_id, activity, description, timestamp
        FROM activity_logs WHERE member_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.MemberID, &entry.Activity, &entry.Description, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
