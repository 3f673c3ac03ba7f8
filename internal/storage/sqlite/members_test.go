package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionctl/internal/models"
)

func TestCreateMemberSeedsMetrics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com", Role: "engineer"})
	require.NoError(t, err)
	assert.Equal(t, "offline", member.Status)

	members, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.NotNil(t, members[0].Metrics)
	assert.Equal(t, int64(0), members[0].Metrics.TasksCompleted)
	assert.Equal(t, int64(5), members[0].Metrics.WeeklyGoal)

	_, err = s.CreateMember(ctx, models.Member{Name: "", Email: "x@example.com"})
	assert.Error(t, err)
	_, err = s.CreateMember(ctx, models.Member{Name: "Dup", Email: "ada@example.com"})
	assert.Error(t, err)
}

func TestUpdateMemberStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	updated, err := s.UpdateMemberStatus(ctx, member.ID, "online")
	require.NoError(t, err)
	assert.Equal(t, "online", updated.Status)
	assert.False(t, updated.LastActive.Before(member.LastActive))

	_, err = s.UpdateMemberStatus(ctx, member.ID, "teleporting")
	assert.Error(t, err)
	_, err = s.UpdateMemberStatus(ctx, int64(9999), "online")
	assert.ErrorContains(t, err, "not found")
}

func TestUpdateMemberPartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com", Role: "engineer", Bio: "likes graphs"})
	require.NoError(t, err)

	updated, err := s.UpdateMember(ctx, member.ID, MemberPatch{Role: strPtr("lead")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", updated.Name)
	assert.Equal(t, "lead", updated.Role)
	assert.Equal(t, "likes graphs", updated.Bio)
}

func TestDeskPositionUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	// First write creates the desk with defaults for omitted fields.
	desk, err := s.UpsertDeskPosition(ctx, member.ID, DeskPatch{X: floatPtr(240)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), desk.DeskNumber)
	assert.Equal(t, float64(240), desk.X)
	assert.Equal(t, float64(100), desk.Y)
	assert.Equal(t, "idle", desk.CurrentActivity)

	// Second write patches without resetting prior fields.
	desk, err = s.UpsertDeskPosition(ctx, member.ID, DeskPatch{CurrentActivity: strPtr("typing"), CurrentTask: strPtr("write spec")})
	require.NoError(t, err)
	assert.Equal(t, float64(240), desk.X)
	assert.Equal(t, "typing", desk.CurrentActivity)
	assert.Equal(t, "write spec", desk.CurrentTask)

	positions, err := s.DeskPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.NotNil(t, positions[0].Member)
	assert.Equal(t, "Ada", positions[0].Member.Name)
}

func TestDeleteMemberLeavesDependents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = s.UpsertDeskPosition(ctx, member.ID, DeskPatch{DeskNumber: intPtr(3)})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMember(ctx, member.ID))

	// The desk survives the member; its occupant resolves to nil.
	positions, err := s.DeskPositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(3), positions[0].DeskNumber)
	assert.Nil(t, positions[0].Member)
}

func TestActivityLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = s.LogActivity(ctx, member.ID, "typing", "drafting launch post")
	require.NoError(t, err)
	second, err := s.LogActivity(ctx, member.ID, "thinking", "")
	require.NoError(t, err)
	_, err = s.LogActivity(ctx, member.ID, "", "")
	assert.Error(t, err)

	logs, err := s.MemberActivity(ctx, member.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, second.ID, logs[0].ID)

	logs, err = s.MemberActivity(ctx, member.ID, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
