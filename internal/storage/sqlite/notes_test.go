package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"missionctl/internal/models"
)

func TestCreateNoteValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNote(ctx, models.Note{Title: "", Content: "body"})
	assert.Error(t, err)
	_, err = s.CreateNote(ctx, models.Note{Title: "title", Content: "  "})
	assert.Error(t, err)
}

func TestSearchNotesBlankQueryReturnsAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateNote(ctx, models.Note{Title: "a", Content: "satellite uplink procedure"})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, models.Note{Title: "b", Content: "coffee machine manual"})
	require.NoError(t, err)

	for _, q := range []string{"", "   "} {
		notes, err := s.SearchNotes(ctx, q)
		require.NoError(t, err)
		assert.Len(t, notes, 2)
	}
}

func TestSearchNotesMatchesContent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	hit, err := s.CreateNote(ctx, models.Note{Title: "ops", Content: "How to deploy the uplink"})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, models.Note{Title: "misc", Content: "Lunch rotation schedule"})
	require.NoError(t, err)

	notes, err := s.SearchNotes(ctx, "deploy")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, hit.ID, notes[0].ID)

	// Edits are picked up by the index.
	_, err = s.UpdateNote(ctx, hit.ID, NotePatch{Content: strPtr("How to retire the uplink")})
	require.NoError(t, err)
	notes, err = s.SearchNotes(ctx, "deploy")
	require.NoError(t, err)
	assert.Empty(t, notes)
	notes, err = s.SearchNotes(ctx, "retire")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	// Deletions drop out of the index.
	require.NoError(t, s.DeleteNote(ctx, hit.ID))
	notes, err = s.SearchNotes(ctx, "retire")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestTagCountsWithDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, tags := range [][]string{{"a", "b"}, {"a"}, {"b", "b"}} {
		_, err := s.CreateNote(ctx, models.Note{Title: "n", Content: "c", Tags: tags})
		require.NoError(t, err)
	}

	counts, err := s.TagCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, models.TagCount{Tag: "b", Count: 3}, counts[0])
	assert.Equal(t, models.TagCount{Tag: "a", Count: 2}, counts[1])
}

func TestNotesByTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tagged, err := s.CreateNote(ctx, models.Note{Title: "n1", Content: "c", Tags: []string{"ops", "infra"}})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, models.Note{Title: "n2", Content: "c", Tags: []string{"infra"}})
	require.NoError(t, err)

	notes, err := s.NotesByTag(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, tagged.ID, notes[0].ID)

	notes, err = s.NotesByTag(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestUpdateNotePartialPatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, models.Note{Title: "t", Content: "body", Tags: []string{"x"}})
	require.NoError(t, err)

	updated, err := s.UpdateNote(ctx, note.ID, NotePatch{Title: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "body", updated.Content)
	assert.Equal(t, []string{"x"}, updated.Tags)
}

func TestNoteCreatorNullSafeAfterMemberDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	member, err := s.CreateMember(ctx, models.Member{Name: "Zak", Email: "zak@example.com"})
	require.NoError(t, err)

	note, err := s.CreateNote(ctx, models.Note{Title: "t", Content: "c", CreatedBy: &member.ID})
	require.NoError(t, err)

	got, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Creator)
	assert.Equal(t, "Zak", got.Creator.Name)

	// A dangling reference resolves to nil, never an error.
	require.NoError(t, s.DeleteMember(ctx, member.ID))
	got, err = s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Creator)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, member.ID, *got.CreatedBy)
}
