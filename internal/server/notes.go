package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"missionctl/internal/models"
	"missionctl/internal/storage/sqlite"
)

type createNoteRequest struct {
	Title     *string  `json:"title"`
	Content   *string  `json:"content"`
	Tags      []string `json:"tags"`
	CreatedBy *int64   `json:"createdBy"`
}

// patchNoteRequest carries the id in the body, matching the webhook
// contract (PATCH /api/notes with {id, ...partial}).
type patchNoteRequest struct {
	ID      *int64   `json:"id"`
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

// handleListNotes returns every note as a bare JSON array.
func (s *Server) handleListNotes(c *gin.Context) {
	notes, err := s.store.ListNotes(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	respondSuccess(c, http.StatusOK, notes)
}

// handleSearchNotes runs a full-text search; a blank q returns all notes.
func (s *Server) handleSearchNotes(c *gin.Context) {
	notes, err := s.store.SearchNotes(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	respondSuccess(c, http.StatusOK, notes)
}

// handleNotesByTag filters notes by exact tag.
func (s *Server) handleNotesByTag(c *gin.Context) {
	tag := c.Query("tag")
	if tag == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("tag required"))
		return
	}
	notes, err := s.store.NotesByTag(c.Request.Context(), tag)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	respondSuccess(c, http.StatusOK, notes)
}

// handleTagCounts returns tag frequencies across the knowledge base,
// most used first.
func (s *Server) handleTagCounts(c *gin.Context) {
	counts, err := s.store.TagCounts(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if counts == nil {
		counts = []models.TagCount{}
	}
	respondSuccess(c, http.StatusOK, counts)
}

// handleCreateNote creates a note; title and content are mandatory.
func (s *Server) handleCreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" || req.Content == nil || *req.Content == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title and content required"))
		return
	}

	note, err := s.store.CreateNote(c.Request.Context(), models.Note{
		Title:     *req.Title,
		Content:   *req.Content,
		Tags:      req.Tags,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"ok": true, "id": note.ID})
}

// handlePatchNote applies a partial update addressed by body id.
func (s *Server) handlePatchNote(c *gin.Context) {
	var req patchNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.ID == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("id required"))
		return
	}

	_, err := s.store.UpdateNote(c.Request.Context(), *req.ID, sqlite.NotePatch{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"ok": true})
}

// handleDeleteNote removes a note completely.
func (s *Server) handleDeleteNote(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteNote(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
