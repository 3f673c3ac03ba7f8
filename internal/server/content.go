package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"missionctl/internal/models"
	"missionctl/internal/storage/sqlite"
)

type createContentRequest struct {
	Title        *string    `json:"title"`
	Type         *string    `json:"type"`
	Stage        *string    `json:"stage"`
	Description  *string    `json:"description"`
	Script       *string    `json:"script"`
	ThumbnailURL *string    `json:"thumbnailUrl"`
	Tags         []string   `json:"tags"`
	Assignee     *string    `json:"assignee"`
	DueDate      *time.Time `json:"dueDate"`
}

type updateContentRequest struct {
	Title        *string    `json:"title"`
	Type         *string    `json:"type"`
	Description  *string    `json:"description"`
	Script       *string    `json:"script"`
	ThumbnailURL *string    `json:"thumbnailUrl"`
	Tags         []string   `json:"tags"`
	Assignee     *string    `json:"assignee"`
	DueDate      *time.Time `json:"dueDate"`
}

// handleListContent returns the whole production pipeline.
func (s *Server) handleListContent(c *gin.Context) {
	items, err := s.store.ListContent(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": items})
}

// handleContentByStage returns one pipeline column.
func (s *Server) handleContentByStage(c *gin.Context) {
	items, err := s.store.ContentByStage(c.Request.Context(), c.Param("stage"))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": items})
}

// handleOverdueContent returns unpublished items past their due date.
func (s *Server) handleOverdueContent(c *gin.Context) {
	items, err := s.store.OverdueContent(c.Request.Context(), time.Now())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []models.ContentItem{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": items})
}

// handleContentStats returns pipeline totals for the dashboard header.
func (s *Server) handleContentStats(c *gin.Context) {
	stats, err := s.store.ContentStats(c.Request.Context(), time.Now())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// handleCreateContent adds an item to the pipeline; stage defaults to
// idea, type to blog.
func (s *Server) handleCreateContent(c *gin.Context) {
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title required"))
		return
	}

	item, err := s.store.CreateContent(c.Request.Context(), models.ContentItem{
		Title:        *req.Title,
		Type:         getString(req.Type),
		Stage:        getString(req.Stage),
		Description:  getString(req.Description),
		Script:       getString(req.Script),
		ThumbnailURL: getString(req.ThumbnailURL),
		Tags:         req.Tags,
		Assignee:     getString(req.Assignee),
		DueDate:      req.DueDate,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"content": item})
}

// handleUpdateContent applies a partial patch.
func (s *Server) handleUpdateContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	item, err := s.store.UpdateContent(c.Request.Context(), id, sqlite.ContentPatch{
		Title:        req.Title,
		Type:         req.Type,
		Description:  req.Description,
		Script:       req.Script,
		ThumbnailURL: req.ThumbnailURL,
		Tags:         req.Tags,
		Assignee:     req.Assignee,
		DueDate:      req.DueDate,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": item})
}

// handleMoveContent is the pipeline drag-and-drop endpoint.
func (s *Server) handleMoveContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Stage == nil || req.Order == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("stage and order required"))
		return
	}

	item, err := s.store.MoveContent(c.Request.Context(), id, *req.Stage, *req.Order)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"content": item})
}

// handleDeleteContent removes a pipeline item completely.
func (s *Server) handleDeleteContent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteContent(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
