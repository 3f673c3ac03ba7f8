package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"missionctl/internal/models"
	"missionctl/internal/storage/sqlite"
)

type createEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Category    *string    `json:"category"`
	Color       *string    `json:"color"`
	Assignee    *string    `json:"assignee"`
	Status      *string    `json:"status"`
	Recurring   *string    `json:"recurring"`
	CreatedBy   *int64     `json:"createdBy"`
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Category    *string    `json:"category"`
	Color       *string    `json:"color"`
	Assignee    *string    `json:"assignee"`
	Status      *string    `json:"status"`
	Recurring   *string    `json:"recurring"`
}

// handleListEvents returns events, optionally bounded by from/to
// RFC 3339 query parameters.
func (s *Server) handleListEvents(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid from: %w", err))
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid to: %w", err))
			return
		}
		to = &t
	}

	events, err := s.store.ListEvents(c.Request.Context(), from, to)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"events": events})
}

// handleTodaysEvents returns events starting today.
func (s *Server) handleTodaysEvents(c *gin.Context) {
	events, err := s.store.TodaysEvents(c.Request.Context(), time.Now())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"events": events})
}

// handleUpcomingEvents returns events starting in the next seven days.
func (s *Server) handleUpcomingEvents(c *gin.Context) {
	events, err := s.store.UpcomingEvents(c.Request.Context(), time.Now())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"events": events})
}

// handleCreateEvent creates a calendar entry.
func (s *Server) handleCreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title required"))
		return
	}
	if req.StartDate == nil || req.EndDate == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("startDate and endDate required"))
		return
	}

	event, err := s.store.CreateEvent(c.Request.Context(), models.Event{
		Title:       *req.Title,
		Description: getString(req.Description),
		StartDate:   *req.StartDate,
		EndDate:     *req.EndDate,
		Category:    getString(req.Category),
		Color:       getString(req.Color),
		Assignee:    getString(req.Assignee),
		Status:      getString(req.Status),
		Recurring:   getString(req.Recurring),
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"event": event})
}

// handleUpdateEvent applies a partial patch.
func (s *Server) handleUpdateEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	event, err := s.store.UpdateEvent(c.Request.Context(), id, sqlite.EventPatch{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Category:    req.Category,
		Color:       req.Color,
		Assignee:    req.Assignee,
		Status:      req.Status,
		Recurring:   req.Recurring,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"event": event})
}

// handleDeleteEvent removes an event completely.
func (s *Server) handleDeleteEvent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteEvent(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
