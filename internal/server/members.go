package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"missionctl/internal/models"
	"missionctl/internal/storage/sqlite"
)

type createMemberRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Avatar *string `json:"avatar"`
	Role   *string `json:"role"`
	Bio    *string `json:"bio"`
}

type updateMemberRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

type memberStatusRequest struct {
	Status *string `json:"status"`
}

type deskRequest struct {
	MemberID        *int64   `json:"memberId"`
	DeskNumber      *int64   `json:"deskNumber"`
	X               *float64 `json:"x"`
	Y               *float64 `json:"y"`
	CurrentActivity *string  `json:"currentActivity"`
	CurrentTask     *string  `json:"currentTask"`
}

type activityRequest struct {
	Activity    *string `json:"activity"`
	Description *string `json:"description"`
}

// handleListMembers returns the roster with metrics attached.
func (s *Server) handleListMembers(c *gin.Context) {
	members, err := s.store.ListMembers(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if members == nil {
		members = []models.Member{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"members": members})
}

// handleCreateMember adds a member and seeds their metrics.
func (s *Server) handleCreateMember(c *gin.Context) {
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == nil || *req.Name == "" || req.Email == nil || *req.Email == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("name and email required"))
		return
	}

	member, err := s.store.CreateMember(c.Request.Context(), models.Member{
		Name:   *req.Name,
		Email:  *req.Email,
		Avatar: getString(req.Avatar),
		Role:   getString(req.Role),
		Bio:    getString(req.Bio),
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"member": member})
}

// handleUpdateMember applies a partial profile patch.
func (s *Server) handleUpdateMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	member, err := s.store.UpdateMember(c.Request.Context(), id, sqlite.MemberPatch{
		Name:   req.Name,
		Role:   req.Role,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"member": member})
}

// handleMemberStatus sets presence and refreshes last-active.
func (s *Server) handleMemberStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req memberStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("status required"))
		return
	}

	member, err := s.store.UpdateMemberStatus(c.Request.Context(), id, *req.Status)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"member": member})
}

// handleDeleteMember removes a roster entry; dependent records remain and
// resolve to nil members on read.
func (s *Server) handleDeleteMember(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteMember(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleDeskPositions returns the virtual office layout.
func (s *Server) handleDeskPositions(c *gin.Context) {
	positions, err := s.store.DeskPositions(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if positions == nil {
		positions = []models.DeskPosition{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"positions": positions})
}

// handleUpsertDesk creates or patches a member's desk placement.
func (s *Server) handleUpsertDesk(c *gin.Context) {
	var req deskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.MemberID == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("memberId required"))
		return
	}

	position, err := s.store.UpsertDeskPosition(c.Request.Context(), *req.MemberID, sqlite.DeskPatch{
		DeskNumber:      req.DeskNumber,
		X:               req.X,
		Y:               req.Y,
		CurrentActivity: req.CurrentActivity,
		CurrentTask:     req.CurrentTask,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"position": position})
}

// handleMemberActivity returns recent activity for one member.
func (s *Server) handleMemberActivity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid limit"))
			return
		}
		limit = n
	}

	logs, err := s.store.MemberActivity(c.Request.Context(), id, limit)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}
	respondSuccess(c, http.StatusOK, gin.H{"activity": logs})
}

// handleLogActivity appends an office activity entry.
func (s *Server) handleLogActivity(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Activity == nil || *req.Activity == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("activity required"))
		return
	}

	entry, err := s.store.LogActivity(c.Request.Context(), id, *req.Activity, getString(req.Description))
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"activity": entry})
}
