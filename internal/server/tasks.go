package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"missionctl/internal/models"
	"missionctl/internal/storage/sqlite"
)

type createTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Assignee    *string    `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
	Prompt      *string    `json:"prompt"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	Assignee    *string    `json:"assignee"`
	DueDate     *time.Time `json:"dueDate"`
	Prompt      *string    `json:"prompt"`
	AIStatus    *string    `json:"aiStatus"`
	AIResult    *string    `json:"aiResult"`
}

type moveRequest struct {
	Status *string `json:"status"`
	Stage  *string `json:"stage"`
	Order  *int64  `json:"order"`
}

// reportUpdateRequest is the agent runner's completion report.
type reportUpdateRequest struct {
	ID       *int64  `json:"id"`
	AIStatus *string `json:"aiStatus"`
	AIResult *string `json:"aiResult"`
	Status   *string `json:"status"`
}

// handleListTasks returns every task as a bare JSON array, the shape the
// agent runner expects.
func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handlePendingTasks returns the AI work queue for the polling worker.
func (s *Server) handlePendingTasks(c *gin.Context) {
	tasks, err := s.store.ListPendingTasks(c.Request.Context())
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respondSuccess(c, http.StatusOK, tasks)
}

// handleCreateTask creates a task. Omitted status, priority, and assignee
// default to todo/medium/ai so the worker can file tasks for itself with
// just a title.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == nil || *req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("title required"))
		return
	}

	assignee := models.AIAssignee
	if req.Assignee != nil {
		assignee = *req.Assignee
	}

	task, err := s.store.CreateTask(c.Request.Context(), models.Task{
		Title:       *req.Title,
		Description: getString(req.Description),
		Status:      getString(req.Status),
		Priority:    getString(req.Priority),
		Assignee:    assignee,
		DueDate:     req.DueDate,
		Prompt:      getString(req.Prompt),
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"ok": true, "id": task.ID})
}

// handleUpdateTask applies a partial patch; absent keys leave stored
// fields untouched.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	task, err := s.store.UpdateTask(c.Request.Context(), id, sqlite.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Assignee:    req.Assignee,
		DueDate:     req.DueDate,
		Prompt:      req.Prompt,
		AIStatus:    req.AIStatus,
		AIResult:    req.AIResult,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleMoveTask is the drag-and-drop endpoint: one atomic write of the
// destination column and dropped index.
func (s *Server) handleMoveTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Status == nil || req.Order == nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("status and order required"))
		return
	}

	task, err := s.store.MoveTask(c.Request.Context(), id, *req.Status, *req.Order)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteTask(c.Request.Context(), id); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}

// handleReportUpdate lets the agent runner push a claim, progress, or
// completion report. Both id and aiStatus are mandatory; a bad request
// mutates nothing.
func (s *Server) handleReportUpdate(c *gin.Context) {
	var req reportUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.ID == nil || req.AIStatus == nil || *req.AIStatus == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("id and aiStatus required"))
		return
	}

	_, err := s.store.UpdateTask(c.Request.Context(), *req.ID, sqlite.TaskPatch{
		AIStatus: req.AIStatus,
		AIResult: req.AIResult,
		Status:   req.Status,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"ok": true})
}
