package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"missionctl/internal/bus"
	"missionctl/internal/storage/sqlite"
)

// Server provides HTTP handlers for the Mission Control backend: the
// dashboard resource API, the agent-runner webhook surface, and the live
// update stream.
type Server struct {
	engine    *gin.Engine
	store     *sqlite.Store
	bus       *bus.Bus
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(store *sqlite.Store, b *bus.Bus, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/api"))

	srv := &Server{
		engine:    router,
		store:     store,
		bus:       b,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together. The routes
// under /api/tasks and /api/notes double as the agent-runner webhook
// surface; their request and response shapes are a fixed external
// contract, deliberately unauthenticated for the out-of-process worker.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.GET("/stream", s.handleStream)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.POST("", s.handleCreateTask)
			tasks.GET("/pending", s.handlePendingTasks)
			tasks.POST("/update", s.handleReportUpdate)
			tasks.PATCH("/:id", s.handleUpdateTask)
			tasks.POST("/:id/move", s.handleMoveTask)
			tasks.DELETE("/:id", s.handleDeleteTask)
		}

		events := api.Group("/events")
		{
			events.GET("", s.handleListEvents)
			events.GET("/today", s.handleTodaysEvents)
			events.GET("/upcoming", s.handleUpcomingEvents)
			events.POST("", s.handleCreateEvent)
			events.PATCH("/:id", s.handleUpdateEvent)
			events.DELETE("/:id", s.handleDeleteEvent)
		}

		notes := api.Group("/notes")
		{
			notes.GET("", s.handleListNotes)
			notes.POST("", s.handleCreateNote)
			notes.PATCH("", s.handlePatchNote)
			notes.GET("/search", s.handleSearchNotes)
			notes.GET("/tags", s.handleTagCounts)
			notes.GET("/bytag", s.handleNotesByTag)
			notes.DELETE("/:id", s.handleDeleteNote)
		}

		content := api.Group("/content")
		{
			content.GET("", s.handleListContent)
			content.GET("/stage/:stage", s.handleContentByStage)
			content.GET("/overdue", s.handleOverdueContent)
			content.GET("/stats", s.handleContentStats)
			content.POST("", s.handleCreateContent)
			content.PATCH("/:id", s.handleUpdateContent)
			content.POST("/:id/move", s.handleMoveContent)
			content.DELETE("/:id", s.handleDeleteContent)
		}

		members := api.Group("/members")
		{
			members.GET("", s.handleListMembers)
			members.POST("", s.handleCreateMember)
			members.PATCH("/:id", s.handleUpdateMember)
			members.POST("/:id/status", s.handleMemberStatus)
			members.DELETE("/:id", s.handleDeleteMember)
			members.GET("/:id/activity", s.handleMemberActivity)
			members.POST("/:id/activity", s.handleLogActivity)
		}

		office := api.Group("/office")
		{
			office.GET("/positions", s.handleDeskPositions)
			office.POST("/positions", s.handleUpsertDesk)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
