package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapi/configs"
	"taskapi/internal/delivery/rest"
	"taskapi/internal/delivery/rest/middleware"
)

// Server wraps the gin engine
type Server struct {
	engine     *gin.Engine
	config     configs.ServerConfig
	handler    *rest.Handler
	httpServer *http.Server
	log        *zap.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg configs.ServerConfig, h *rest.Handler, log *zap.Logger) *Server {
	engine := gin.New()

	engine.Use(middleware.Logger(log))
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.CORS())

	s := &Server{
		engine:  engine,
		config:  cfg,
		handler: h,
		log:     log,
	}

	s.registerRoutes(engine, h)

	return s
}

// registerRoutes sets up all API routes. Fixed paths are registered before
// the :id routes so "stats", "overdue" and friends are never captured as
// task IDs.
func (s *Server) registerRoutes(engine *gin.Engine, h *rest.Handler) {
	engine.GET("/health", h.Health)

	tasks := engine.Group("/api/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)

		tasks.GET("/stats", h.GetStatistics)
		tasks.GET("/daily-summary", h.GetDailySummary)
		tasks.GET("/overdue", h.GetOverdueTasks)
		tasks.GET("/due-today", h.GetTasksDueToday)
		tasks.GET("/due-this-week", h.GetTasksDueThisWeek)
		tasks.GET("/due-next-week", h.GetTasksDueNextWeek)
		tasks.GET("/due-this-month", h.GetTasksDueThisMonth)
		tasks.GET("/date-range", h.GetTasksByDateRange)
		tasks.GET("/search/:term", h.SearchTasks)
		tasks.GET("/priority/:priority", h.GetTasksByPriority)
		tasks.GET("/completed/:status", h.GetTasksByCompletion)

		tasks.POST("/bulk/complete", h.BulkComplete)
		tasks.POST("/bulk/delete", h.BulkDelete)
		tasks.DELETE("/bulk/completed", h.DeleteCompleted)

		tasks.GET("/:id", h.GetTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.PATCH("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
		tasks.PATCH("/:id/complete", h.MarkComplete)
		tasks.PATCH("/:id/incomplete", h.MarkIncomplete)
		tasks.PATCH("/:id/priority", h.UpdatePriority)
		tasks.PATCH("/:id/due-date", h.UpdateDueDate)
		tasks.POST("/:id/duplicate", h.DuplicateTask)
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address(),
		Handler: s.engine,
	}

	s.log.Info("starting HTTP server", zap.String("addr", s.config.Address()))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Engine exposes the router for tests
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
