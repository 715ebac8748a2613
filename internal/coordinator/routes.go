package coordinator

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danmuck/loomctl/internal/auth"
	"github.com/danmuck/loomctl/internal/oracle"
	"github.com/danmuck/loomctl/internal/pipeline"
	"github.com/danmuck/loomctl/internal/plan"
)

// RegisterRoutes mounts the coordinator's endpoints on its router. Callers
// that Attach to a shared router invoke this once wiring is done.
func (s *Service) RegisterRoutes() {
	r := s.routes()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.appeared).String(),
			"component": "coordinator-api",
			"version":   "0.0.1",
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":     true,
			"uptime":    time.Since(s.appeared).String(),
			"component": "coordinator-api",
			"version":   "0.0.1",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.apiRoutes()
	api.POST("/runs", s.handleRun)
	api.GET("/capabilities", s.handleCapabilities)
}

func (s *Service) routes() gin.IRoutes {
	if s.basePath == "" {
		return s.router
	}
	return s.router.Group(s.basePath)
}

// apiRoutes guards the task endpoints with the API token when one is set.
// Health, readiness, and metrics stay open.
func (s *Service) apiRoutes() gin.IRoutes {
	api := s.router.Group(s.basePath)
	if s.cfg.APIToken != "" {
		api.Use(auth.GinMiddleware(auth.StaticToken{Token: s.cfg.APIToken}))
	}
	return api
}

func (s *Service) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}

	res, err := s.coord.Run(c.Request.Context(), req)
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Service) handleCapabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capabilities": s.registry.List()})
}

// respondRunError maps the run error taxonomy onto HTTP statuses. Invalid
// plans are the caller-visible 422; oracle and pipeline failures are 502s
// since the fault sits behind the coordinator.
func respondRunError(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidRunRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "detail": err.Error()})
		return
	}

	var verr *plan.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      "invalid_plan",
			"kind":       verr.Kind,
			"step":       verr.StepIndex,
			"capability": verr.Capability,
			"detail":     verr.Detail,
		})
		return
	}

	if errors.Is(err, oracle.ErrPlanningFailed) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "planning_failed", "detail": err.Error()})
		return
	}

	var perr *pipeline.Error
	if errors.As(err, &perr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":          "pipeline_failed",
			"failed_at_step": perr.FailedStep,
			"capability":     perr.Capability,
			"detail":         perr.Cause.Error(),
			"steps":          perr.Steps,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "detail": err.Error()})
}
