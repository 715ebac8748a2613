// Package capnode hosts one capability handler as a standalone HTTP node.
// It speaks the invoke envelope the coordinator's HTTP invoker posts, so a
// capability can move out of the coordinator's process by switching its
// registry target from local to http.
package capnode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/node"
	"github.com/danmuck/loomctl/internal/observability"
	"github.com/danmuck/loomctl/internal/protocol"
)

// Host serves one capability handler over HTTP.
type Host struct {
	ID   string
	Addr string

	handler  capability.Handler
	router   *gin.Engine
	basePath string
	appeared time.Time
}

var _ node.Node = (*Host)(nil)

func (h *Host) NodeID() string          { return h.ID }
func (h *Host) Kind() string            { return "capability" }
func (h *Host) HTTPRouter() *gin.Engine { return h.router }

// Appear builds a standalone host for the handler with the standard
// middleware stack.
func Appear(id, addr string, handler capability.Handler, corsOrigins []string) (*Host, error) {
	if handler == nil {
		return nil, capability.ErrHandlerNil
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	return &Host{
		ID:       id,
		Addr:     addr,
		handler:  handler,
		router:   r,
		appeared: time.Now(),
	}, nil
}

// Attach mounts the host on an existing router under basePath. It does not
// register routes; callers do that explicitly via RegisterRoutes.
func Attach(id string, router *gin.Engine, basePath string, handler capability.Handler) (*Host, error) {
	if handler == nil {
		return nil, capability.ErrHandlerNil
	}
	return &Host{
		ID:       id,
		handler:  handler,
		router:   router,
		basePath: basePath,
		appeared: time.Now(),
	}, nil
}

// RegisterRoutes mounts the host's endpoints on its router.
func (h *Host) RegisterRoutes() {
	r := h.routes()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"uptime":     time.Since(h.appeared).String(),
			"component":  "capability-host",
			"capability": h.handler.Name(),
			"version":    "0.0.1",
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":      true,
			"uptime":     time.Since(h.appeared).String(),
			"component":  "capability-host",
			"capability": h.handler.Name(),
			"version":    "0.0.1",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/capability", h.handleDescribe)
	r.POST("/invoke", h.handleInvoke)
}

func (h *Host) routes() gin.IRoutes {
	if h.basePath == "" {
		return h.router
	}
	return h.router.Group(h.basePath)
}

func (h *Host) handleDescribe(c *gin.Context) {
	c.JSON(http.StatusOK, h.handler.Describe())
}

// handleInvoke runs one step. Every reply is a valid invoke envelope; the
// HTTP status mirrors the envelope so plain clients can classify too.
func (h *Host) handleInvoke(c *gin.Context) {
	var req protocol.InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.InvokeResponse{
			Status: protocol.StatusPermanentError,
			Error:  "malformed invoke request: " + err.Error(),
		})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, protocol.InvokeResponse{
			Status: protocol.StatusPermanentError,
			Error:  err.Error(),
		})
		return
	}
	if req.Capability != h.handler.Name() {
		c.JSON(http.StatusBadRequest, protocol.InvokeResponse{
			Status: protocol.StatusPermanentError,
			Error:  fmt.Sprintf("this node hosts %q, not %q", h.handler.Name(), req.Capability),
		})
		return
	}

	out, err := h.handler.Invoke(c.Request.Context(), req)
	if err != nil {
		status, code := protocol.StatusPermanentError, http.StatusUnprocessableEntity
		if recoverable(err) {
			status, code = protocol.StatusTransientError, http.StatusServiceUnavailable
		}
		log.Warn().
			Str("capability", h.handler.Name()).
			Str("run_id", req.RunID).
			Int("step", req.StepIndex).
			Err(err).
			Msg("invoke_failed")
		c.JSON(code, protocol.InvokeResponse{Status: status, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, protocol.InvokeResponse{Status: protocol.StatusOK, Payload: out})
}

// recoverable classifies handler errors the same way the in-process invoker
// does, so a capability behaves identically local or remote.
func recoverable(err error) bool {
	return errors.Is(err, capability.ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (h *Host) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return h.Serve(ctx)
}

// Serve registers routes and listens on h.Addr until ctx is done or the
// listener fails.
func (h *Host) Serve(ctx context.Context) error {
	h.RegisterRoutes()

	srv := &http.Server{
		Addr:    h.Addr,
		Handler: h.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("node", h.ID).
			Str("addr", h.Addr).
			Str("capability", h.handler.Name()).
			Msg("capability_listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Str("node", h.ID).Msg("capability_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("capability host shutdown: %w", err)
	}
	return <-errCh
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
