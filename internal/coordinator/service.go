package coordinator

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
	"github.com/rs/zerolog/log"

	"github.com/danmuck/loomctl/internal/capability"
	"github.com/danmuck/loomctl/internal/config"
	"github.com/danmuck/loomctl/internal/invoke"
	"github.com/danmuck/loomctl/internal/llm"
	"github.com/danmuck/loomctl/internal/node"
	"github.com/danmuck/loomctl/internal/observability"
	"github.com/danmuck/loomctl/internal/oracle"
	"github.com/danmuck/loomctl/internal/pipeline"
	"github.com/danmuck/loomctl/internal/plan"
	"github.com/danmuck/loomctl/internal/registry"
)

// ServiceConfig carries everything the coordinator needs to come up.
type ServiceConfig struct {
	CoordinatorID string
	ListenAddr    string
	CorsOrigins   []string
	APIToken      string
	RegistryPath  string

	Model  llm.ModelConfig
	Policy pipeline.Policy

	MaxPlanSteps    int
	ReplanOnInvalid bool
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		CoordinatorID:   "loom.local",
		ListenAddr:      ":7700",
		Policy:          pipeline.DefaultPolicy(),
		MaxPlanSteps:    plan.DefaultMaxSteps,
		ReplanOnInvalid: true,
	}
}

// Service is the coordinator HTTP node.
type Service struct {
	ID   string
	Addr string

	cfg      ServiceConfig
	coord    *Coordinator
	registry *registry.Registry
	router   *gin.Engine
	basePath string
	appeared time.Time
}

var _ node.Node = (*Service)(nil)

func (s *Service) NodeID() string          { return s.ID }
func (s *Service) Kind() string            { return "coordinator" }
func (s *Service) HTTPRouter() *gin.Engine { return s.router }

// NewServiceWithConfig builds the full coordinator stack, including the chat
// model behind the planning oracle. Configuration problems surface here,
// before the service ever listens.
func NewServiceWithConfig(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	gen, err := llm.NewGenerator(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	s, err := newService(cfg, gen)
	if err != nil {
		return nil, err
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(s.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	s.router = r
	return s, nil
}

// NewWithConfig builds the coordinator without the HTTP surface, for
// one-shot CLI runs. The same fail-fast rules apply.
func NewWithConfig(ctx context.Context, cfg ServiceConfig) (*Coordinator, *registry.Registry, error) {
	gen, err := llm.NewGenerator(ctx, cfg.Model)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MaxPlanSteps <= 0 {
		cfg.MaxPlanSteps = plan.DefaultMaxSteps
	}
	return buildStack(cfg, gen)
}

// Attach mounts the coordinator on an existing router under basePath with an
// injected generator. It does not register routes; callers do that explicitly
// via RegisterRoutes.
func Attach(cfg ServiceConfig, router *gin.Engine, basePath string, gen llm.Generator) (*Service, error) {
	s, err := newService(cfg, gen)
	if err != nil {
		return nil, err
	}
	s.router = router
	s.basePath = basePath
	return s, nil
}

func newService(cfg ServiceConfig, gen llm.Generator) (*Service, error) {
	def := DefaultServiceConfig()
	if cfg.CoordinatorID == "" {
		cfg.CoordinatorID = def.CoordinatorID
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if cfg.MaxPlanSteps <= 0 {
		cfg.MaxPlanSteps = def.MaxPlanSteps
	}

	coord, reg, err := buildStack(cfg, gen)
	if err != nil {
		return nil, err
	}
	return &Service{
		ID:       cfg.CoordinatorID,
		Addr:     cfg.ListenAddr,
		cfg:      cfg,
		coord:    coord,
		registry: reg,
		appeared: time.Now(),
	}, nil
}

// buildStack assembles handlers, catalog, dispatcher, executor, validator,
// and planner into a Coordinator.
func buildStack(cfg ServiceConfig, gen llm.Generator) (*Coordinator, *registry.Registry, error) {
	handlers := capability.Builtins(gen)
	capReg := capability.NewRegistry()
	for _, h := range handlers {
		if err := capReg.Register(h); err != nil {
			return nil, nil, err
		}
	}

	catalog, err := resolveCatalog(cfg.RegistryPath, handlers)
	if err != nil {
		return nil, nil, err
	}
	reg, err := registry.New(catalog)
	if err != nil {
		return nil, nil, err
	}

	dispatcher := invoke.NewDispatcher().
		WithInvoker(registry.TargetLocal, invoke.NewLocalInvoker(capReg)).
		WithInvoker(registry.TargetHTTP, invoke.NewHTTPInvoker(nil)).
		WithInvoker(registry.TargetExec, invoke.NewExecInvoker())

	exec := pipeline.NewExecutor(reg, dispatcher, cfg.Policy)
	validator := plan.NewValidator(reg, cfg.MaxPlanSteps)
	planner := oracle.NewLLMPlanner(gen, reg)
	return New(planner, validator, exec, cfg.ReplanOnInvalid), reg, nil
}

func resolveCatalog(path string, handlers []capability.Handler) ([]registry.Capability, error) {
	if path == "" {
		return capability.Catalog(handlers), nil
	}
	file, err := config.LoadRegistryFile(path)
	if err != nil {
		return nil, err
	}
	return config.RegistryCapabilities(file.Capabilities)
}

// ResolveCatalog reports the capability catalog cfg would serve with, without
// building the rest of the stack.
func ResolveCatalog(cfg ServiceConfig) ([]registry.Capability, error) {
	return resolveCatalog(cfg.RegistryPath, capability.Builtins(nil))
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve registers routes and listens on s.Addr until ctx is done or the
// listener fails.
func (s *Service) Serve(ctx context.Context) error {
	s.RegisterRoutes()

	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("node", s.ID).Str("addr", s.Addr).Msg("coordinator_listening")
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

	log.Info().Str("node", s.ID).Msg("coordinator_shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("coordinator shutdown: %w", err)
	}
	return <-errCh
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
