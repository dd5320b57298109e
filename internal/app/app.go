package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/dspgrid/internal/config"
	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/engine"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/topology"
	"github.com/specialistvlad/dspgrid/internal/units"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx      context.Context
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	registry *units.Registry
	engine   *engine.Engine

	publisher  *topology.Publisher
	publishes  sync.WaitGroup
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger. A nil registry
// means the built-in units.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, registry *units.Registry) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if registry == nil {
		registry = units.Builtin()
	}
	logger.Debug("Units registered.", "defs", registry.Defs())

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: registry,
		engine: engine.New(engine.Config{
			Workers:    cfg.Workers,
			BlockSize:  cfg.BlockSize,
			SampleRate: cfg.SampleRate,
		}, registry),
	}

	if cfg.ReportURL != "" {
		p, err := topology.NewPublisher(cfg.ReportURL)
		if err != nil {
			return nil, fmt.Errorf("invalid report URL: %w", err)
		}
		a.publisher = p
		a.engine.OnRebuild(a.publishTopology)
		logger.Debug("Topology publishing enabled.", "url", cfg.ReportURL)
	}

	return a, nil
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// publishTopology sends the new topology in the background. The report is
// built here, while the graph is guaranteed valid.
func (a *App) publishTopology(ctx context.Context, root *nodetree.Node, graph *workgraph.Graph) {
	report := topology.Describe(root, graph)
	ctx = ctxlog.With(ctx, "component", "topology-publisher")
	a.publishes.Add(1)
	go func() {
		defer a.publishes.Done()
		if err := a.publisher.Publish(ctx, report); err != nil {
			ctxlog.FromContext(ctx).Warn("Topology publish failed, continuing without it.", "error", err)
		}
	}()
}
