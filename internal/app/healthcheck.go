package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/engine"
)

// healthHandler reports liveness.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// topologyHandler serves the installed topology as JSON, or as HCL with
// ?format=hcl.
func (a *App) topologyHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Topology endpoint hit.", "remote_addr", r.RemoteAddr, "query", r.URL.RawQuery)

	report := a.engine.Report()
	if report == nil {
		http.Error(w, "no topology installed", http.StatusServiceUnavailable)
		return
	}

	var err error
	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		err = report.WriteJSON(w)
	case "hcl":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = report.WriteHCL(w)
	default:
		http.Error(w, "format must be 'json' or 'hcl'", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Error("Failed to write topology response.", "error", err)
	}
}

// nodeResponse is the body served by the node lookup endpoint.
type nodeResponse struct {
	Position string             `json:"position"`
	Kind     string             `json:"kind"`
	ID       int32              `json:"id"`
	Name     string             `json:"name"`
	Def      string             `json:"def,omitempty"`
	Params   map[string]float64 `json:"params,omitempty"`
	Synths   int                `json:"synths"`
	Item     *int32             `json:"item,omitempty"`
}

// nodeHandler resolves ?path=root.a[0] to the node and the item running it.
func (a *App) nodeHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	path := r.URL.Query().Get("path")
	logger.Debug("Node lookup endpoint hit.", "remote_addr", r.RemoteAddr, "node_path", path)

	loc, err := a.engine.Find(path)
	switch {
	case errors.Is(err, engine.ErrNoTree):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := nodeResponse{
		Position: loc.Address.String(),
		Kind:     loc.Node.Kind().String(),
		ID:       loc.Node.ID,
		Name:     loc.Node.Name,
		Def:      loc.Node.Def,
		Params:   loc.Node.Params,
		Synths:   loc.Node.SynthCount(),
	}
	if loc.Item >= 0 {
		item := int32(loc.Item)
		resp.Item = &item
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to write node response.", "error", err)
	}
}

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("GET /topology", a.topologyHandler)
	mux.HandleFunc("GET /node", a.nodeHandler)
	return mux
}

// healthCheckServer initializes and runs the health check HTTP server.
func (a *App) healthCheckServer() error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Configuring health check server.")
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return nil
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start health check server: %w", err)
	}

	a.httpServer = &http.Server{
		Handler:           a.healthMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Closing health check server...")

	if a.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}

	logger.Debug("Health check server shut down gracefully.")
	return nil
}
