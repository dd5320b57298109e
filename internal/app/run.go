package app

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
)

// Run loads the tree, installs it, and processes the configured number of
// blocks.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if err := a.healthCheckServer(); err != nil {
		return err
	}
	defer a.closeHealthCheckServer()

	root, err := a.loader.Load(ctx, a.config.TreePaths...)
	if err != nil {
		return fmt.Errorf("failed to load tree: %w", err)
	}
	a.logger.Info("Tree loaded.", "synths", root.SynthCount(), "top_level_nodes", root.Len())

	// Publishes started by SetTree finish before the server goes down.
	defer a.publishes.Wait()

	if err := a.engine.SetTree(ctx, root); err != nil {
		return fmt.Errorf("failed to install tree: %w", err)
	}

	if err := a.dump(); err != nil {
		return err
	}

	if a.config.CheckOnly {
		a.logger.Info("✅ Tree and work graph verified, skipping processing.")
		return nil
	}
	if a.config.Blocks == 0 || !root.HasSynths() {
		a.logger.Warn("Nothing to process.", "blocks", a.config.Blocks, "synths", root.SynthCount())
		return nil
	}

	a.logger.Info("🚀 Starting block processing...", "blocks", a.config.Blocks, "block_size", a.config.BlockSize)
	stats, err := a.engine.Process(ctx, a.config.Blocks)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	budget := time.Duration(float64(a.config.BlockSize) / a.config.SampleRate * float64(time.Second))
	avg := stats.Total / time.Duration(stats.Blocks)
	a.logger.Info("🏁 Processing finished.",
		"blocks", stats.Blocks,
		"items", stats.Items,
		"synths", stats.Synths,
		"avg_block", avg,
		"max_block", stats.MaxBlock,
		"block_budget", budget,
	)
	if stats.MaxBlock > budget {
		a.logger.Warn("Slowest block exceeded the real-time budget.", "max_block", stats.MaxBlock, "block_budget", budget)
	}

	bank := a.engine.Bank()
	for _, s := range nodetree.Synths(root) {
		a.logger.Debug("Synth output.", "synth", s.Name, "id", s.ID, "def", s.Def, "peak", bank.Peak(s))
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// dump writes the installed topology to the output in the configured
// format.
func (a *App) dump() error {
	var err error
	switch a.config.Dump {
	case "":
		return nil
	case "hcl":
		err = a.engine.Report().WriteHCL(a.outW)
	case "json":
		err = a.engine.Report().WriteJSON(a.outW)
	}
	if err != nil {
		return fmt.Errorf("failed to dump topology: %w", err)
	}
	return nil
}
