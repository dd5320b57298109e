package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/dag"
	"github.com/specialistvlad/dspgrid/internal/executor"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/topology"
	"github.com/specialistvlad/dspgrid/internal/units"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
)

// Config holds the audio settings of an engine.
type Config struct {
	Workers    int
	BlockSize  int
	SampleRate float64
}

// RebuildFunc is notified after every successful SetTree, with the lock
// held. It must not call back into the engine.
type RebuildFunc func(ctx context.Context, root *nodetree.Node, graph *workgraph.Graph)

// Stats summarizes a Process call.
type Stats struct {
	Blocks   int
	Items    int
	Synths   int
	Total    time.Duration
	MaxBlock time.Duration
}

// Engine is safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	registry *units.Registry
	exec     *executor.Executor

	arenas  [2]*workgraph.Arena
	current int

	tree      *nodetree.Node
	graph     *workgraph.Graph
	bank      *units.Bank
	blocks    uint64
	listeners []RebuildFunc
}

// New creates an engine with an empty tree.
func New(cfg Config, registry *units.Registry) *Engine {
	e := &Engine{
		cfg:      cfg,
		registry: registry,
		arenas:   [2]*workgraph.Arena{workgraph.NewArena(0), workgraph.NewArena(0)},
	}
	e.exec = executor.New(cfg.Workers, executor.ProcessorFunc(e.process))
	return e
}

// process forwards to the current bank. Only called while a block runs,
// which holds the lock.
func (e *Engine) process(ctx context.Context, synth *nodetree.Node) error {
	return e.bank.Process(ctx, synth)
}

// OnRebuild registers fn to be called after each successful SetTree.
func (e *Engine) OnRebuild(fn RebuildFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// SetTree replaces the tree. On error the previous tree, graph and bank
// remain installed.
func (e *Engine) SetTree(ctx context.Context, root *nodetree.Node) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("SetTree: Starting topology change.")

	if err := nodetree.Validate(root); err != nil {
		return fmt.Errorf("rejected tree: %w", err)
	}
	bank, err := units.NewBank(e.registry, root, e.cfg.BlockSize, e.cfg.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to instantiate units: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	spare := 1 - e.current
	graph := dag.Build(ctx, root, e.arenas[spare])
	if err := e.exec.SetGraph(graph); err != nil {
		// The executor still holds the previous graph, which lives in the
		// other arena.
		return fmt.Errorf("built an unusable graph: %w", err)
	}

	e.current = spare
	e.tree = root
	e.graph = graph
	e.bank = bank
	logger.Info("Topology installed.", "synths", graph.SynthCount(), "items", graph.Len(), "runnable", len(graph.Runnable))

	for _, fn := range e.listeners {
		fn(ctx, root, graph)
	}
	return nil
}

// Process runs the given number of blocks. The lock is taken per block so
// topology changes can land between blocks.
func (e *Engine) Process(ctx context.Context, blocks int) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Process: Starting.", "blocks", blocks, "workers", e.exec.Workers())

	var stats Stats
	for i := 0; i < blocks; i++ {
		bs, err := e.runBlock(ctx)
		if err != nil {
			return stats, fmt.Errorf("block %d: %w", i, err)
		}
		stats.Blocks++
		stats.Items = bs.Items
		stats.Synths = bs.Synths
		stats.Total += bs.Duration
		stats.MaxBlock = max(stats.MaxBlock, bs.Duration)
	}

	logger.Debug("Process: Finished.", "blocks", stats.Blocks, "total", stats.Total, "max_block", stats.MaxBlock)
	return stats, nil
}

func (e *Engine) runBlock(ctx context.Context) (executor.BlockStats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bank == nil {
		return executor.BlockStats{}, nil
	}
	bs, err := e.exec.RunBlock(ctx)
	if err == nil {
		e.blocks++
	}
	return bs, err
}

// Tree returns the installed tree, or nil.
func (e *Engine) Tree() *nodetree.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tree
}

// Graph returns the installed graph, or nil. It is valid until the second
// SetTree after this call.
func (e *Engine) Graph() *workgraph.Graph {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph
}

// Bank returns the unit bank of the installed tree, or nil.
func (e *Engine) Bank() *units.Bank {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bank
}

// BlocksProcessed counts the blocks completed since the engine was created.
func (e *Engine) BlocksProcessed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blocks
}

// Report describes the installed graph, or returns nil before the first
// SetTree.
func (e *Engine) Report() *topology.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.graph == nil {
		return nil
	}
	return topology.Describe(e.tree, e.graph)
}
