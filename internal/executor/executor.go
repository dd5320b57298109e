package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
	"golang.org/x/sync/errgroup"
)

// ErrDoubleActivation is returned when an item is notified more often than
// its activation limit allows within one block.
var ErrDoubleActivation = errors.New("item activated twice in one block")

// Processor runs the DSP computation of one synth.
type Processor interface {
	Process(ctx context.Context, synth *nodetree.Node) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, synth *nodetree.Node) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, synth *nodetree.Node) error {
	return f(ctx, synth)
}

// BlockStats describes one processed block.
type BlockStats struct {
	Items    int
	Synths   int
	Duration time.Duration
}

type workerKey struct{}

// WorkerID returns the id of the worker running the processor that received
// ctx. Members of one item always see the same id.
func WorkerID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerKey{}).(int)
	return id, ok
}

// Executor runs a graph on a fixed number of workers. SetGraph and RunBlock
// must not be called concurrently.
type Executor struct {
	numWorkers int
	proc       Processor

	graph    *workgraph.Graph
	counters []atomic.Int32
	ready    chan workgraph.ItemID
}

// New creates an executor with numWorkers workers. A non-positive count
// uses GOMAXPROCS.
func New(numWorkers int, proc Processor) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &Executor{numWorkers: numWorkers, proc: proc}
}

// Workers is the number of workers used per block.
func (e *Executor) Workers() int { return e.numWorkers }

// SetProcessor replaces the processor used by subsequent blocks.
func (e *Executor) SetProcessor(proc Processor) { e.proc = proc }

// SetGraph installs the graph replayed by subsequent blocks. The graph is
// verified first, so a graph accepted here cannot stall or double-activate.
func (e *Executor) SetGraph(g *workgraph.Graph) error {
	if err := workgraph.Check(g); err != nil {
		return err
	}
	e.graph = g
	e.counters = make([]atomic.Int32, g.Len())
	e.ready = make(chan workgraph.ItemID, g.Len())
	return nil
}

// Graph returns the installed graph, or nil.
func (e *Executor) Graph() *workgraph.Graph { return e.graph }

// RunBlock processes every item of the installed graph exactly once.
func (e *Executor) RunBlock(ctx context.Context) (BlockStats, error) {
	start := time.Now()
	g := e.graph
	if g == nil || g.Empty() {
		return BlockStats{Duration: time.Since(start)}, nil
	}

	// A previous block that failed may have left items queued.
	for len(e.ready) > 0 {
		<-e.ready
	}
	for i := range g.Items {
		e.counters[i].Store(g.Items[i].ActivationLimit)
	}

	var remaining atomic.Int32
	remaining.Store(int32(g.Len()))
	done := make(chan struct{})

	for _, id := range g.Runnable {
		e.ready <- id
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for w := 0; w < e.numWorkers; w++ {
		eg.Go(func() error {
			return e.worker(egCtx, w, g, &remaining, done)
		})
	}
	if err := eg.Wait(); err != nil {
		return BlockStats{}, err
	}

	return BlockStats{Items: g.Len(), Synths: g.SynthCount(), Duration: time.Since(start)}, nil
}

// worker is the processing loop for a single worker during one block.
func (e *Executor) worker(ctx context.Context, workerID int, g *workgraph.Graph, remaining *atomic.Int32, done chan struct{}) error {
	ctx = context.WithValue(ctx, workerKey{}, workerID)
	logger := ctxlog.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			return nil
		case id := <-e.ready:
			if err := ctx.Err(); err != nil {
				return err
			}
			it := g.Item(id)
			for _, m := range it.Members {
				if err := e.proc.Process(ctx, m); err != nil {
					logger.Error("Synth processing failed.", "workerID", workerID, "item", id, "synth", m.ID, "error", err)
					return fmt.Errorf("item %d, synth %d (%s): %w", id, m.ID, m.Name, err)
				}
			}

			for _, s := range it.Successors {
				switch c := e.counters[s].Add(-1); {
				case c == 0:
					e.ready <- s
				case c < 0:
					return fmt.Errorf("%w: item %d notified by item %d", ErrDoubleActivation, s, id)
				}
			}

			if remaining.Add(-1) == 0 {
				close(done)
			}
		}
	}
}
