package testutil

import (
	"sync"
	"time"

	"github.com/specialistvlad/dspgrid/internal/units"
)

// ExecutionRecord holds the start and end times of the last block a synth
// ran in, and how many blocks it ran in overall.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
	Count int
}

// Probe is a unit definition named "probe" that sleeps for a fixed time
// and records when each synth using it ran.
type Probe struct {
	mu      sync.Mutex
	records map[int32]*ExecutionRecord
	sleep   time.Duration
}

// NewProbe creates a probe whose synths each take sleep per block.
func NewProbe(sleep time.Duration) *Probe {
	return &Probe{
		records: make(map[int32]*ExecutionRecord),
		sleep:   sleep,
	}
}

// Register adds the "probe" definition to r.
func (p *Probe) Register(r *units.Registry) {
	r.Register("probe", func(spec units.Spec) (units.Unit, error) {
		return &probeUnit{probe: p, id: spec.SynthID}, nil
	})
}

// Registry returns the built-in units plus the probe.
func (p *Probe) Registry() *units.Registry {
	r := units.Builtin()
	p.Register(r)
	return r
}

// Record returns the record of the synth with the given id.
func (p *Probe) Record(id int32) (ExecutionRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.records[id]
	if !ok {
		return ExecutionRecord{}, false
	}
	return *rec, true
}

func (p *Probe) record(id int32, start, end time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.records[id]
	if !ok {
		rec = &ExecutionRecord{}
		p.records[id] = rec
	}
	rec.Start = start
	rec.End = end
	rec.Count++
}

type probeUnit struct {
	probe *Probe
	id    int32
}

func (u *probeUnit) Process(out []float32) {
	start := time.Now()
	time.Sleep(u.probe.sleep)
	clear(out)
	u.probe.record(u.id, start, time.Now())
}
