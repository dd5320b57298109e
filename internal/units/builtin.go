package units

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
	"time"
)

func registerBuiltins(r *Registry) {
	r.Register("sine", r.newSine)
	r.Register("noise", newNoise)
	r.Register("silence", newSilence)
	r.Register("busy", newBusy)
}

// --- sine ---

type sineParams struct {
	Freq  float64 `cty:"freq"`
	Amp   float64 `cty:"amp"`
	Table float64 `cty:"table"`
}

type sine struct {
	table []float32
	mask  int
	phase float64
	inc   float64
	amp   float32
}

func (r *Registry) newSine(spec Spec) (Unit, error) {
	p := sineParams{}
	if err := decodeParams(spec, map[string]float64{"freq": 440, "amp": 0.1, "table": 2048}, &p); err != nil {
		return nil, err
	}
	size := int(p.Table)
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("sine table size must be a power of two, got %v", p.Table)
	}
	if spec.SampleRate <= 0 {
		return nil, fmt.Errorf("sine needs a positive sample rate, got %v", spec.SampleRate)
	}
	return &sine{
		table: r.wavetable(size),
		mask:  size - 1,
		inc:   p.Freq * float64(size) / spec.SampleRate,
		amp:   float32(p.Amp),
	}, nil
}

// wavetable returns one cycle of a sine of the given size, shared between
// every oscillator using that size.
func (r *Registry) wavetable(size int) []float32 {
	if t, ok := r.tables.Get(size); ok {
		return t
	}
	t := make([]float32, size)
	for i := range t {
		t[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(size)))
	}
	r.tables.Add(size, t)
	return t
}

func (s *sine) Process(out []float32) {
	size := float64(len(s.table))
	for i := range out {
		out[i] = s.amp * s.table[int(s.phase)&s.mask]
		s.phase += s.inc
		if s.phase >= size {
			s.phase -= size
		}
	}
}

// --- noise ---

type noiseParams struct {
	Amp float64 `cty:"amp"`
}

type noise struct {
	rng *rand.Rand
	amp float32
}

func newNoise(spec Spec) (Unit, error) {
	p := noiseParams{}
	if err := decodeParams(spec, map[string]float64{"amp": 0.1}, &p); err != nil {
		return nil, err
	}
	seed := uint64(uint32(spec.SynthID))
	return &noise{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), amp: float32(p.Amp)}, nil
}

func (n *noise) Process(out []float32) {
	for i := range out {
		out[i] = n.amp * (2*n.rng.Float32() - 1)
	}
}

// --- silence ---

type silence struct{}

func newSilence(spec Spec) (Unit, error) {
	if err := decodeParams(spec, nil, nil); err != nil {
		return nil, err
	}
	return silence{}, nil
}

func (silence) Process(out []float32) { clear(out) }

// --- busy ---

type busyParams struct {
	Micros float64 `cty:"micros"`
}

// busy spins for a fixed time per block and outputs silence. Used to put a
// synthetic load on the executor.
type busy struct {
	d time.Duration
}

func newBusy(spec Spec) (Unit, error) {
	p := busyParams{}
	if err := decodeParams(spec, map[string]float64{"micros": 10}, &p); err != nil {
		return nil, err
	}
	if p.Micros < 0 {
		return nil, fmt.Errorf("busy micros must not be negative, got %v", p.Micros)
	}
	return &busy{d: time.Duration(p.Micros * float64(time.Microsecond))}, nil
}

func (b *busy) Process(out []float32) {
	start := time.Now()
	for time.Since(start) < b.d {
	}
	clear(out)
}
