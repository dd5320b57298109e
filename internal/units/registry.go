package units

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// ErrUnknownDef is returned when a synth names a definition that is not
	// registered.
	ErrUnknownDef = errors.New("unknown unit definition")
	// ErrUnknownParam is returned when a synth sets a parameter its unit does
	// not accept.
	ErrUnknownParam = errors.New("unknown unit parameter")
)

// wavetableCacheSize bounds the number of distinct wavetable sizes kept.
const wavetableCacheSize = 16

// Unit renders one block of samples.
type Unit interface {
	Process(out []float32)
}

// Spec is everything a factory needs to instantiate a unit for one synth.
type Spec struct {
	SynthID    int32
	Def        string
	Params     map[string]float64
	SampleRate float64
}

// Factory creates a unit from its spec.
type Factory func(spec Spec) (Unit, error)

// Registry holds the unit factories of one application instance.
type Registry struct {
	factories map[string]Factory
	tables    *lru.Cache[int, []float32]
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	tables, err := lru.New[int, []float32](wavetableCacheSize)
	if err != nil {
		panic(fmt.Sprintf("failed to create wavetable cache: %v", err))
	}
	return &Registry{
		factories: make(map[string]Factory),
		tables:    tables,
	}
}

// Builtin creates a registry with every built-in unit registered.
func Builtin() *Registry {
	r := NewRegistry()
	registerBuiltins(r)
	return r
}

// Register adds a factory under name. Registering a name twice panics.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("unit with name '%s' already registered", name))
	}
	slog.Debug("Registering unit.", "name", name)
	r.factories[name] = factory
}

// Defs returns the registered definition names in sorted order.
func (r *Registry) Defs() []string {
	return slices.Sorted(maps.Keys(r.factories))
}

// Has reports whether def is registered.
func (r *Registry) Has(def string) bool {
	_, ok := r.factories[def]
	return ok
}

// New instantiates the unit for a synth.
func (r *Registry) New(synth *nodetree.Node, sampleRate float64) (Unit, error) {
	factory, ok := r.factories[synth.Def]
	if !ok {
		return nil, fmt.Errorf("%w: synth %d (%s) uses %q", ErrUnknownDef, synth.ID, synth.Name, synth.Def)
	}
	u, err := factory(Spec{
		SynthID:    synth.ID,
		Def:        synth.Def,
		Params:     synth.Params,
		SampleRate: sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("synth %d (%s): %w", synth.ID, synth.Name, err)
	}
	return u, nil
}

// decodeParams overlays spec.Params on defaults and decodes the result into
// target, a pointer to a struct whose float64 fields carry cty tags matching
// the keys of defaults.
func decodeParams(spec Spec, defaults map[string]float64, target any) error {
	vals := make(map[string]cty.Value, len(defaults))
	for name, v := range defaults {
		vals[name] = cty.NumberFloatVal(v)
	}
	for _, name := range slices.Sorted(maps.Keys(spec.Params)) {
		if _, ok := defaults[name]; !ok {
			return fmt.Errorf("%w: %q does not accept %q", ErrUnknownParam, spec.Def, name)
		}
		vals[name] = cty.NumberFloatVal(spec.Params[name])
	}
	if len(vals) == 0 {
		return nil
	}
	if err := gocty.FromCtyValue(cty.ObjectVal(vals), target); err != nil {
		return fmt.Errorf("%q parameters: %w", spec.Def, err)
	}
	return nil
}
