package units

import (
	"context"
	"testing"

	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRate = 48000

func TestRegistry_RegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register("x", newSilence)
	assert.PanicsWithValue(t, "unit with name 'x' already registered", func() {
		r.Register("x", newSilence)
	})
}

func TestBuiltin_Defs(t *testing.T) {
	assert.Equal(t, []string{"busy", "noise", "silence", "sine"}, Builtin().Defs())
}

func TestRegistry_New(t *testing.T) {
	testCases := []struct {
		name    string
		synth   *nodetree.Node
		wantErr error
		errMsg  string
	}{
		{name: "sine defaults", synth: nodetree.Synth(1, "s", "sine")},
		{name: "sine with params", synth: nodetree.SynthWithParams(1, "s", "sine", map[string]float64{"freq": 220, "amp": 0.5})},
		{name: "noise", synth: nodetree.SynthWithParams(1, "n", "noise", map[string]float64{"amp": 1})},
		{name: "silence", synth: nodetree.Synth(1, "z", "silence")},
		{name: "busy", synth: nodetree.SynthWithParams(1, "b", "busy", map[string]float64{"micros": 0})},
		{
			name:    "unknown def",
			synth:   nodetree.Synth(7, "x", "granular"),
			wantErr: ErrUnknownDef,
			errMsg:  `synth 7 (x) uses "granular"`,
		},
		{
			name:    "unknown param",
			synth:   nodetree.SynthWithParams(1, "s", "sine", map[string]float64{"detune": 3}),
			wantErr: ErrUnknownParam,
			errMsg:  `"sine" does not accept "detune"`,
		},
		{
			name:    "silence takes no params",
			synth:   nodetree.SynthWithParams(1, "z", "silence", map[string]float64{"amp": 1}),
			wantErr: ErrUnknownParam,
		},
		{
			name:   "table size not a power of two",
			synth:  nodetree.SynthWithParams(1, "s", "sine", map[string]float64{"table": 1000}),
			errMsg: "power of two",
		},
		{
			name:   "negative busy time",
			synth:  nodetree.SynthWithParams(1, "b", "busy", map[string]float64{"micros": -1}),
			errMsg: "must not be negative",
		},
	}

	r := Builtin()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, err := r.New(tc.synth, sampleRate)
			if tc.wantErr == nil && tc.errMsg == "" {
				require.NoError(t, err)
				assert.NotNil(t, u)
				return
			}
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.errMsg != "" {
				assert.ErrorContains(t, err, tc.errMsg)
			}
		})
	}
}

func TestSine_Output(t *testing.T) {
	r := Builtin()
	// One cycle every 8 samples.
	u, err := r.New(nodetree.SynthWithParams(1, "s", "sine", map[string]float64{"freq": 6000, "amp": 1, "table": 8}), sampleRate)
	require.NoError(t, err)

	out := make([]float32, 16)
	u.Process(out)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 1, out[2], 1e-6)
	assert.InDelta(t, 0, out[4], 1e-6)
	assert.InDelta(t, -1, out[6], 1e-6)
	assert.InDeltaSlice(t, out[:8], out[8:], 1e-6)
}

func TestSine_SharesWavetables(t *testing.T) {
	r := Builtin()
	a, err := r.New(nodetree.Synth(1, "a", "sine"), sampleRate)
	require.NoError(t, err)
	b, err := r.New(nodetree.SynthWithParams(2, "b", "sine", map[string]float64{"freq": 100}), sampleRate)
	require.NoError(t, err)

	assert.Same(t, &a.(*sine).table[0], &b.(*sine).table[0])
	assert.Equal(t, 1, r.tables.Len())
}

func TestNoise_IsBoundedAndSeededBySynth(t *testing.T) {
	r := Builtin()
	params := map[string]float64{"amp": 0.5}
	a, err := r.New(nodetree.SynthWithParams(3, "a", "noise", params), sampleRate)
	require.NoError(t, err)
	b, err := r.New(nodetree.SynthWithParams(3, "b", "noise", params), sampleRate)
	require.NoError(t, err)

	outA := make([]float32, 64)
	outB := make([]float32, 64)
	a.Process(outA)
	b.Process(outB)
	assert.Equal(t, outA, outB)
	for _, s := range outA {
		assert.LessOrEqual(t, s, float32(0.5))
		assert.GreaterOrEqual(t, s, float32(-0.5))
	}
}

func TestBank(t *testing.T) {
	loud := nodetree.SynthWithParams(1, "loud", "noise", map[string]float64{"amp": 1})
	quiet := nodetree.Synth(2, "quiet", "silence")
	root := nodetree.Group(0, "root", loud, nodetree.Parallel(10, "p", quiet))

	b, err := NewBank(Builtin(), root, 32, sampleRate)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 32, b.BlockSize())

	require.NoError(t, b.Process(context.Background(), loud))
	require.NoError(t, b.Process(context.Background(), quiet))
	assert.Len(t, b.Output(loud), 32)
	assert.Positive(t, b.Peak(loud))
	assert.Zero(t, b.Peak(quiet))

	stranger := nodetree.Synth(3, "stranger", "silence")
	assert.ErrorIs(t, b.Process(context.Background(), stranger), ErrNoVoice)
	assert.Nil(t, b.Output(stranger))
}

func TestNewBank_Errors(t *testing.T) {
	root := nodetree.Group(0, "root", nodetree.Synth(1, "x", "nope"))
	_, err := NewBank(Builtin(), root, 32, sampleRate)
	assert.ErrorIs(t, err, ErrUnknownDef)

	_, err = NewBank(Builtin(), nodetree.Group(0, "root"), 0, sampleRate)
	assert.ErrorContains(t, err, "block size must be positive")
}
