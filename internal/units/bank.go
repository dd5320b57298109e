package units

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/dspgrid/internal/nodetree"
)

// ErrNoVoice is returned when a bank is asked to process a synth it was not
// built for.
var ErrNoVoice = errors.New("synth has no voice in this bank")

type voice struct {
	unit Unit
	out  []float32
}

// Bank holds one instantiated unit and output buffer per synth of a tree.
// Process may be called concurrently for different synths.
type Bank struct {
	blockSize int
	voices    map[*nodetree.Node]*voice
}

// NewBank instantiates a unit for every synth under root.
func NewBank(reg *Registry, root *nodetree.Node, blockSize int, sampleRate float64) (*Bank, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	synths := nodetree.Synths(root)
	b := &Bank{
		blockSize: blockSize,
		voices:    make(map[*nodetree.Node]*voice, len(synths)),
	}
	for _, s := range synths {
		u, err := reg.New(s, sampleRate)
		if err != nil {
			return nil, err
		}
		b.voices[s] = &voice{unit: u, out: make([]float32, blockSize)}
	}
	return b, nil
}

// Process renders one block for synth. It implements executor.Processor.
func (b *Bank) Process(_ context.Context, synth *nodetree.Node) error {
	v, ok := b.voices[synth]
	if !ok {
		return fmt.Errorf("%w: synth %d (%s)", ErrNoVoice, synth.ID, synth.Name)
	}
	v.unit.Process(v.out)
	return nil
}

// Len is the number of voices.
func (b *Bank) Len() int { return len(b.voices) }

// BlockSize is the number of samples rendered per block.
func (b *Bank) BlockSize() int { return b.blockSize }

// Output returns the last block rendered for synth, or nil.
func (b *Bank) Output(synth *nodetree.Node) []float32 {
	if v, ok := b.voices[synth]; ok {
		return v.out
	}
	return nil
}

// Peak returns the largest absolute sample of the last block rendered for
// synth.
func (b *Bank) Peak(synth *nodetree.Node) float32 {
	var peak float32
	for _, s := range b.Output(synth) {
		if s < 0 {
			s = -s
		}
		peak = max(peak, s)
	}
	return peak
}
