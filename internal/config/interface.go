package config

import (
	"context"

	"github.com/specialistvlad/dspgrid/internal/nodetree"
)

// Loader is the interface for a format-specific tree loader.
type Loader interface {
	// Load reads every tree file found under paths and returns the assembled
	// tree, rooted at a sequential group.
	Load(ctx context.Context, paths ...string) (*nodetree.Node, error)
}
