package hcltree

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/specialistvlad/dspgrid/internal/fsutil"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
)

const (
	// RootName is the name of the implicit root group.
	RootName = "root"
	// FirstAutoID is the first id handed to blocks without an explicit id.
	FirstAutoID = 1000
)

// Loader reads node trees from HCL.
type Loader struct{}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every .hcl file under paths and assembles their blocks into
// one tree.
func (l *Loader) Load(ctx context.Context, paths ...string) (*nodetree.Node, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Load: Starting tree load.", "paths", paths)

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to find tree files in %v: %w", paths, err)
	}
	if len(files) == 0 {
		logger.Warn("No .hcl tree files found, returning an empty tree.", "paths", paths)
	}

	parser := hclparse.NewParser()
	var top []*decl
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		decls, diags := parseFile(f)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		logger.Debug("Load: Decoded tree file.", "path", file, "blocks", len(decls))
		top = append(top, decls...)
	}

	root, err := assemble(top)
	if err != nil {
		return nil, err
	}
	logger.Debug("Load: Tree load complete.", "files", len(files), "synths", root.SynthCount())
	return root, nil
}

// LoadSource assembles a tree from a single HCL document held in memory.
// filename is only used in diagnostics.
func (l *Loader) LoadSource(ctx context.Context, filename string, src []byte) (*nodetree.Node, error) {
	ctxlog.FromContext(ctx).Debug("LoadSource: Decoding tree source.", "filename", filename, "bytes", len(src))

	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	decls, diags := parseFile(f)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL source %s: %w", filename, diags)
	}
	return assemble(decls)
}

func parseFile(f *hcl.File) ([]*decl, hcl.Diagnostics) {
	content, diags := f.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	decls, blockDiags := parseBlocks(content.Blocks)
	return decls, append(diags, blockDiags...)
}

// assemble wraps the top-level declarations in the root group, assigns ids
// and converts them to nodes.
func assemble(top []*decl) (*nodetree.Node, error) {
	rootID := int32(0)
	root := &decl{kind: nodetree.KindGroup, name: RootName, id: &rootID, children: top}

	if diags := assignIDs(root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to assign node ids: %w", diags)
	}

	n := root.node()
	if err := nodetree.Validate(n); err != nil {
		return nil, err
	}
	return n, nil
}
