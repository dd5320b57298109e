package hcltree

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/dspgrid/internal/nodeid"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var nodeBlocks = []hcl.BlockHeaderSchema{
	{Type: "synth", LabelNames: []string{"name"}},
	{Type: "group", LabelNames: []string{"name"}},
	{Type: "parallel_group", LabelNames: []string{"name"}},
}

var fileSchema = &hcl.BodySchema{
	Blocks: nodeBlocks,
}

var containerSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{{Name: "id"}},
	Blocks:     nodeBlocks,
}

// hclSynth is a 'synth' block. Every attribute besides def and id is a unit
// parameter.
type hclSynth struct {
	Def    string   `hcl:"def"`
	ID     *int32   `hcl:"id,optional"`
	Params hcl.Body `hcl:",remain"`
}

// decl is a decoded block whose id may still be unassigned.
type decl struct {
	kind     nodetree.Kind
	name     string
	id       *int32
	def      string
	params   map[string]float64
	children []*decl
	rng      hcl.Range
}

func (d *decl) node() *nodetree.Node {
	switch d.kind {
	case nodetree.KindSynth:
		return nodetree.SynthWithParams(*d.id, d.name, d.def, d.params)
	case nodetree.KindParallel:
		return nodetree.Parallel(*d.id, d.name, childNodes(d.children)...)
	default:
		return nodetree.Group(*d.id, d.name, childNodes(d.children)...)
	}
}

func childNodes(decls []*decl) []*nodetree.Node {
	out := make([]*nodetree.Node, len(decls))
	for i, d := range decls {
		out[i] = d.node()
	}
	return out
}

// parseBlocks decodes blocks in source order.
func parseBlocks(blocks hcl.Blocks) ([]*decl, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	out := make([]*decl, 0, len(blocks))
	for _, block := range blocks {
		d, blockDiags := parseBlock(block)
		diags = append(diags, blockDiags...)
		if d != nil {
			out = append(out, d)
		}
	}
	return out, diags
}

func parseBlock(block *hcl.Block) (*decl, hcl.Diagnostics) {
	name := block.Labels[0]
	if !nodeid.ValidName(name) {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid node name",
			Detail:   fmt.Sprintf("The name %q may only contain letters, digits, underscores and dashes.", name),
			Subject:  block.LabelRanges[0].Ptr(),
		}}
	}

	if block.Type == "synth" {
		return parseSynth(block)
	}

	d := &decl{kind: nodetree.KindGroup, name: name, rng: block.DefRange}
	if block.Type == "parallel_group" {
		d.kind = nodetree.KindParallel
	}

	content, diags := block.Body.Content(containerSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	if attr, ok := content.Attributes["id"]; ok {
		var id int32
		if idDiags := gohcl.DecodeExpression(attr.Expr, nil, &id); idDiags.HasErrors() {
			return nil, append(diags, idDiags...)
		}
		d.id = &id
	}

	children, childDiags := parseBlocks(content.Blocks)
	diags = append(diags, childDiags...)
	d.children = children
	return d, diags
}

func parseSynth(block *hcl.Block) (*decl, hcl.Diagnostics) {
	var s hclSynth
	diags := gohcl.DecodeBody(block.Body, nil, &s)
	if diags.HasErrors() {
		return nil, diags
	}

	attrs, attrDiags := s.Params.JustAttributes()
	diags = append(diags, attrDiags...)
	if attrDiags.HasErrors() {
		return nil, diags
	}

	params := make(map[string]float64, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		if !val.IsKnown() || val.IsNull() || val.Type() != cty.Number {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid synth parameter",
				Detail:   fmt.Sprintf("Parameter %q must be a number, got %s.", name, val.Type().FriendlyName()),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		var f float64
		if err := gocty.FromCtyValue(val, &f); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid synth parameter",
				Detail:   fmt.Sprintf("Parameter %q: %s.", name, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		params[name] = f
	}
	if diags.HasErrors() {
		return nil, diags
	}

	return &decl{
		kind:   nodetree.KindSynth,
		name:   block.Labels[0],
		id:     s.ID,
		def:    s.Def,
		params: params,
		rng:    block.DefRange,
	}, diags
}

// assignIDs rejects duplicate explicit ids and numbers the remaining
// declarations in pre-order, starting at FirstAutoID and skipping ids that
// are taken.
func assignIDs(root *decl) hcl.Diagnostics {
	var diags hcl.Diagnostics
	used := make(map[int32]*decl)
	var pending []*decl

	var visit func(d *decl)
	visit = func(d *decl) {
		if d.id == nil {
			pending = append(pending, d)
		} else if prev, dup := used[*d.id]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate node id",
				Detail:   fmt.Sprintf("Node %q uses id %d, which is already used by %q at %s.", d.name, *d.id, prev.name, prev.rng),
				Subject:  d.rng.Ptr(),
			})
		} else {
			used[*d.id] = d
		}
		for _, c := range d.children {
			visit(c)
		}
	}
	visit(root)

	next := int32(FirstAutoID)
	for _, d := range pending {
		for used[next] != nil {
			next++
		}
		id := next
		d.id = &id
		used[id] = d
	}
	return diags
}
