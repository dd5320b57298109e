package topology

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/dspgrid/internal/nodetree"
	"github.com/specialistvlad/dspgrid/internal/workgraph"
	"github.com/zclconf/go-cty/cty"
)

// Report is a self-contained snapshot of a graph. It holds no references
// into the graph's arena and stays valid across rebuilds.
type Report struct {
	Synths   int     `json:"synths"`
	Items    []Item  `json:"items"`
	Runnable []int32 `json:"runnable"`
}

// Item describes one work item.
type Item struct {
	ID              int32    `json:"id"`
	ActivationLimit int32    `json:"activation_limit"`
	Successors      []int32  `json:"successors"`
	Members         []Member `json:"members"`
}

// Member describes one synth of a work item.
type Member struct {
	ID       int32  `json:"id"`
	Name     string `json:"name"`
	Def      string `json:"def"`
	Position string `json:"position"`
}

// Describe builds a report for graph, which must have been built from root.
func Describe(root *nodetree.Node, graph *workgraph.Graph) *Report {
	positions := nodetree.Positions(root)

	r := &Report{
		Synths:   graph.SynthCount(),
		Items:    make([]Item, graph.Len()),
		Runnable: ids(graph.Runnable),
	}
	for i := range graph.Items {
		it := &graph.Items[i]
		members := make([]Member, len(it.Members))
		for j, m := range it.Members {
			members[j] = Member{ID: m.ID, Name: m.Name, Def: m.Def, Position: positions[m].String()}
		}
		r.Items[i] = Item{
			ID:              int32(it.ID),
			ActivationLimit: it.ActivationLimit,
			Successors:      ids(it.Successors),
			Members:         members,
		}
	}
	return r
}

func ids(in []workgraph.ItemID) []int32 {
	out := make([]int32, len(in))
	for i, id := range in {
		out[i] = int32(id)
	}
	return out
}

// ItemOf returns the item that runs the synth with the given id.
func (r *Report) ItemOf(synthID int32) (Item, bool) {
	for _, it := range r.Items {
		for _, m := range it.Members {
			if m.ID == synthID {
				return it, true
			}
		}
	}
	return Item{}, false
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode topology report: %w", err)
	}
	return nil
}

// WriteHCL writes the report as HCL, one item block per work item.
func (r *Report) WriteHCL(w io.Writer) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("synths", cty.NumberIntVal(int64(r.Synths)))
	body.SetAttributeValue("runnable", numberList(r.Runnable))

	for _, it := range r.Items {
		body.AppendNewline()
		item := body.AppendNewBlock("item", []string{strconv.Itoa(int(it.ID))}).Body()
		item.SetAttributeValue("activation_limit", cty.NumberIntVal(int64(it.ActivationLimit)))
		item.SetAttributeValue("successors", numberList(it.Successors))
		for _, m := range it.Members {
			item.AppendNewline()
			member := item.AppendNewBlock("member", []string{m.Name}).Body()
			member.SetAttributeValue("id", cty.NumberIntVal(int64(m.ID)))
			member.SetAttributeValue("def", cty.StringVal(m.Def))
			member.SetAttributeValue("position", cty.StringVal(m.Position))
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write topology report: %w", err)
	}
	return nil
}

func numberList(in []int32) cty.Value {
	if len(in) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	vals := make([]cty.Value, len(in))
	for i, v := range in {
		vals[i] = cty.NumberIntVal(int64(v))
	}
	return cty.ListVal(vals)
}
