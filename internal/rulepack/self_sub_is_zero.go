package rulepack

import (
	"sort"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// selfSubIsZero merges every (sub x x) e-node — any subtraction whose
// two operands already canonicalize to the same e-class — into a single
// representative, on the reasoning that every such e-node denotes the
// same zero value. Written in the straight relational style: it
// recomputes its full scan every tick, which is simple and correct for
// a rule whose matching set is rarely large.
type selfSubIsZero struct{}

// SelfSubIsZero returns the rule.
func SelfSubIsZero() rewrite.Rule { return selfSubIsZero{} }

// Name implements rewrite.Rule.
func (selfSubIsZero) Name() string { return "self-sub-is-zero" }

// Apply implements rewrite.Rule.
func (selfSubIsZero) Apply(in rewrite.Inputs) diff.Relation[unionfind.MergeEdge] {
	var reps []ids.ENodeID
	for id, shape := range in.Nodes {
		sub, ok := shape.(enode.Sub)
		if !ok {
			continue
		}
		if in.Canon.Lookup(sub.Lhs.AsENode()) != in.Canon.Lookup(sub.Rhs.AsENode()) {
			continue
		}
		reps = append(reps, id)
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i] < reps[j] })

	out := diff.NewRelation[unionfind.MergeEdge]()
	for i := 1; i < len(reps); i++ {
		a := reps[0].AsEClass()
		b := reps[i].AsEClass()
		out.Add(unionfind.MergeEdge{A: a, B: b}, 1)
		out.Add(unionfind.MergeEdge{A: b, B: a}, 1)
	}
	return out
}
