// Package rulepack ships a small, concrete corpus of rewrite rules
// built on internal/rewrite — the engine itself accepts any
// caller-supplied Rule per spec §6, but every host needs a starting
// rule set to exercise and test against.
//
// Grounded on apoc/refactor/refactor.go's MergeNodes/MergeRelationships
// (the teacher's closest domain analog to a rule that produces a
// merge) and on apoc/config.go's per-category enable/disable toggle
// UX (see Enabled), without importing apoc's unrelated ~40-package
// function surface.
package rulepack

import (
	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// addSubInverse implements spec §4.5's worked example exactly:
//
//	(add ?x (sub ?y ?x)) ⇒ ?y
//
// written in the monotone delta-join style: ApplyDelta differentiates
// the e-node store between ticks and joins only the newly-arrived Add
// or Sub e-nodes against the current ("neu") arrangement of the other
// side, rather than rejoining the full store every tick.
type addSubInverse struct{}

// AddSubInverse returns the rule.
func AddSubInverse() rewrite.DeltaRule { return addSubInverse{} }

// Name implements rewrite.Rule.
func (addSubInverse) Name() string { return "add-sub-inverse" }

// Apply implements rewrite.Rule with a full, straight-style
// recomputation — used on every outer tick after the first (through
// rewrite.Driver.RunStraight), and by any caller that evaluates the
// rule without ever calling ApplyDelta.
func (addSubInverse) Apply(in rewrite.Inputs) diff.Relation[unionfind.MergeEdge] {
	return matchAddSubInverse(in, in.Nodes, in.Nodes)
}

// ApplyDelta implements rewrite.DeltaRule. Per spec §4.5, the engine's
// delta-join support implements this clause with one differentiated
// driver and neu joins against the remaining relation; here the driver
// alternates between the Add side and the Sub side so a newly-arrived
// node on either side of the pattern is matched against the other
// side's full current state.
func (addSubInverse) ApplyDelta(prev, curr rewrite.Inputs) diff.Relation[unionfind.MergeEdge] {
	delta := rewrite.Differentiate(prev, curr)

	out := diff.NewRelation[unionfind.MergeEdge]()
	rewrite.Integrate(out, matchAddSubInverse(curr, delta.Added, curr.Nodes))
	rewrite.Integrate(out, matchAddSubInverse(curr, curr.Nodes, delta.Added))
	return out
}

// matchAddSubInverse joins addCandidates (the Add side of the pattern)
// against subCandidates (the Sub side), implementing:
//
//	merge(a_eclass, f) :-
//	  N(a_raw, Add(b_raw, c_raw)), canon(b_raw) = b, canon(c_raw) = c,
//	  N(d_raw, Sub(f_raw, e_raw)), canon(d_raw) = c, canon(e_raw) = b,
//	  canon(a_raw) = a_eclass, canon(f_raw) = f.
func matchAddSubInverse(in rewrite.Inputs, addCandidates, subCandidates map[ids.ENodeID]enode.Shape) diff.Relation[unionfind.MergeEdge] {
	out := diff.NewRelation[unionfind.MergeEdge]()

	for aRaw, aShape := range addCandidates {
		add, ok := aShape.(enode.Add)
		if !ok {
			continue
		}
		b := in.Canon.Lookup(add.Lhs.AsENode())
		c := in.Canon.Lookup(add.Rhs.AsENode())

		for dRaw, dShape := range subCandidates {
			sub, ok := dShape.(enode.Sub)
			if !ok {
				continue
			}
			if in.Canon.Lookup(dRaw) != c {
				continue
			}
			if in.Canon.Lookup(sub.Rhs.AsENode()) != b {
				continue
			}

			aEclass := in.Canon.Lookup(aRaw)
			f := in.Canon.Lookup(sub.Lhs.AsENode())

			out.Add(unionfind.MergeEdge{A: aEclass, B: f}, 1)
			out.Add(unionfind.MergeEdge{A: f, B: aEclass}, 1)
		}
	}

	return out
}
