// Package canon implements the canonicalizer: it rewrites every
// structural e-node's operand slots through the current canon relation,
// groups e-nodes by their resulting canonical shape, and emits one
// representative per group plus the merge edges witnessing that every
// other group member is equivalent to it.
//
// Grounded on apoc/refactor/refactor.go's MergeNodes — the teacher's
// closest analog to choosing one representative out of several
// equivalent values and folding the rest into it — generalized from
// property-merging to shape-equivalence-class representative selection.
package canon

import (
	"sort"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// Result is the canonicalizer's output for one pass: the hash-consed
// e-node table (one representative per canonical shape) and the new
// merge edges discovered by grouping.
type Result struct {
	// CanonicalEnodes maps each group's representative ENodeID to the
	// shape that group shares, with every operand slot already rewritten
	// to a canonical e-class id.
	CanonicalEnodes map[ids.ENodeID]enode.Shape
	// NewMerges is the symmetric-closed set of merge edges witnessing
	// every non-representative group member's equivalence to its
	// representative.
	NewMerges diff.Relation[unionfind.MergeEdge]
}

type group struct {
	shape enode.Shape
	ids   []ids.ENodeID
}

// Canonicalize runs one canonicalization pass over domain (the current
// positive-multiplicity projection of the e-node store) against the
// current canon relation.
//
// Steps, per the canonicalizer's contract:
//  1. Split each shape's operand slots (Constant contributes none; its
//     Value instead flows into the digest via Payload).
//  2. Canonicalize each slot by looking up canon on the raw operand,
//     reinterpreted from e-class id to e-node id (operands are always
//     e-class ids; canon is indexed by e-node id, and the two carriers
//     are freely interchangeable).
//  3. Rebuild the shape with canonicalized operands.
//  4. Hash-cons: group by the rebuilt shape's digest (kind, operands,
//     and payload), pick the minimum-id member of each group as
//     representative, emit merge edges from the representative to
//     every other member.
//  5. Close symmetry by emitting both directions of every merge edge.
//
// Tie-breaking is the total order on ENodeID (the minimum id in a
// group wins); this canonicalizer is deliberately syntactic and does
// not normalize commutative operand order — per spec §4.4 that is a
// rewrite rule's responsibility, not the canonicalizer's.
func Canonicalize(domain map[ids.ENodeID]enode.Shape, c unionfind.Canon) Result {
	groups := make(map[Digest]*group)

	// Stable iteration order keeps representative selection and merge
	// emission deterministic across runs for the same logical input,
	// which matters for checkpoint round-tripping and test assertions.
	orderedIDs := make([]ids.ENodeID, 0, len(domain))
	for id := range domain {
		orderedIDs = append(orderedIDs, id)
	}
	sort.Slice(orderedIDs, func(i, j int) bool { return orderedIDs[i] < orderedIDs[j] })

	for _, id := range orderedIDs {
		shape := domain[id]
		rawOperands := shape.Operands()
		canonicalOperands := make([]ids.EClassID, len(rawOperands))
		for i, rawOperand := range rawOperands {
			canonicalOperands[i] = c.Lookup(rawOperand.AsENode())
		}

		rebuilt := shape
		if len(rawOperands) > 0 {
			rebuilt = shape.WithOperands(canonicalOperands)
		}

		d := ShapeDigest(rebuilt)
		g, ok := groups[d]
		if !ok {
			g = &group{shape: rebuilt}
			groups[d] = g
		}
		g.ids = append(g.ids, id)
	}

	result := Result{
		CanonicalEnodes: make(map[ids.ENodeID]enode.Shape, len(groups)),
		NewMerges:       diff.NewRelation[unionfind.MergeEdge](),
	}

	// Iterate digests in a deterministic order too, so NewMerges is
	// built up identically across runs.
	digests := make([]Digest, 0, len(groups))
	for d := range groups {
		digests = append(digests, d)
	}
	sort.Slice(digests, func(i, j int) bool {
		return string(digests[i][:]) < string(digests[j][:])
	})

	for _, d := range digests {
		g := groups[d]
		// g.ids is already sorted ascending because orderedIDs was.
		representative := g.ids[0]
		result.CanonicalEnodes[representative] = g.shape

		// A singleton group emits a representative but no merge edges;
		// per spec §9's resolved open question, it also never emits a
		// self-edge — redundant with the union–find's own seed
		// assignment and would only inflate multiplicities.
		for _, member := range g.ids[1:] {
			forward := unionfind.MergeEdge{A: representative.AsEClass(), B: member.AsEClass()}
			backward := unionfind.MergeEdge{A: member.AsEClass(), B: representative.AsEClass()}
			result.NewMerges.Add(forward, 1)
			result.NewMerges.Add(backward, 1)
		}
	}

	return result
}
