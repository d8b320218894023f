// Package unionfind computes the canon relation — ENodeId -> EClassId —
// by label propagation over the symmetric closure of a dynamic merge-edge
// relation, per the engine's union–find contract.
//
// Label propagation rather than pointer-chasing union–find is used
// because the engine is incremental: when an equivalence edge is
// retracted, a pointer-based union–find cannot cheaply un-union.
// Propagation recomputes fresh from the current merge relation every
// tick, so retractions fall out for free — there is nothing to undo.
package unionfind

import (
	"fmt"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/xerr"
)

// MergeEdge is one proposed equivalence between two e-classes. It need
// not already be symmetric: Canonicalize builds the symmetric closure
// itself, so a relation holding only (a,b) is equivalent to one holding
// both (a,b) and (b,a).
type MergeEdge struct {
	A, B ids.EClassID
}

// Canon is the engine's canon relation, ENodeId -> EClassId, expressed
// as a map. It is total over the e-node domain it was computed from and
// idempotent: canonicalizing an id already equal to its own canonical
// label returns that same label.
type Canon map[ids.ENodeID]ids.EClassID

// Lookup returns the canonical e-class of id, or id's own trivial class
// (id reinterpreted as an e-class) if id is absent — which only happens
// for ids outside the domain Canon was computed from.
func (c Canon) Lookup(id ids.ENodeID) ids.EClassID {
	if ec, ok := c[id]; ok {
		return ec
	}
	return id.AsEClass()
}

// Invert builds the EClassId -> []ENodeId arrangement the rewrite driver
// needs to enumerate every e-node currently assigned to a given
// e-class — spec §6's second canonical-lookup arrangement.
func (c Canon) Invert() map[ids.EClassID][]ids.ENodeID {
	out := make(map[ids.EClassID][]ids.ENodeID, len(c))
	for enodeID, eclassID := range c {
		out[eclassID] = append(out[eclassID], enodeID)
	}
	return out
}

// DefaultMaxIterations bounds label propagation as a safety net. Under a
// steady input the relaxation converges in O(diameter) iterations over
// the merge graph; this is the host-imposed budget of last resort, not
// part of the core's own termination argument (spec §7: non-convergence
// is surfaced by the host via probe inspection, never by an internal
// timeout panicking mid-computation).
const DefaultMaxIterations = 10_000

// Canonicalize runs label propagation to fixpoint over domain (the
// current dom(N), i.e. every e-node id with positive multiplicity in the
// store) and merges (the current multiset of merge edges, clamped to
// {0,1} by the caller per the engine's multiplicity-clamping
// obligation), and returns the resulting canon relation.
//
// Merge edges whose endpoints fall outside domain are tolerated as
// latent: they simply do not affect any label this tick, and become
// effective automatically once a matching e-node id appears in a later
// domain.
func Canonicalize(domain []ids.ENodeID, merges diff.Relation[MergeEdge]) (Canon, error) {
	return CanonicalizeBounded(domain, merges, DefaultMaxIterations)
}

// CanonicalizeBounded is Canonicalize with an explicit iteration budget,
// returning xerr.ErrNonConvergent wrapped with the iteration count if the
// relaxation has not reached a fixpoint within maxIterations. Exposed
// separately so hosts can impose a tighter budget than the default
// without forking the algorithm.
func CanonicalizeBounded(domain []ids.ENodeID, merges diff.Relation[MergeEdge], maxIterations int) (Canon, error) {
	label := make(map[uint64]uint64, len(domain))
	inDomain := make(map[uint64]bool, len(domain))
	for _, id := range domain {
		v := uint64(id)
		label[v] = v
		inDomain[v] = true
	}

	adjacency := make(map[uint64][]uint64)
	for edge, count := range merges {
		if count <= 0 {
			continue
		}
		a := uint64(edge.A.AsENode())
		b := uint64(edge.B.AsENode())
		if a == b {
			// Self-loops are permitted in the merge relation but
			// collapse to a no-op: a vertex is already its own
			// neighbor via its seed label.
			continue
		}
		if !inDomain[a] || !inDomain[b] {
			// Latent: at least one endpoint has no e-node in the
			// current domain yet.
			continue
		}
		adjacency[a] = append(adjacency[a], b)
		adjacency[b] = append(adjacency[b], a)
	}

	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for v, cur := range label {
			min := cur
			for _, nb := range adjacency[v] {
				if nbLabel := label[nb]; nbLabel < min {
					min = nbLabel
				}
			}
			if min != cur {
				label[v] = min
				changed = true
			}
		}
		if !changed {
			converged = true
			break
		}
	}
	if !converged {
		return nil, fmt.Errorf("unionfind: %w after %d iterations over %d vertices", xerr.ErrNonConvergent, maxIterations, len(domain))
	}

	out := make(Canon, len(domain))
	for _, id := range domain {
		out[id] = ids.EClassID(label[uint64(id)])
	}
	return out, nil
}
