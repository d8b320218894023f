// Package shard partitions the union–find label-propagation relaxation
// across goroutines by `id % N`, the data-parallel-across-workers
// sharding spec.md §5 describes: "exchanges redistribute records by key
// hash at arrangement boundaries." It is an optional performance path —
// internal/unionfind's single-threaded CanonicalizeBounded remains the
// reference implementation this package must agree with bit-for-bit.
//
// Grounded on pkg/storage/memory.go's per-label-index locking,
// generalized from per-key locking to a fixed partition of the vertex
// set processed by a fixed-size goroutine pool each relaxation round.
package shard

import (
	"fmt"
	"sync"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/unionfind"
	"github.com/egraphlab/saturate/internal/xerr"
)

// Canonicalize runs label propagation to fixpoint over domain and
// merges exactly as unionfind.Canonicalize does, except each
// relaxation round partitions the vertex set into workers shards
// (id % workers) and relaxes each shard's vertices concurrently. The
// adjacency built from merges crosses shard boundaries freely — a
// vertex's neighbors may live in any shard — so every shard reads the
// same snapshot of the previous round's labels and writes into a fresh
// map (Jacobi-style), whereas the single-threaded reference updates
// labels in place as it goes. The two may take a different number of
// rounds, but both settle on the minimum id reachable within each
// component, so the final Canon is identical.
func Canonicalize(domain []ids.ENodeID, merges diff.Relation[unionfind.MergeEdge], workers int) (unionfind.Canon, error) {
	return CanonicalizeBounded(domain, merges, unionfind.DefaultMaxIterations, workers)
}

// CanonicalizeBounded is Canonicalize with an explicit iteration
// budget, matching unionfind.CanonicalizeBounded's contract exactly
// (including the wrapped xerr.ErrNonConvergent on exhaustion).
func CanonicalizeBounded(domain []ids.ENodeID, merges diff.Relation[unionfind.MergeEdge], maxIterations int, workers int) (unionfind.Canon, error) {
	if workers < 1 {
		workers = 1
	}

	label := make(map[uint64]uint64, len(domain))
	inDomain := make(map[uint64]bool, len(domain))
	vertices := make([]uint64, 0, len(domain))
	for _, id := range domain {
		v := uint64(id)
		label[v] = v
		inDomain[v] = true
		vertices = append(vertices, v)
	}

	adjacency := make(map[uint64][]uint64)
	for edge, count := range merges {
		if count <= 0 {
			continue
		}
		a := uint64(edge.A.AsENode())
		b := uint64(edge.B.AsENode())
		if a == b {
			continue
		}
		if !inDomain[a] || !inDomain[b] {
			continue
		}
		adjacency[a] = append(adjacency[a], b)
		adjacency[b] = append(adjacency[b], a)
	}

	shards := partition(vertices, workers)

	converged := false
	for iter := 0; iter < maxIterations; iter++ {
		next := make(map[uint64]uint64, len(label))
		var mu sync.Mutex
		changedAny := false

		var wg sync.WaitGroup
		for _, shardVertices := range shards {
			shardVertices := shardVertices
			wg.Add(1)
			go func() {
				defer wg.Done()
				localNext := make(map[uint64]uint64, len(shardVertices))
				localChanged := false
				for _, v := range shardVertices {
					min := label[v]
					for _, nb := range adjacency[v] {
						if nbLabel := label[nb]; nbLabel < min {
							min = nbLabel
						}
					}
					localNext[v] = min
					if min != label[v] {
						localChanged = true
					}
				}
				mu.Lock()
				for v, l := range localNext {
					next[v] = l
				}
				if localChanged {
					changedAny = true
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		label = next
		if !changedAny {
			converged = true
			break
		}
	}
	if !converged {
		return nil, fmt.Errorf("shard: %w after %d iterations over %d vertices", xerr.ErrNonConvergent, maxIterations, len(domain))
	}

	out := make(unionfind.Canon, len(domain))
	for _, id := range domain {
		out[id] = ids.EClassID(label[uint64(id)])
	}
	return out, nil
}

// partition splits vertices into workers shards (some possibly empty)
// by id % workers, so a vertex's shard assignment is stable across
// rounds regardless of map iteration order.
func partition(vertices []uint64, workers int) [][]uint64 {
	shards := make([][]uint64, workers)
	for _, v := range vertices {
		shard := int(v % uint64(workers))
		shards[shard] = append(shards[shard], v)
	}
	return shards
}
