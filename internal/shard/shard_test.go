package shard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/shard"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// lcg is a tiny deterministic linear congruential generator: test inputs
// must be reproducible without the forbidden time/random entropy
// sources, per the no-toolchain, no-wall-clock rule this module holds
// itself to elsewhere (internal/checkpoint, internal/config tests).
type lcg struct{ state uint64 }

func (g *lcg) next() uint64 {
	g.state = g.state*6364136223846793005 + 1442695040888963407
	return g.state
}

func (g *lcg) intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(g.next() % uint64(n))
}

// genCase builds a domain of n e-node ids and a random merge relation
// over them with up to edgeFactor*n edges, some of which intentionally
// dangle outside the domain (latent merges) or self-loop.
func genCase(seed uint64, n, edgeFactor int) ([]ids.ENodeID, diff.Relation[unionfind.MergeEdge]) {
	g := &lcg{state: seed}

	domain := make([]ids.ENodeID, n)
	for i := 0; i < n; i++ {
		domain[i] = ids.ENodeID(i)
	}

	merges := diff.NewRelation[unionfind.MergeEdge]()
	edgeCount := n * edgeFactor
	for i := 0; i < edgeCount; i++ {
		a := ids.EClassID(g.intn(n + 2)) // + 2 so occasionally dangles past domain
		b := ids.EClassID(g.intn(n + 2))
		merges.Add(unionfind.MergeEdge{A: a, B: b}, 1)
	}
	return domain, diff.Distinct(merges)
}

func TestShardedAgreesWithReferenceAcrossGeneratedCases(t *testing.T) {
	cases := []struct {
		name       string
		seed       uint64
		n          int
		edgeFactor int
		workers    int
	}{
		{"empty", 1, 0, 0, 4},
		{"single vertex no edges", 2, 1, 0, 4},
		{"small dense", 3, 8, 4, 3},
		{"small sparse", 4, 20, 1, 5},
		{"medium chain-like", 5, 50, 2, 8},
		{"more workers than vertices", 6, 3, 3, 16},
		{"one worker", 7, 30, 2, 1},
		{"larger fanout", 8, 75, 3, 6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			domain, merges := genCase(tc.seed, tc.n, tc.edgeFactor)

			want, err := unionfind.Canonicalize(domain, merges)
			require.NoError(t, err)

			got, err := shard.Canonicalize(domain, merges, tc.workers)
			require.NoError(t, err)

			assert.Equal(t, want, got)
		})
	}
}

func TestShardedSingleWorkerMatchesUnsharded(t *testing.T) {
	domain, merges := genCase(42, 40, 3)

	want, err := unionfind.Canonicalize(domain, merges)
	require.NoError(t, err)

	got, err := shard.Canonicalize(domain, merges, 1)
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestShardedWorkerCountDoesNotAffectResult(t *testing.T) {
	domain, merges := genCase(99, 60, 2)

	var results []unionfind.Canon
	for _, workers := range []int{1, 2, 4, 7, 16, 64} {
		got, err := shard.Canonicalize(domain, merges, workers)
		require.NoError(t, err)
		results = append(results, got)
	}

	for i := 1; i < len(results); i++ {
		assert.Equal(t, results[0], results[i])
	}
}

func TestShardedZeroOrNegativeWorkersFallsBackToOne(t *testing.T) {
	domain, merges := genCase(7, 10, 2)

	want, err := shard.Canonicalize(domain, merges, 1)
	require.NoError(t, err)

	got, err := shard.Canonicalize(domain, merges, 0)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	gotNeg, err := shard.Canonicalize(domain, merges, -3)
	require.NoError(t, err)
	assert.Equal(t, want, gotNeg)
}

func TestShardedRespectsIterationBudget(t *testing.T) {
	// A long chain needs roughly n propagation rounds to converge;
	// a budget of 1 iteration cannot settle it.
	n := 50
	domain := make([]ids.ENodeID, n)
	merges := diff.NewRelation[unionfind.MergeEdge]()
	for i := 0; i < n; i++ {
		domain[i] = ids.ENodeID(i)
		if i > 0 {
			merges.Add(unionfind.MergeEdge{A: ids.EClassID(i - 1), B: ids.EClassID(i)}, 1)
		}
	}

	_, err := shard.CanonicalizeBounded(domain, merges, 1, 4)
	assert.Error(t, err)

	out, err := shard.CanonicalizeBounded(domain, merges, 1000, 4)
	require.NoError(t, err)
	for _, id := range domain {
		assert.Equal(t, ids.EClassID(0), out[id])
	}
}
