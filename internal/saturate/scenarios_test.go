package saturate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/rulepack"
	"github.com/egraphlab/saturate/internal/saturate"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// staticMerges adapts a fixed set of externally-asserted merge edges to
// rewrite.Rule, the shape an external caller uses to seed merges
// outside of any rewrite rule proper (spec §8 Scenarios 4 and 6's
// "externally assert merges").
func staticMerges(name string, edges ...unionfind.MergeEdge) rewrite.Rule {
	return rewrite.RuleFunc{
		RuleName: name,
		Fn: func(rewrite.Inputs) diff.Relation[unionfind.MergeEdge] {
			out := diff.NewRelation[unionfind.MergeEdge]()
			for _, e := range edges {
				out.Add(e, 1)
				out.Add(unionfind.MergeEdge{A: e.B, B: e.A}, 1)
			}
			return out
		},
	}
}

// Scenario 1 (spec.md §8): trivial dedup.
func TestScenario1TrivialDedup(t *testing.T) {
	store := enode.NewStore()
	store.Insert(0, enode.Add{Lhs: 2, Rhs: 2})
	store.Insert(1, enode.Add{Lhs: 2, Rhs: 2})
	store.Insert(2, enode.Constant{Value: 2})
	store.Insert(3, enode.Constant{Value: 3})

	loop := saturate.NewLoop(store, rewrite.NewDriver())
	out, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(0))
	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(1))
	assert.Equal(t, ids.EClassID(2), out.EnodeToEClass.Lookup(2))
	assert.Equal(t, ids.EClassID(3), out.EnodeToEClass.Lookup(3))

	_, hasAddRep := out.CanonicalEnodes[0]
	assert.True(t, hasAddRep)
	_, hasDupRep := out.CanonicalEnodes[1]
	assert.False(t, hasDupRep)
}

func scenario2Store() *enode.Store {
	store := enode.NewStore()
	store.Insert(0, enode.Add{Lhs: 2, Rhs: 1})
	store.Insert(1, enode.Sub{Lhs: 3, Rhs: 2})
	store.Insert(2, enode.Constant{Value: 2})
	store.Insert(3, enode.Constant{Value: 3})
	return store
}

// Scenario 2 (spec.md §8): (add x (sub y x)) => y, single fire.
func TestScenario2AddSubInverseSingleFire(t *testing.T) {
	store := scenario2Store()
	driver := rewrite.NewDriver(rulepack.AddSubInverse())
	loop := saturate.NewLoop(store, driver)

	out, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, out.EnodeToEClass.Lookup(0), out.EnodeToEClass.Lookup(3))
}

// Scenario 3 (spec.md §8): retraction of a rewrite-triggering e-node.
// Starting from Scenario 2's post-fixpoint state, retracting the Sub
// withdraws the merge and canon(0) reverts to 0.
func TestScenario3RetractionWithdrawsMerge(t *testing.T) {
	store := scenario2Store()
	driver := rewrite.NewDriver(rulepack.AddSubInverse())
	loop := saturate.NewLoop(store, driver)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)

	store.Retract(1, enode.Sub{Lhs: 3, Rhs: 2})

	out, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(0))
	assert.NotContains(t, out.EnodeToEClass, ids.ENodeID(1))
}

// Scenario 4 (spec.md §8): transitive merges collapse to the minimum id.
// The three constants carry distinct values so the only merges in play
// are the externally-asserted ones, not incidental hash-consing.
func TestScenario4TransitiveMerges(t *testing.T) {
	store := enode.NewStore()
	store.Insert(0, enode.Constant{Value: 0})
	store.Insert(1, enode.Constant{Value: 1})
	store.Insert(2, enode.Constant{Value: 2})

	driver := rewrite.NewDriver(staticMerges("external-merges",
		unionfind.MergeEdge{A: 0, B: 1},
		unionfind.MergeEdge{A: 1, B: 2},
	))
	loop := saturate.NewLoop(store, driver)

	out, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(0))
	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(1))
	assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(2))
}

// Scenario 5 (spec.md §8): fixpoint stability — one additional
// saturation step after quiescence produces no changes.
func TestScenario5FixpointStability(t *testing.T) {
	store := scenario2Store()
	driver := rewrite.NewDriver(rulepack.AddSubInverse())
	loop := saturate.NewLoop(store, driver)

	first, err := loop.Run(context.Background())
	require.NoError(t, err)

	second, err := loop.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.EnodeToEClass, second.EnodeToEClass)
	assert.Equal(t, len(first.CanonicalEnodes), len(second.CanonicalEnodes))
}

// Scenario 6 (spec.md §8): diamond convergence — a 4-cycle of merges
// over four constants collapses to the minimum id in one Run call.
// Each constant carries a distinct value so the cycle's merges come
// only from the externally-asserted edges, not hash-consing.
func TestScenario6DiamondConvergence(t *testing.T) {
	store := enode.NewStore()
	for i := ids.ENodeID(0); i < 4; i++ {
		store.Insert(i, enode.Constant{Value: int64(i)})
	}

	driver := rewrite.NewDriver(staticMerges("external-merges",
		unionfind.MergeEdge{A: 0, B: 1},
		unionfind.MergeEdge{A: 0, B: 2},
		unionfind.MergeEdge{A: 1, B: 3},
		unionfind.MergeEdge{A: 2, B: 3},
	))
	loop := saturate.NewLoop(store, driver)

	out, err := loop.Run(context.Background())
	require.NoError(t, err)

	for i := ids.ENodeID(0); i < 4; i++ {
		assert.Equal(t, ids.EClassID(0), out.EnodeToEClass.Lookup(i))
	}
}

// TestClosedLoopRejectsRun exercises xerr.ErrClosedEngine via Close.
func TestClosedLoopRejectsRun(t *testing.T) {
	store := enode.NewStore()
	loop := saturate.NewLoop(store, rewrite.NewDriver())
	loop.Close()

	_, err := loop.Run(context.Background())
	assert.Error(t, err)
}
