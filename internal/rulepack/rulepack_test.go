package rulepack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/rulepack"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// buildScenario2 is spec.md §8 Scenario 2's input, post-canonicalization
// with no mergers yet (the shapes are unique so the canonicalizer itself
// produces nothing): {0: Add(2,1), 1: Sub(3,2), 2: Constant, 3: Constant}.
func buildScenario2() rewrite.Inputs {
	nodes := map[ids.ENodeID]enode.Shape{
		0: enode.Add{Lhs: 2, Rhs: 1},
		1: enode.Sub{Lhs: 3, Rhs: 2},
		2: enode.Constant{Value: 2},
		3: enode.Constant{Value: 3},
	}
	c := unionfind.Canon{0: 0, 1: 1, 2: 2, 3: 3}
	return rewrite.Inputs{Nodes: nodes, Canon: c, Inverse: c.Invert()}
}

func buildSelfSubNodes() map[ids.ENodeID]enode.Shape {
	return map[ids.ENodeID]enode.Shape{
		0: enode.Sub{Lhs: 0, Rhs: 0},
		1: enode.Sub{Lhs: 1, Rhs: 1},
		2: enode.Constant{},
		3: enode.Add{Lhs: 2, Rhs: 3},
	}
}

// Scenario 2 (spec.md §8): (add x (sub y x)) ⇒ y, single fire. The
// Add's e-class (0) merges with the Sub's left operand e-class (3).
func TestAddSubInverseSingleFire(t *testing.T) {
	in := buildScenario2()
	rule := rulepack.AddSubInverse()

	produced := rule.Apply(in)
	assert.True(t, produced.Has(unionfind.MergeEdge{A: 0, B: 3}))
	assert.True(t, produced.Has(unionfind.MergeEdge{A: 3, B: 0}))
}

func TestAddSubInverseDeltaMatchesStraight(t *testing.T) {
	in := buildScenario2()
	rule := rulepack.AddSubInverse()

	straight := rule.Apply(in)
	delta := rule.ApplyDelta(rewrite.Inputs{}, in)

	assert.True(t, straight.Has(unionfind.MergeEdge{A: 0, B: 3}))
	assert.True(t, delta.Has(unionfind.MergeEdge{A: 0, B: 3}))
}

func TestSelfSubIsZeroMergesAllSelfSubtractions(t *testing.T) {
	c := unionfind.Canon{0: 0, 1: 1, 2: 2, 3: 3}
	in := rewrite.Inputs{Nodes: buildSelfSubNodes(), Canon: c, Inverse: c.Invert()}

	rule := rulepack.SelfSubIsZero()
	produced := rule.Apply(in)

	require.True(t, produced.Has(unionfind.MergeEdge{A: 0, B: 1}))
	assert.True(t, produced.Has(unionfind.MergeEdge{A: 1, B: 0}))
}

func TestEnabledRespectsCategoryToggles(t *testing.T) {
	all := rulepack.Enabled(nil)
	assert.Len(t, all, 2)

	onlyAddSub := rulepack.Enabled(map[string]bool{rulepack.CategorySelfSubZero: false})
	assert.Len(t, onlyAddSub, 1)
	assert.Equal(t, "add-sub-inverse", onlyAddSub[0].Name())
}
