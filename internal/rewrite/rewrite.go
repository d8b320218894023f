// Package rewrite implements the rewrite driver: user-supplied rules
// that read the current e-graph relations and propose merge edges.
//
// Two supported rule styles mirror spec §4.5:
//   - straight relational form: recompute the full join every tick
//     (Rule.Apply), simple and correct for any rule body.
//   - monotone delta-join form: differentiate one driving relation and
//     join only its new tuples against the "neu" (current-tick)
//     arrangement of the remaining relations (DeltaRule.ApplyDelta),
//     touching work proportional to the size of the change.
//
// Grounded on pkg/cypher/executor.go's match-then-project clause
// pipeline for the straight-evaluation shape; the alt/neu/differentiate/
// integrate primitives are original infrastructure built directly from
// spec §4.5/§9's Horn-clause description, since no pack dependency
// offers incremental/differential joins.
package rewrite

import (
	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/unionfind"
)

// Inputs bundles the three relations a rule body may join against: the
// current positive-multiplicity e-node snapshot, the forward canon
// function, and its EClassId -> []ENodeId inverse index — spec §6's
// "current scope, the e-node stream, and the two canonical-lookup
// arrangements."
type Inputs struct {
	Nodes   map[ids.ENodeID]enode.Shape
	Canon   unionfind.Canon
	Inverse map[ids.EClassID][]ids.ENodeID
}

// Rule is a pure function from the current relations to a multiset of
// proposed merge edges, evaluated in the straight relational style:
// the full body is recomputed every tick.
type Rule interface {
	// Name identifies the rule in logs, telemetry, and config toggles.
	Name() string
	// Apply evaluates the rule body against in and returns the merge
	// edges it proposes this tick.
	Apply(in Inputs) diff.Relation[unionfind.MergeEdge]
}

// DeltaRule is the optional interface a rule implements to use the
// monotone delta-join style instead of full recomputation. The driver
// calls ApplyDelta with both the previous and current tick's Inputs; a
// well-behaved DeltaRule evaluates only against Differentiate(prev,
// curr) plus neu arrangements of curr, so its cost is proportional to
// the delta rather than the whole store.
type DeltaRule interface {
	Rule
	ApplyDelta(prev, curr Inputs) diff.Relation[unionfind.MergeEdge]
}

// Delta is the set of e-node ids new at the current timestamp relative
// to the previous one: the differentiated driving relation a
// monotone delta-join rule chains its neu joins against.
type Delta struct {
	Added map[ids.ENodeID]enode.Shape
}

// Differentiate computes the e-node ids that are new, or whose shape
// changed, between two successive Inputs snapshots. A rule driven by
// Differentiate touches work proportional to the size of the change
// rather than recomputing the full join every tick.
func Differentiate(prev, curr Inputs) Delta {
	added := make(map[ids.ENodeID]enode.Shape)
	for id, shape := range curr.Nodes {
		if old, ok := prev.Nodes[id]; !ok || old != shape {
			added[id] = shape
		}
	}
	return Delta{Added: added}
}

// Integrate folds a delta-join rule's output into an accumulator
// relation, completing the alt/neu/differentiate/integrate discipline
// spec §9 asks the delta-join API to provide.
func Integrate(acc, delta diff.Relation[unionfind.MergeEdge]) {
	acc.Merge(delta)
}

// Driver concatenates the output of every registered rule, plus
// whatever the caller separately folds in from the canonicalizer, into
// the union–find's merge input. Rules compose by concatenation: none of
// them observe each other's output within the same Run.
type Driver struct {
	rules []Rule
}

// NewDriver returns a driver running the given rules, in registration
// order (order only affects telemetry/log ordering — rule outputs are
// concatenated, not sequenced, so evaluation order never changes the
// result).
func NewDriver(rules ...Rule) *Driver {
	return &Driver{rules: append([]Rule(nil), rules...)}
}

// AddRule registers an additional rule.
func (d *Driver) AddRule(r Rule) {
	d.rules = append(d.rules, r)
}

// Rules returns the currently registered rules, in registration order.
func (d *Driver) Rules() []Rule {
	return append([]Rule(nil), d.rules...)
}

// Run evaluates every registered rule against curr (straight rules) or
// against (prev, curr) (delta rules), and returns the concatenation of
// their proposed merge edges. Intended for the boundary between two
// external timestamps (e.g. the saturation loop's first tick after a
// caller inserts or retracts e-nodes), where prev is the previous
// timestamp's Inputs and a DeltaRule's own Differentiate(prev, curr)
// correctly captures what is new.
func (d *Driver) Run(prev, curr Inputs) diff.Relation[unionfind.MergeEdge] {
	out := diff.NewRelation[unionfind.MergeEdge]()
	for _, r := range d.rules {
		var produced diff.Relation[unionfind.MergeEdge]
		if dr, ok := r.(DeltaRule); ok {
			produced = dr.ApplyDelta(prev, curr)
		} else {
			produced = r.Apply(curr)
		}
		out.Merge(produced)
	}
	return out
}

// RunStraight evaluates every registered rule with a full, straight
// recomputation against curr, ignoring any DeltaRule optimization. It
// is what the saturation loop calls for every outer tick after the
// first within a single external timestamp: the e-node domain is fixed
// for the duration of that timestamp, but canon keeps changing tick to
// tick as merges accumulate, and a DeltaRule's own delta (which tracks
// changes to the node relation, not to canon) would wrongly go quiet
// while canon is still moving. Straight evaluation has no such blind
// spot, at the cost of recomputing the full join every tick.
func (d *Driver) RunStraight(curr Inputs) diff.Relation[unionfind.MergeEdge] {
	out := diff.NewRelation[unionfind.MergeEdge]()
	for _, r := range d.rules {
		out.Merge(r.Apply(curr))
	}
	return out
}

// RuleFunc adapts a plain function to the Rule interface, for rules
// simple enough not to need their own named type.
type RuleFunc struct {
	RuleName string
	Fn       func(Inputs) diff.Relation[unionfind.MergeEdge]
}

// Name implements Rule.
func (f RuleFunc) Name() string { return f.RuleName }

// Apply implements Rule.
func (f RuleFunc) Apply(in Inputs) diff.Relation[unionfind.MergeEdge] { return f.Fn(in) }
