// Package saturate drives the nested iterative scope that wraps the
// five core components into one converging engine: an inner fixpoint
// over the union–find and canonicalizer, wrapped by an outer fixpoint
// over the rewrite driver feeding fresh merge edges back into the next
// inner fixpoint, per spec §4.6/§5's "a worker alternates an inner
// iterative scope... with an outer iterative scope."
//
// Grounded on pkg/storage/badger.go's retry-with-backoff Update loop
// for the general shape of a bounded, probed convergence loop, and on
// apoc/refactor/refactor.go's repeated merge-then-reindex passes for
// the specific idea of alternating two kinds of fixed-point work until
// neither produces anything new.
package saturate

import (
	"context"
	"fmt"

	"github.com/egraphlab/saturate/internal/canon"
	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/rewrite"
	"github.com/egraphlab/saturate/internal/telemetry"
	"github.com/egraphlab/saturate/internal/unionfind"
	"github.com/egraphlab/saturate/internal/xerr"
	"github.com/egraphlab/saturate/internal/xlog"
)

// Output is the saturation loop's result for one Run call: the
// hash-consed e-node table and the canon relation it was computed
// against, both taken at outer fixpoint.
type Output struct {
	// CanonicalEnodes is the canonicalizer's representative table at
	// outer fixpoint.
	CanonicalEnodes map[ids.ENodeID]enode.Shape
	// EnodeToEClass is the canon relation at outer fixpoint: every
	// e-node id currently in the store's domain mapped to its
	// equivalence class.
	EnodeToEClass unionfind.Canon
}

// Loop is the saturation engine: it owns a Store to read from, a
// rewrite Driver to consult, and the Inputs snapshot carried from one
// external Run call to the next. Merge edges are not carried: each Run
// rebuilds them from an empty relation.
type Loop struct {
	store  *enode.Store
	driver *rewrite.Driver

	maxOuterIterations int
	maxInnerIterations int
	probe              telemetry.Probe
	logger             xlog.Logger

	closed bool

	// prevInputs is the Inputs snapshot as of the end of the previous
	// successful Run call, the "alt" timestamp a DeltaRule's
	// Differentiate compares the new tick's Inputs against on the very
	// first outer tick of the next Run. It starts out zero-valued
	// (empty Nodes, nil Canon/Inverse), which is exactly right for the
	// very first Run of a Loop's lifetime: everything is new.
	prevInputs rewrite.Inputs
}

// Option configures a Loop at construction.
type Option func(*Loop)

// WithMaxOuterIterations bounds the outer (rewrite-feedback) fixpoint.
// Exceeding it surfaces xerr.ErrNonConvergent, never an internal panic
// or timeout, per spec §7.
func WithMaxOuterIterations(n int) Option {
	return func(l *Loop) { l.maxOuterIterations = n }
}

// WithMaxInnerIterations bounds each inner (union-find label
// propagation) fixpoint, forwarded to unionfind.CanonicalizeBounded.
func WithMaxInnerIterations(n int) Option {
	return func(l *Loop) { l.maxInnerIterations = n }
}

// WithProbe attaches a telemetry.Probe the loop notifies at tick and
// inner-fixpoint boundaries. Defaults to telemetry.NoopProbe.
func WithProbe(p telemetry.Probe) Option {
	return func(l *Loop) { l.probe = p }
}

// WithLogger attaches an xlog.Logger. Defaults to xlog.Noop.
func WithLogger(logger xlog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// DefaultMaxOuterIterations bounds the rewrite-feedback fixpoint absent
// an explicit WithMaxOuterIterations option.
const DefaultMaxOuterIterations = 1_000

// NewLoop returns a Loop reading from store and consulting driver,
// configured by opts.
func NewLoop(store *enode.Store, driver *rewrite.Driver, opts ...Option) *Loop {
	l := &Loop{
		store:              store,
		driver:             driver,
		maxOuterIterations: DefaultMaxOuterIterations,
		maxInnerIterations: unionfind.DefaultMaxIterations,
		probe:              telemetry.NoopProbe{},
		logger:             xlog.Noop{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close marks the loop closed; subsequent Run calls return
// xerr.ErrClosedEngine. Closing is terminal and idempotent.
func (l *Loop) Close() {
	l.closed = true
}

// Run drives the nested iterative scope to outer fixpoint against the
// store's current snapshot and returns the resulting Output.
//
// Because Run always recomputes from the store's current snapshot
// rather than mutating persistent merge state across calls, a
// retraction between two Run calls is sound for free: the retracted
// e-node id simply no longer appears in the domain, so it cannot match
// any rewrite rule or canonicalizer group on this or any later Run,
// and any merge that depended solely on its presence reverts (spec §8
// Scenario 3).
func (l *Loop) Run(ctx context.Context) (Output, error) {
	if l.closed {
		return Output{}, xerr.ErrClosedEngine
	}

	domainShapes := l.store.Snapshot()
	merges := diff.NewRelation[unionfind.MergeEdge]()

	var (
		currOut    Output
		currInputs rewrite.Inputs
		outerTick  int
	)

	for outerTick = 0; outerTick < l.maxOuterIterations; outerTick++ {
		// Captured before this tick's inner fixpoint and rule
		// evaluation touch merges, so the comparison at the bottom of
		// the loop measures the full tick's contribution — inner
		// fixpoint's new canonicalizer merges included.
		mergesBefore := len(merges)

		innerOut, innerCanon, innerIterations, err := l.runInnerFixpoint(domainShapes, merges)
		if err != nil {
			return Output{}, fmt.Errorf("saturate: outer tick %d: %w", outerTick, err)
		}
		l.probe.OnInnerFixpoint(ctx, innerIterations)

		// Nodes is the raw, full-domain e-node snapshot — not the
		// canonicalizer's deduped representative table — per
		// rewrite.Inputs' own "current positive-multiplicity e-node
		// snapshot" contract. A Rule canonicalizes whatever operands or
		// ids it needs through Canon/Inverse itself; handing it an
		// already-deduped Nodes would silently hide every non-
		// representative e-node id from matching.
		currInputs = rewrite.Inputs{
			Nodes:   domainShapes,
			Canon:   innerCanon,
			Inverse: innerCanon.Invert(),
		}

		var proposed diff.Relation[unionfind.MergeEdge]
		if outerTick == 0 {
			// First outer tick of this external Run: compare against
			// the previous external call's final Inputs, so a
			// DeltaRule's Differentiate sees exactly what changed since
			// then.
			proposed = l.driver.Run(l.prevInputs, currInputs)
		} else {
			// Later ticks within the same Run: the node domain hasn't
			// moved, only canon has, so every rule must be fully
			// re-evaluated rather than trusting a stale delta.
			proposed = l.driver.RunStraight(currInputs)
		}

		merges.Merge(proposed)
		merges = diff.Distinct(merges)

		currOut = Output{CanonicalEnodes: innerOut.CanonicalEnodes, EnodeToEClass: innerCanon}

		l.probe.OnTick(ctx, outerTick, len(merges)-mergesBefore, len(currInputs.Inverse))
		l.logger.Debug("saturation tick",
			xlog.F("tick", outerTick),
			xlog.F("merges", len(merges)),
			xlog.F("eclasses", len(currInputs.Inverse)),
		)

		// Tick 0 never ends the loop: merges start empty on every Run,
		// but a DeltaRule on tick 0 only sees the nodes that changed
		// since the previous Run, so at least one straight tick is needed
		// to rebuild the merges unchanged nodes still imply.
		if outerTick > 0 && len(merges) == mergesBefore {
			// Outer fixpoint: this tick's inner fixpoint and rule
			// evaluation together produced nothing the relation wasn't
			// already holding at the start of the tick.
			l.prevInputs = currInputs
			return currOut, nil
		}
	}

	return Output{}, fmt.Errorf("saturate: %w after %d outer ticks", xerr.ErrNonConvergent, l.maxOuterIterations)
}

// runInnerFixpoint alternates union-find label propagation and
// canonicalizer grouping until neither produces a new merge edge,
// i.e. until the inner iterative scope converges.
func (l *Loop) runInnerFixpoint(domainShapes map[ids.ENodeID]enode.Shape, merges diff.Relation[unionfind.MergeEdge]) (canon.Result, unionfind.Canon, int, error) {
	domainIDs := make([]ids.ENodeID, 0, len(domainShapes))
	for id := range domainShapes {
		domainIDs = append(domainIDs, id)
	}

	current := merges.Clone()
	var result canon.Result
	var c unionfind.Canon

	for iter := 0; iter < l.maxInnerIterations; iter++ {
		clamped := diff.Distinct(current)

		var err error
		c, err = unionfind.CanonicalizeBounded(domainIDs, clamped, l.maxInnerIterations)
		if err != nil {
			return canon.Result{}, nil, iter, err
		}

		result = canon.Canonicalize(domainShapes, c)

		next := clamped.Clone()
		next.Merge(result.NewMerges)
		next = diff.Distinct(next)

		if diff.Equal(next, clamped) {
			merges.Merge(result.NewMerges)
			return result, c, iter + 1, nil
		}
		current = next
	}

	return canon.Result{}, nil, l.maxInnerIterations, fmt.Errorf("unionfind/canon inner scope: %w", xerr.ErrNonConvergent)
}
