package enode

import (
	"sync"

	"github.com/egraphlab/saturate/internal/diff"
	"github.com/egraphlab/saturate/internal/ids"
)

// Store is a thread-safe, append/retract-only multiset relation keyed by
// ENodeID, valued by Shape, with a signed multiplicity per (id, shape)
// pair. It never mutates an existing pair in place: a change is always
// modeled as retraction of the old pair followed by insertion of the
// new one, matching the engine's ownership rule that the store is
// read-only inside the saturation loop.
//
// Grounded on pkg/storage/memory.go's indexed, RWMutex-guarded map
// store, generalized from single-multiplicity node storage to a signed
// multiset.
type Store struct {
	mu      sync.RWMutex
	byID    map[ids.ENodeID]diff.Relation[Shape]
	streams int // count of independent input streams concatenated so far
}

// NewStore returns an empty e-node store.
func NewStore() *Store {
	return &Store{byID: make(map[ids.ENodeID]diff.Relation[Shape])}
}

// Insert adds one positive occurrence of (id, shape). Repeatable:
// callers may insert the same pair multiple times; multiplicities sum.
func (s *Store) Insert(id ids.ENodeID, shape Shape) {
	s.Add(id, shape, 1)
}

// Retract removes one positive occurrence of (id, shape), modeled as a
// multiplicity of -1 folded against any existing positive count.
func (s *Store) Retract(id ids.ENodeID, shape Shape) {
	s.Add(id, shape, -1)
}

// Add applies a raw signed delta to (id, shape). The engine accepts any
// number of independent input streams and concatenates them; Add is how
// each stream's updates land in the shared store.
func (s *Store) Add(id ids.ENodeID, shape Shape, delta diff.Multiplicity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, ok := s.byID[id]
	if !ok {
		rel = diff.NewRelation[Shape]()
		s.byID[id] = rel
	}
	rel.Add(shape, delta)
	if len(rel) == 0 {
		delete(s.byID, id)
	}
}

// ConcatStream folds every (id, shape, delta) triple in a batch into the
// store as one logical input stream. Multiple calls model multiple
// concatenated streams, per the store's contract.
func (s *Store) ConcatStream(batch []Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams++
	for _, u := range batch {
		rel, ok := s.byID[u.ID]
		if !ok {
			rel = diff.NewRelation[Shape]()
			s.byID[u.ID] = rel
		}
		rel.Add(u.Shape, u.Delta)
		if len(rel) == 0 {
			delete(s.byID, u.ID)
		}
	}
}

// Update is one (ENodeID, Shape) pair with a signed multiplicity, the
// wire shape of the add_enodes input stream (spec §6).
type Update struct {
	ID    ids.ENodeID
	Shape Shape
	Delta diff.Multiplicity
}

// Snapshot returns the store's current positive-multiplicity projection:
// for each id with positive total multiplicity, its shape. Per the
// store's invariant, at most one shape has positive multiplicity for any
// given id at any time; if that invariant is violated by a caller, the
// first shape encountered with positive multiplicity wins (map iteration
// order), since Snapshot never panics on caller error — it is a pure
// read of derived state, not a validator.
func (s *Store) Snapshot() map[ids.ENodeID]Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[ids.ENodeID]Shape, len(s.byID))
	for id, rel := range s.byID {
		for shape, count := range rel {
			if count > 0 {
				out[id] = shape
				break
			}
		}
	}
	return out
}

// Len reports the number of e-node ids currently holding positive
// multiplicity.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rel := range s.byID {
		for _, count := range rel {
			if count > 0 {
				n++
				break
			}
		}
	}
	return n
}

// Contains reports whether id currently has positive multiplicity.
func (s *Store) Contains(id ids.ENodeID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, count := range s.byID[id] {
		if count > 0 {
			return true
		}
	}
	return false
}
