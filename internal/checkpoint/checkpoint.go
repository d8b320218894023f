// Package checkpoint captures and restores a saturation loop's output
// relations to a badger-backed store, implementing the convenience
// spec.md §6 allows without mandating: "the host may checkpoint by
// capturing the output relations and re-inserting them; no bit-exact
// persistence contract is mandated by this core." This package is
// that host-side convenience, not a core obligation — the saturation
// loop itself has no notion of checkpoints.
//
// Grounded on pkg/storage/badger.go's single-byte key-prefix scheme
// and db.Update/db.View transaction wrapper, narrowed from that
// file's Node/Edge/index key families down to the two relations
// spec.md §6 names as outputs.
package checkpoint

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/egraphlab/saturate/internal/enode"
	"github.com/egraphlab/saturate/internal/ids"
	"github.com/egraphlab/saturate/internal/saturate"
	"github.com/egraphlab/saturate/internal/unionfind"
	"github.com/egraphlab/saturate/internal/xerr"
)

// Key prefixes, single-byte per pkg/storage/badger.go's convention.
const (
	prefixCanonicalEnode = byte(0x01) // canonical_enodes: enode_id -> JSON(wireShape)
	prefixEnodeToEClass  = byte(0x02) // enode_to_eclass: enode_id -> eclass_id
)

// Store wraps a badger.DB as a checkpoint store for saturate.Output.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger-backed checkpoint store
// rooted at dataDir.
func Open(dataDir string) (*Store, error) {
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", dataDir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying badger.DB.
func (s *Store) Close() error {
	return s.db.Close()
}

// wireShape is the JSON-serializable projection of enode.Shape stored
// in canonical_enodes: a kind tag, its operand e-class ids, and a
// Constant's value, sufficient to reconstruct any of the closed variant set (spec.md
// §9's "Dispatch over variants").
type wireShape struct {
	Kind     uint8          `json:"kind"`
	Operands []ids.EClassID `json:"operands,omitempty"`
	Value    int64          `json:"value,omitempty"`
}

func toWire(shape enode.Shape) wireShape {
	w := wireShape{Kind: uint8(shape.ShapeKind()), Operands: shape.Operands()}
	if c, ok := shape.(enode.Constant); ok {
		w.Value = c.Value
	}
	return w
}

func fromWire(w wireShape) (enode.Shape, error) {
	switch enode.Kind(w.Kind) {
	case enode.KindConstant:
		return enode.Constant{Value: w.Value}, nil
	case enode.KindAdd:
		if len(w.Operands) != 2 {
			return nil, fmt.Errorf("checkpoint: %w: add wants 2 operands, got %d", xerr.ErrShapeMismatch, len(w.Operands))
		}
		return enode.Add{Lhs: w.Operands[0], Rhs: w.Operands[1]}, nil
	case enode.KindSub:
		if len(w.Operands) != 2 {
			return nil, fmt.Errorf("checkpoint: %w: sub wants 2 operands, got %d", xerr.ErrShapeMismatch, len(w.Operands))
		}
		return enode.Sub{Lhs: w.Operands[0], Rhs: w.Operands[1]}, nil
	default:
		return nil, fmt.Errorf("checkpoint: unrecognized shape kind %d", w.Kind)
	}
}

func canonicalEnodeKey(id ids.ENodeID) []byte {
	key := make([]byte, 9)
	key[0] = prefixCanonicalEnode
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

func enodeToEClassKey(id ids.ENodeID) []byte {
	key := make([]byte, 9)
	key[0] = prefixEnodeToEClass
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}

// Capture persists out's two output relations as one badger
// transaction, so a reader never observes one relation updated
// without the other.
func (s *Store) Capture(out saturate.Output) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for id, shape := range out.CanonicalEnodes {
			data, err := json.Marshal(toWire(shape))
			if err != nil {
				return fmt.Errorf("checkpoint: encode enode %s: %w", id, err)
			}
			if err := txn.Set(canonicalEnodeKey(id), data); err != nil {
				return err
			}
		}
		for id, eclass := range out.EnodeToEClass {
			var buf [8]byte
			binary.BigEndian.PutUint64(buf[:], uint64(eclass))
			if err := txn.Set(enodeToEClassKey(id), buf[:]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Restore reads back a previously captured saturate.Output in full.
func (s *Store) Restore() (saturate.Output, error) {
	out := saturate.Output{
		CanonicalEnodes: make(map[ids.ENodeID]enode.Shape),
		EnodeToEClass:   make(unionfind.Canon),
	}

	err := s.db.View(func(txn *badger.Txn) error {
		if err := scanPrefix(txn, prefixCanonicalEnode, func(id ids.ENodeID, val []byte) error {
			var w wireShape
			if err := json.Unmarshal(val, &w); err != nil {
				return fmt.Errorf("checkpoint: decode enode %s: %w", id, err)
			}
			shape, err := fromWire(w)
			if err != nil {
				return err
			}
			out.CanonicalEnodes[id] = shape
			return nil
		}); err != nil {
			return err
		}

		return scanPrefix(txn, prefixEnodeToEClass, func(id ids.ENodeID, val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("checkpoint: malformed eclass value for enode %s", id)
			}
			out.EnodeToEClass[id] = ids.EClassID(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	if err != nil {
		return saturate.Output{}, err
	}
	return out, nil
}

// scanPrefix iterates every key under prefix, decoding the trailing 8
// bytes as the owning ENodeID and handing the value to fn.
func scanPrefix(txn *badger.Txn, prefix byte, fn func(id ids.ENodeID, val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefixBytes := []byte{prefix}
	for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
		item := it.Item()
		key := item.KeyCopy(nil)
		id := ids.ENodeID(binary.BigEndian.Uint64(key[1:]))

		if err := item.Value(func(val []byte) error {
			return fn(id, append([]byte(nil), val...))
		}); err != nil {
			return err
		}
	}
	return nil
}
