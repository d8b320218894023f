// Package enode defines the e-node shape variants and the append/retract
// multiset store that holds them.
package enode

import (
	"encoding/binary"

	"github.com/egraphlab/saturate/internal/ids"
)

// Kind tags which operator variant a Shape carries. The variant set is
// closed but extensible: adding a new operator means adding one new
// Kind constant and one new Shape implementation, never touching the
// canonicalizer's dispatch loop (it ranges over Operands()).
type Kind uint8

const (
	// KindConstant is a 0-ary leaf; it contributes no operands to the
	// canonicalizer's slot-projection relations.
	KindConstant Kind = iota
	// KindAdd is binary addition: Add(lhs, rhs).
	KindAdd
	// KindSub is binary subtraction: Sub(lhs, rhs).
	KindSub
)

// String names the kind, used in the CLI's printed output.
func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindAdd:
		return "Add"
	case KindSub:
		return "Sub"
	default:
		return "Unknown"
	}
}

// Shape is a structural e-node: a tagged variant over operator kinds
// whose operand slots reference e-class ids, never raw e-node ids.
// Shape values must be comparable (used as map keys in the store's
// per-id relation and compared with != when differentiating snapshots),
// so every implementation is a plain struct of comparable fields.
type Shape interface {
	// ShapeKind identifies the variant.
	ShapeKind() Kind
	// Operands returns the shape's operand slots in a fixed, stable
	// order. Constant returns nil: it has no operands to canonicalize.
	Operands() []ids.EClassID
	// WithOperands returns a new Shape of the same kind with its
	// operand slots replaced, in the same order Operands() reported
	// them. Used by the canonicalizer to rewrite raw operands to
	// canonical e-class ids without mutating the original.
	WithOperands(canonical []ids.EClassID) Shape
	// Payload returns shape-specific bytes that distinguish values the
	// operand slots don't capture — Constant's scalar value, for
	// instance. Shapes with nothing beyond kind and operands return
	// nil. The canonicalizer folds this into the hash-cons digest
	// alongside ShapeKind and Operands, so two Constant e-nodes only
	// hash-cons together when their Value is equal.
	Payload() []byte
}

// Constant is a 0-ary leaf e-node carrying a scalar value. The value is
// load-bearing: without it every Constant e-node would hash-cons into
// one group regardless of which value it actually holds, since
// ShapeKind and Operands alone can't distinguish them.
type Constant struct {
	Value int64
}

// ShapeKind implements Shape.
func (Constant) ShapeKind() Kind { return KindConstant }

// Operands implements Shape: constants have none.
func (Constant) Operands() []ids.EClassID { return nil }

// WithOperands implements Shape: a constant ignores the (empty) slice.
func (c Constant) WithOperands([]ids.EClassID) Shape { return c }

// Payload implements Shape: the constant's value, big-endian encoded.
func (c Constant) Payload() []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(c.Value))
	return buf[:]
}

// Add is binary addition over two e-classes.
type Add struct {
	Lhs, Rhs ids.EClassID
}

// ShapeKind implements Shape.
func (Add) ShapeKind() Kind { return KindAdd }

// Operands implements Shape, in (lhs, rhs) order.
func (a Add) Operands() []ids.EClassID { return []ids.EClassID{a.Lhs, a.Rhs} }

// WithOperands implements Shape.
func (a Add) WithOperands(canonical []ids.EClassID) Shape {
	return Add{Lhs: canonical[0], Rhs: canonical[1]}
}

// Payload implements Shape: Add has nothing beyond its operands.
func (Add) Payload() []byte { return nil }

// Sub is binary subtraction over two e-classes.
type Sub struct {
	Lhs, Rhs ids.EClassID
}

// ShapeKind implements Shape.
func (Sub) ShapeKind() Kind { return KindSub }

// Operands implements Shape, in (lhs, rhs) order.
func (s Sub) Operands() []ids.EClassID { return []ids.EClassID{s.Lhs, s.Rhs} }

// WithOperands implements Shape.
func (s Sub) WithOperands(canonical []ids.EClassID) Shape {
	return Sub{Lhs: canonical[0], Rhs: canonical[1]}
}

// Payload implements Shape: Sub has nothing beyond its operands.
func (Sub) Payload() []byte { return nil }
