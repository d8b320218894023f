package canon

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/egraphlab/saturate/internal/enode"
)

// Digest is a stable, content-addressed fingerprint of a canonicalized
// Shape: its kind tag, its operand e-class ids in order, and its
// Payload (e.g. Constant's Value). Two shapes with the same Digest are
// the same canonical shape and belong to the same hash-cons group.
//
// Computed with blake2b-256 — repurposed from the teacher's
// golang.org/x/crypto dependency, which there backs bcrypt/pbkdf2
// password hashing (pkg/auth, pkg/encryption), neither of which has a
// role in an e-graph. A structural digest gives every shape-equivalence
// class a stable, loggable, checkpoint-friendly identifier independent
// of Go's unspecified map iteration order, which a bare struct-as-map-key
// grouping would not provide.
type Digest [32]byte

// ShapeDigest computes the digest of a single Shape.
func ShapeDigest(s enode.Shape) Digest {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 with a nil key only fails on a bad key length;
		// nil is always valid, so this branch is unreachable in
		// practice and exists only to satisfy the error return.
		panic("canon: blake2b.New256 with nil key: " + err.Error())
	}

	h.Write([]byte{byte(s.ShapeKind())})
	var buf [8]byte
	for _, operand := range s.Operands() {
		binary.BigEndian.PutUint64(buf[:], uint64(operand))
		h.Write(buf[:])
	}
	if payload := s.Payload(); payload != nil {
		h.Write(payload)
	}

	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
