// Package fairness implements the commit-reveal protocol and the
// deterministic random stream derived from a revealed seed.
//
// Commitments are SHA-256 of the 32 seed bytes. The stream is
//
//	combined = Keccak256(seed || snapshot)
//	r_i      = uint256(Keccak256(combined || uint256_be(i))) mod totalWeight + 1
//
// so anyone holding (seed, snapshot, totalWeight) can recompute every draw.
// The modulo reduction carries a negligible bias that is kept on purpose:
// changing it would change already published results.
package fairness

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"fairdraw/internal/models"

	"golang.org/x/crypto/sha3"
)

// Commit returns the commitment hash published for serverSeed.
func Commit(serverSeed models.Hash) models.Hash {
	return sha256.Sum256(serverSeed[:])
}

// Seal is either Committed (only the hash is known) or Revealed (the
// preimage has been checked against the hash).
type Seal interface {
	CommitmentHash() models.Hash
	sealed()
}

// Committed holds a published commitment whose seed is still secret.
type Committed struct {
	hash models.Hash
}

// NewCommitted wraps a published commitment hash.
func NewCommitted(commitment models.Hash) (Committed, error) {
	if commitment.IsZero() {
		return Committed{}, models.ErrZeroCommitment
	}
	return Committed{hash: commitment}, nil
}

func (c Committed) CommitmentHash() models.Hash { return c.hash }

func (Committed) sealed() {}

// Reveal checks serverSeed against the commitment.
func (c Committed) Reveal(serverSeed models.Hash) (Revealed, error) {
	if Commit(serverSeed) != c.hash {
		return Revealed{}, models.ErrInvalidSeed
	}
	return Revealed{hash: c.hash, seed: serverSeed}, nil
}

// Revealed holds a commitment together with its verified preimage. The only
// way to obtain one is Committed.Reveal.
type Revealed struct {
	hash models.Hash
	seed models.Hash
}

func (r Revealed) CommitmentHash() models.Hash { return r.hash }

func (r Revealed) Seed() models.Hash { return r.seed }

func (Revealed) sealed() {}

// Stream derives count draws in [1, totalWeight] from the revealed seed.
func (r Revealed) Stream(snapshot models.Hash, totalWeight uint64, count int) ([]uint64, error) {
	return DeriveRandomStream(r.seed, snapshot, totalWeight, count)
}

// DeriveRandomStream is a pure function of its inputs; identical inputs
// always yield identical output.
func DeriveRandomStream(serverSeed, snapshot models.Hash, totalWeight uint64, count int) ([]uint64, error) {
	if totalWeight == 0 {
		return nil, models.ErrNoEntries
	}
	if count < 0 {
		return nil, models.ErrNegativeCount
	}

	combined := keccak256(serverSeed[:], snapshot[:])
	modulus := new(big.Int).SetUint64(totalWeight)
	out := make([]uint64, count)
	n := new(big.Int)
	for i := 0; i < count; i++ {
		digest := keccak256(combined[:], uint256(uint64(i)))
		n.SetBytes(digest[:])
		n.Mod(n, modulus)
		out[i] = n.Uint64() + 1
	}
	return out, nil
}

// Verify recomputes the stream and compares it with published numbers.
func Verify(serverSeed, snapshot models.Hash, totalWeight uint64, published []uint64) error {
	if len(published) == 0 {
		return models.ErrEmptyStream
	}
	derived, err := DeriveRandomStream(serverSeed, snapshot, totalWeight, len(published))
	if err != nil {
		return err
	}
	for i := range derived {
		if derived[i] != published[i] {
			return fmt.Errorf("%w: draw %d published %d, derived %d",
				models.ErrStreamMismatch, i+1, published[i], derived[i])
		}
	}
	return nil
}

func keccak256(parts ...[]byte) models.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out models.Hash
	h.Sum(out[:0])
	return out
}

// uint256 encodes v as a 32-byte big-endian word.
func uint256(v uint64) []byte {
	var word [32]byte
	binary.BigEndian.PutUint64(word[24:], v)
	return word[:]
}
