// Package cbmt implements a complete-binary-Merkle-tree indices+lemmas
// proof verifier, used for a block's tx-witness-root and
// withdrawal-witness-root (spec §4.1.5, §6.bis). Unlike the SMT, a CBMT
// has no fixed 256-bit key space: it commits to a dense, 0-indexed leaf
// list, and a proof names which leaf indices it covers plus the sibling
// hashes ("lemmas") needed to fold them up to the root.
package cbmt

import (
	"sort"

	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Hash32 is a CBMT node hash.
type Hash32 [32]byte

// LeafHash hashes one leaf's witness bytes with the plain (non-personalized)
// Blake2b the spec reserves for CBMT, distinct from the rollup's
// domain-separated hash (§9: "the hashers are domain-separated").
func LeafHash(data []byte) Hash32 {
	return Hash32(rollupcrypto.PlainBlake2b(data))
}

func mergeHash(left, right Hash32) Hash32 {
	return Hash32(rollupcrypto.PlainBlake2b(left[:], right[:]))
}

// generalized-index helpers: node 1 is the root; node i has children
// 2i and 2i+1 and parent i/2. Leaves of a tree with `size` leaves occupy
// indices [size, 2*size).
func parentOf(i uint64) uint64 { return i / 2 }
func siblingOf(i uint64) uint64 {
	if i%2 == 0 {
		return i + 1
	}
	return i - 1
}
func isLeft(i uint64) bool { return i%2 == 0 }

// leafIndex converts a 0-based leaf position into its generalized index
// for a tree with the given number of leaves.
func leafIndex(size, pos uint64) uint64 { return size + pos }

// BuildRoot computes the CBMT root directly over a dense leaf-hash list
// (used by tests and by off-chain callers that construct witnesses; the
// on-chain verifier only ever calls VerifyProof).
func BuildRoot(leaves []Hash32) Hash32 {
	if len(leaves) == 0 {
		return Hash32{}
	}
	size := uint64(len(leaves))
	nodes := make([]Hash32, 2*size)
	copy(nodes[leafIndex(size, 0):], leaves)
	for i := size - 1; i >= 1; i-- {
		nodes[i] = mergeHash(nodes[2*i], nodes[2*i+1])
	}
	return nodes[1]
}

// VerifyProof checks that the leaves at indices (paired positionally with
// leafHashes) fold up to root under a complete binary tree of size leaves,
// using lemmas as the additional sibling hashes the proof supplies --
// iterative, bounded by len(indices)+len(lemmas), never recursive over
// proof-controlled depth (spec §5).
func VerifyProof(root Hash32, size uint64, indices []uint32, leafHashes []Hash32, lemmas []Hash32) (bool, error) {
	if len(indices) != len(leafHashes) {
		return false, ckberrors.New(ckberrors.Encoding, "cbmt: indices and leaf hashes length mismatch")
	}
	if size == 0 {
		return false, ckberrors.New(ckberrors.Encoding, "cbmt: tree size must be nonzero")
	}
	if size == 1 {
		if len(indices) != 1 || indices[0] != 0 {
			return false, ckberrors.New(ckberrors.Encoding, "cbmt: single-leaf tree must prove index 0")
		}
		return leafHashes[0] == root, nil
	}

	pending := make(map[uint64]Hash32, len(indices))
	for i, idx := range indices {
		if uint64(idx) >= size {
			return false, ckberrors.New(ckberrors.IndexOutOfBound, "cbmt: leaf index out of bound")
		}
		pending[leafIndex(size, uint64(idx))] = leafHashes[i]
	}

	lemmaIdx := 0
	nextLemma := func() (Hash32, error) {
		if lemmaIdx >= len(lemmas) {
			return Hash32{}, ckberrors.New(ckberrors.LengthNotEnough, "cbmt: proof ran out of lemmas")
		}
		l := lemmas[lemmaIdx]
		lemmaIdx++
		return l, nil
	}

	for {
		if len(pending) == 1 {
			if _, ok := pending[1]; ok {
				break
			}
		}
		if len(pending) == 0 {
			return false, ckberrors.New(ckberrors.Encoding, "cbmt: exhausted proof before reaching root")
		}
		keys := make([]uint64, 0, len(pending))
		for gi := range pending {
			keys = append(keys, gi)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
		cur := keys[0]
		curHash := pending[cur]
		delete(pending, cur)

		sib := siblingOf(cur)
		sibHash, ok := pending[sib]
		if ok {
			delete(pending, sib)
		} else {
			var err error
			sibHash, err = nextLemma()
			if err != nil {
				return false, err
			}
		}
		var parent Hash32
		if isLeft(cur) {
			parent = mergeHash(curHash, sibHash)
		} else {
			parent = mergeHash(sibHash, curHash)
		}
		pending[parentOf(cur)] = parent
	}
	if lemmaIdx != len(lemmas) {
		return false, ckberrors.New(ckberrors.Encoding, "cbmt: proof supplied unused lemmas")
	}
	return pending[1] == root, nil
}
