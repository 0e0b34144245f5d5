// Package smt implements a 256-bit-keyed sparse Merkle tree compiled-proof
// verifier: an iterative stack machine that replays a proof's instruction
// stream against a caller-supplied set of (key, value) leaves and checks
// the resulting root, never recursing over proof-controlled depth (spec
// §5: "no recursion over user-controlled depth; SMT proof verification is
// iterative over the proof's declared length").
//
// This backs the account/block state roots inside GlobalState and the
// reverted-block-root: both are SMT(key, value) commitments keyed by a
// 256-bit key derived from a small integer (block number, account index).
package smt

import (
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// H256 is an SMT key or node value.
type H256 [32]byte

func (h H256) IsZero() bool { return h == H256{} }

// ComputeKey turns a small integer index (block number, account index) into
// the 256-bit key its SMT entry lives at: the index encoded big-endian into
// the low-order bytes of an otherwise-zero key, matching how the teacher
// pack's reference crates derive SMT keys for sequentially numbered state
// (original_source's `compute_smt_key`).
func ComputeKey(index uint64) H256 {
	var k H256
	for i := 0; i < 8; i++ {
		k[31-i] = byte(index >> (8 * i))
	}
	return k
}

// Pair is one (key, value) entry an SMT commits to.
type Pair struct {
	Key   H256
	Value H256
}

func leafHash(key, value H256) H256 {
	if value.IsZero() {
		return H256{}
	}
	return H256(rollupcrypto.CKBBlake2b(key[:], value[:]))
}

func mergeHash(height byte, key H256, left, right H256) H256 {
	if left.IsZero() && right.IsZero() {
		return H256{}
	}
	return H256(rollupcrypto.CKBBlake2b([]byte{height}, key[:], left[:], right[:]))
}

func bit(k H256, height byte) byte {
	byteIdx := 31 - height/8
	bitIdx := height % 8
	return (k[byteIdx] >> bitIdx) & 1
}

const (
	opLeaf    byte = 0x4C // 'L': consume one leaf from the caller's leaves slice
	opSibling byte = 0x50 // 'P': push a proof-supplied sibling node
	opMerge   byte = 0x4D // 'M': merge top two stack entries at a given height
)

type stackEntry struct {
	node   H256
	height byte
	key    H256
	hasKey bool
}

// VerifyCompiledProof replays proof against leaves (already sorted by key
// ascending, one leaf consumed per opLeaf instruction, in order) and
// reports whether the resulting root equals root.
func VerifyCompiledProof(root H256, leaves []Pair, proof []byte) (bool, error) {
	got, err := ComputeRoot(leaves, proof)
	if err != nil {
		return false, err
	}
	return got == root, nil
}

// ComputeRoot replays proof against leaves the same way VerifyCompiledProof
// does, but returns the resulting root instead of comparing it -- this is
// what reconstructing a KV-state's root from its witness pairs and proof
// needs (challenge lock TxContext checks, §4.2), as opposed to checking a
// single membership claim against an already-known root.
func ComputeRoot(leaves []Pair, proof []byte) (H256, error) {
	var stack []stackEntry
	leafIdx := 0
	i := 0
	for i < len(proof) {
		op := proof[i]
		i++
		switch op {
		case opLeaf:
			if i+32 > len(proof) {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: truncated leaf key in proof")
			}
			var key H256
			copy(key[:], proof[i:i+32])
			i += 32
			if leafIdx >= len(leaves) {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: proof consumes more leaves than supplied")
			}
			if leaves[leafIdx].Key != key {
				return H256{}, ckberrors.New(ckberrors.Encoding, "smt: leaf key mismatch")
			}
			value := leaves[leafIdx].Value
			leafIdx++
			stack = append(stack, stackEntry{node: leafHash(key, value), height: 0, key: key, hasKey: true})
		case opSibling:
			if i+1 > len(proof) {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: truncated sibling height in proof")
			}
			height := proof[i]
			i++
			if i+32 > len(proof) {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: truncated sibling node in proof")
			}
			var node H256
			copy(node[:], proof[i:i+32])
			i += 32
			stack = append(stack, stackEntry{node: node, height: height, hasKey: false})
		case opMerge:
			if i+1 > len(proof) {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: truncated merge height in proof")
			}
			height := proof[i]
			i++
			if len(stack) < 2 {
				return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: merge with fewer than two stack entries")
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			merged, err := mergeEntries(height, a, b)
			if err != nil {
				return H256{}, err
			}
			stack = append(stack, merged)
		default:
			return H256{}, ckberrors.New(ckberrors.Encoding, "smt: unknown proof opcode")
		}
	}
	if leafIdx != len(leaves) {
		return H256{}, ckberrors.New(ckberrors.LengthNotEnough, "smt: proof did not consume every supplied leaf")
	}
	if len(stack) != 1 {
		return H256{}, ckberrors.New(ckberrors.Encoding, "smt: proof did not reduce to a single root")
	}
	return stack[0].node, nil
}

func mergeEntries(height byte, a, b stackEntry) (stackEntry, error) {
	key, ok := pickKey(a, b)
	if !ok {
		return stackEntry{}, ckberrors.New(ckberrors.Encoding, "smt: merge with no keyed operand")
	}
	left, right := orient(key, height, a, b)
	return stackEntry{node: mergeHash(height, key, left, right), height: height + 1, key: key, hasKey: true}, nil
}

func pickKey(a, b stackEntry) (H256, bool) {
	if a.hasKey {
		return a.key, true
	}
	if b.hasKey {
		return b.key, true
	}
	return H256{}, false
}

// orient decides which of a/b is the left child at height using the
// oriented key's bit; the unkeyed sibling always takes the opposite side.
func orient(key H256, height byte, a, b stackEntry) (left, right H256) {
	aIsLeft := true
	if a.hasKey {
		aIsLeft = bit(a.key, height) == 0
	} else if b.hasKey {
		aIsLeft = bit(b.key, height) != 0
	} else {
		aIsLeft = bit(key, height) == 0
	}
	if aIsLeft {
		return a.node, b.node
	}
	return b.node, a.node
}
