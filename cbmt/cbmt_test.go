package cbmt

import "testing"

func leaf(b byte) Hash32 {
	var h Hash32
	h[0] = b
	return h
}

func TestVerifyProofSingleLeafAmongFour(t *testing.T) {
	leaves := []Hash32{leaf(1), leaf(2), leaf(3), leaf(4)}
	root := BuildRoot(leaves)

	// index 2's generalized position is size+2 = 6; its sibling is 7
	// (leaf(4)), then parent 3's sibling is 2 (hash of leaves[0],leaves[1]).
	l01 := mergeHash(leaves[0], leaves[1])
	lemmas := []Hash32{leaves[3], l01}

	ok, err := VerifyProof(root, 4, []uint32{2}, []Hash32{leaves[2]}, lemmas)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected proof to verify")
	}
}

func TestVerifyProofTwoAdjacentLeaves(t *testing.T) {
	leaves := []Hash32{leaf(1), leaf(2), leaf(3), leaf(4)}
	root := BuildRoot(leaves)

	l01 := mergeHash(leaves[0], leaves[1])
	lemmas := []Hash32{l01}

	ok, err := VerifyProof(root, 4, []uint32{2, 3}, []Hash32{leaves[2], leaves[3]}, lemmas)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected two-leaf proof to verify")
	}
}

func TestVerifyProofRejectsWrongRoot(t *testing.T) {
	leaves := []Hash32{leaf(1), leaf(2), leaf(3), leaf(4)}
	root := BuildRoot(leaves)
	root[0] ^= 0xFF
	l01 := mergeHash(leaves[0], leaves[1])
	ok, err := VerifyProof(root, 4, []uint32{2, 3}, []Hash32{leaves[2], leaves[3]}, []Hash32{l01})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected mismatched root to fail")
	}
}

func TestVerifyProofRejectsIndexOutOfBound(t *testing.T) {
	leaves := []Hash32{leaf(1), leaf(2), leaf(3), leaf(4)}
	root := BuildRoot(leaves)
	if _, err := VerifyProof(root, 4, []uint32{9}, []Hash32{leaf(1)}, nil); err == nil {
		t.Fatal("expected out-of-bound index to be rejected")
	}
}

func TestVerifyProofRejectsUnusedLemmas(t *testing.T) {
	leaves := []Hash32{leaf(1), leaf(2), leaf(3), leaf(4)}
	root := BuildRoot(leaves)
	l01 := mergeHash(leaves[0], leaves[1])
	_, err := VerifyProof(root, 4, []uint32{2, 3}, []Hash32{leaves[2], leaves[3]}, []Hash32{l01, l01})
	if err == nil {
		t.Fatal("expected unused lemma to be rejected")
	}
}

func TestVerifyProofSingleLeafTree(t *testing.T) {
	root := leaf(7)
	ok, err := VerifyProof(Hash32(root), 1, []uint32{0}, []Hash32{leaf(7)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected single-leaf tree to verify")
	}
}
