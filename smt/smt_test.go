package smt

import "testing"

func key(b byte) H256 {
	var k H256
	k[31] = b
	return k
}

func val(b byte) H256 {
	var v H256
	v[0] = b
	return v
}

// buildTwoLeafProof merges two adjacent leaves (keys differing only in
// bit 0) into a single subtree node and returns that node alongside a
// proof exercising LEAF/LEAF/MERGE.
func buildTwoLeafProof(t *testing.T, k0, v0, k1, v1 H256) (H256, []byte) {
	t.Helper()
	leaves := []Pair{{Key: k0, Value: v0}, {Key: k1, Value: v1}}
	a := stackEntry{node: leafHash(k0, v0), height: 0, key: k0, hasKey: true}
	b := stackEntry{node: leafHash(k1, v1), height: 0, key: k1, hasKey: true}
	merged, err := mergeEntries(0, a, b)
	if err != nil {
		t.Fatal(err)
	}
	proof := []byte{opLeaf}
	proof = append(proof, k0[:]...)
	proof = append(proof, opLeaf)
	proof = append(proof, k1[:]...)
	proof = append(proof, opMerge, 0)
	_ = leaves
	return merged.node, proof
}

func TestVerifyCompiledProofTwoLeafMerge(t *testing.T) {
	k0, k1 := key(0), key(1)
	v0, v1 := val(11), val(22)
	root, proof := buildTwoLeafProof(t, k0, v0, k1, v1)
	leaves := []Pair{{Key: k0, Value: v0}, {Key: k1, Value: v1}}
	ok, err := VerifyCompiledProof(root, leaves, proof)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected proof to verify")
	}
}

func TestVerifyCompiledProofSiblingPush(t *testing.T) {
	k0 := key(0)
	v0 := val(5)
	leafNode := leafHash(k0, v0)
	sibling := H256{}
	sibling[0] = 0x42
	merged, err := mergeEntries(3, stackEntry{node: leafNode, height: 0, key: k0, hasKey: true}, stackEntry{node: sibling, height: 3, hasKey: false})
	if err != nil {
		t.Fatal(err)
	}
	proof := []byte{opLeaf}
	proof = append(proof, k0[:]...)
	proof = append(proof, opSibling, 3)
	proof = append(proof, sibling[:]...)
	proof = append(proof, opMerge, 3)
	ok, err := VerifyCompiledProof(merged.node, []Pair{{Key: k0, Value: v0}}, proof)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected sibling-based proof to verify")
	}
}

func TestVerifyCompiledProofRejectsWrongRoot(t *testing.T) {
	k0, k1 := key(0), key(1)
	v0, v1 := val(11), val(22)
	root, proof := buildTwoLeafProof(t, k0, v0, k1, v1)
	root[0] ^= 0xFF
	leaves := []Pair{{Key: k0, Value: v0}, {Key: k1, Value: v1}}
	ok, err := VerifyCompiledProof(root, leaves, proof)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected mismatched root to fail verification")
	}
}

func TestVerifyCompiledProofRejectsUnknownOpcode(t *testing.T) {
	if _, err := VerifyCompiledProof(H256{}, nil, []byte{0xFF}); err == nil {
		t.Fatal("expected unknown opcode to be rejected")
	}
}

func TestVerifyCompiledProofRejectsLeafCountMismatch(t *testing.T) {
	k0 := key(0)
	proof := []byte{opLeaf}
	proof = append(proof, k0[:]...)
	if _, err := VerifyCompiledProof(H256{}, nil, proof); err == nil {
		t.Fatal("expected leaf-count mismatch to be rejected")
	}
}

func TestComputeKeyIsBigEndianInLowBytes(t *testing.T) {
	k := ComputeKey(0x0102)
	if k[31] != 0x02 || k[30] != 0x01 {
		t.Fatalf("unexpected key encoding: %x", k)
	}
}
