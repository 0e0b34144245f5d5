package chaintypes

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
)

func TestCCTxContextWitnessRoundTrip(t *testing.T) {
	w := CCTxContextWitness{
		L2Tx:         L2Transaction{Raw: RawL2Transaction{ChainID: 1, FromID: 2, ToID: 3, Nonce: 4}},
		RawBlock:     RawL2Block{Number: 7, ParentHash: BytesToHash([]byte("parent"))},
		KVStateProof: []byte{1, 2, 3},
		TxProof:      []byte{4, 5, 6},
		Scripts: []Script{
			{CodeHash: BytesToHash([]byte("sender-code")), HashType: HashTypeType},
			{CodeHash: BytesToHash([]byte("receiver-code")), HashType: HashTypeType},
		},
		AccountCount: 2,
		KVState: []KVPair{
			{Key: BytesToHash([]byte("k1")), Value: BytesToHash([]byte("v1"))},
			{Key: BytesToHash([]byte("k2")), Value: BytesToHash([]byte("v2"))},
		},
	}
	got, err := ParseCCTxContextWitness(w.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.RawBlock.Number != w.RawBlock.Number {
		t.Fatalf("block number mismatch: got %d want %d", got.RawBlock.Number, w.RawBlock.Number)
	}
	if len(got.Scripts) != 2 || got.Scripts[0].CodeHash != w.Scripts[0].CodeHash {
		t.Fatalf("scripts mismatch: %+v", got.Scripts)
	}
	if len(got.KVState) != 2 || got.KVState[1].Value != w.KVState[1].Value {
		t.Fatalf("kv-state mismatch: %+v", got.KVState)
	}
	if !bytes.Equal(got.TxProof, w.TxProof) || !bytes.Equal(got.KVStateProof, w.KVStateProof) {
		t.Fatal("proof bytes mismatch")
	}
	if got.AccountCount != w.AccountCount {
		t.Fatalf("account count mismatch: got %d want %d", got.AccountCount, w.AccountCount)
	}
}

func TestCCWithdrawalWitnessRoundTrip(t *testing.T) {
	w := CCWithdrawalWitness{
		Withdrawal: WithdrawalRequest{Raw: RawWithdrawalRequest{
			Nonce: 1, ChainID: 2, Amount: uint256.NewInt(0),
			AccountScriptHash: BytesToHash([]byte("account")),
			OwnerLockHash:     BytesToHash([]byte("owner")),
		}},
		Sender:    Script{CodeHash: BytesToHash([]byte("sender-code")), HashType: HashTypeType},
		OwnerLock: Script{CodeHash: BytesToHash([]byte("owner-code")), HashType: HashTypeType},
		RawBlock:  RawL2Block{Number: 9},
		WithdrawalProof: CBMTProof{
			Indices: []uint32{0},
			Lemmas:  []Hash{BytesToHash([]byte("sibling"))},
		},
	}
	got, err := ParseCCWithdrawalWitness(w.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.Sender.CodeHash != w.Sender.CodeHash {
		t.Fatal("sender script mismatch")
	}
	if got.OwnerLock.CodeHash != w.OwnerLock.CodeHash {
		t.Fatal("owner lock mismatch")
	}
	if got.RawBlock.Number != w.RawBlock.Number {
		t.Fatal("raw block mismatch")
	}
	if len(got.WithdrawalProof.Indices) != 1 || got.WithdrawalProof.Lemmas[0] != w.WithdrawalProof.Lemmas[0] {
		t.Fatal("withdrawal proof mismatch")
	}
}
