package rollupcrypto

import (
	"math/big"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

func TestBlake2bDomainSeparation(t *testing.T) {
	data := []byte("hello")
	a := CKBBlake2b(data)
	b := PlainBlake2b(data)
	if a == b {
		t.Fatal("personalized and plain Blake2b must differ for the same input")
	}
}

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256("") = c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470
	got := Keccak256(nil)
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if hexEncode(got[:]) != want {
		t.Fatalf("keccak256(\"\") = %s, want %s", hexEncode(got[:]), want)
	}
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

func TestRecoverRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	hash := Keccak256([]byte("message to sign"))

	compact := ecdsa.SignCompact(priv, hash[:], false) // uncompressed -> 27-30 recid byte
	var sig RecoverableSignature
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] - 27

	pub, err := RecoverUncompressed(sig, hash)
	if err != nil {
		t.Fatal(err)
	}
	wantPub := priv.PubKey().SerializeUncompressed()
	if string(pub[:]) != string(wantPub) {
		t.Fatalf("recovered pubkey mismatch")
	}

	addr := EthAddress(pub)
	if len(addr) != 20 {
		t.Fatalf("expected 20-byte address, got %d", len(addr))
	}
}

func TestNormalizeRecoveryID(t *testing.T) {
	tests := []struct {
		in      byte
		want    byte
		wantErr bool
	}{
		{0, 0, false},
		{1, 1, false},
		{27, 0, false},
		{28, 1, false},
		{35, 0, true},
	}
	for _, tt := range tests {
		got, err := NormalizeRecoveryID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("v=%d: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("v=%d: unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("v=%d: got %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWithdrawalDigestDeterministic(t *testing.T) {
	w := Withdrawal{
		AccountScriptHash: [32]byte{1},
		Nonce:             1,
		ChainID:           42,
		Fee:               0,
		Layer1OwnerLock: Script{
			CodeHash: [32]byte{2},
			HashType: "type",
			Args:     []byte{3, 4, 5},
		},
		Withdraw: WithdrawalAsset{
			CKBCapacity:   1000,
			UDTAmount:     big.NewInt(0),
			UDTScriptHash: [32]byte{},
		},
	}
	d1 := WithdrawalDigest(w, 42)
	d2 := WithdrawalDigest(w, 42)
	if d1 != d2 {
		t.Fatal("WithdrawalDigest must be deterministic for identical input")
	}
	d3 := WithdrawalDigest(w, 43)
	if d1 == d3 {
		t.Fatal("WithdrawalDigest must depend on chain id")
	}
}
