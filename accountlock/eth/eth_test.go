package eth

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

func genKey(t *testing.T) (*secp256k1.PrivateKey, Address) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	pub := priv.PubKey().SerializeUncompressed()
	var uncompressed [65]byte
	copy(uncompressed[:], pub)
	return priv, Address(rollupcrypto.EthAddress(uncompressed))
}

func sign(t *testing.T, priv *secp256k1.PrivateKey, hash [32]byte) rollupcrypto.RecoverableSignature {
	t.Helper()
	compact := ecdsa.SignCompact(priv, hash[:], false)
	var sig rollupcrypto.RecoverableSignature
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] - 27
	return sig
}

func TestExtractLockArgs(t *testing.T) {
	args := make([]byte, 52)
	args[0] = 0xAB
	args[32] = 0xCD
	rollupHash, addr, err := ExtractLockArgs(args)
	if err != nil {
		t.Fatal(err)
	}
	if rollupHash[0] != 0xAB || addr[0] != 0xCD {
		t.Fatalf("unexpected split: %+v %+v", rollupHash, addr)
	}
	if _, _, err := ExtractLockArgs(make([]byte, 10)); err == nil {
		t.Fatal("expected short args to be rejected")
	}
}

func TestVerifyMessageRoundTrip(t *testing.T) {
	priv, addr := genKey(t)
	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	sig := sign(t, priv, prefixed)

	ok, err := VerifyMessage(addr, sig, message)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected signature to verify")
	}

	var wrongAddr Address
	ok, err = VerifyMessage(wrongAddr, sig, message)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected mismatched address to fail")
	}
}

func TestVerifyTxGodwokenNativePath(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender-code")), HashType: chaintypes.HashTypeType}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver-code")), HashType: chaintypes.HashTypeType}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2, Nonce: 0, Args: []byte{1, 2, 3}}}

	message := godwokenSigningMessage(rollupHash, sender, receiver, tx)
	tx.Signature = sign(t, priv, [32]byte(message))

	ok, err := VerifyTx(rollupHash, addr, sender, receiver, tx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected native-path tx signature to verify")
	}
}

func TestTryAssemblePolyjuiceArgsRejectsNonPolyjuice(t *testing.T) {
	raw := chaintypes.RawL2Transaction{Args: []byte("not polyjuice tagged data............")}
	if _, ok := tryAssemblePolyjuiceArgs(raw, chaintypes.Script{}); ok {
		t.Fatal("expected non-polyjuice args to be rejected")
	}
}

func TestLeBigEndianUintStripsLeadingZeros(t *testing.T) {
	le := make([]byte, 16)
	le[0] = 0x2A // value 42 in the lowest-order byte
	be := leBigEndianUint(le)
	if len(be) != 1 || be[0] != 0x2A {
		t.Fatalf("got %x, want [0x2a]", be)
	}
}
