package tron

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

func TestVerifyMessageUsesTronPrefix(t *testing.T) {
	priv, addr := genKey(t)
	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256(tronPrefix, message.Bytes())
	sig := sign(t, priv, prefixed)

	ok, err := VerifyMessage(addr, sig, message)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected tron-prefixed signature to verify")
	}

	ethPrefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	ethSig := sign(t, priv, ethPrefixed)
	ok, err = VerifyMessage(addr, ethSig, message)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected eth-prefixed signature to fail tron verification")
	}
}

func TestVerifyTx(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender"))}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver"))}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2}}

	message := rollupcrypto.CKBBlake2b(rollupHash.Bytes(), sender.Hash().Bytes(), receiver.Hash().Bytes(), tx.Marshal())
	tx.Signature = sign(t, priv, [32]byte(message))

	ok, err := VerifyTx(rollupHash, addr, sender, receiver, tx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected tx signature to verify")
	}
}
