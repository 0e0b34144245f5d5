package eth

import (
	"testing"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

func lockScript(rollupHash chaintypes.Hash, addr Address) chain.Script {
	args := make([]byte, LockArgsLen)
	copy(args[:32], rollupHash.Bytes())
	copy(args[32:], addr[:])
	return chain.Script{Args: args}
}

func ownerLockCell() (chain.Script, chaintypes.Hash) {
	owner := chain.Script{CodeHash: [32]byte{0x11, 0x22}, HashType: chain.HashTypeType}
	return owner, chaintypes.Hash(chain.ScriptHash(owner))
}

func TestRunMessageSignatureSuccess(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	sig := sign(t, priv, prefixed)

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, addr))
	data := append(append([]byte{}, ownerLockHash.Bytes()...), message.Bytes()...)
	loader.AddCell(chain.GroupInput, chain.Cell{Data: data})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: sig[:]})

	if err := Run(loader); err != nil {
		t.Fatalf("expected Run to succeed, got %v", err)
	}
}

func TestRunMessageSignatureWrongSignerFails(t *testing.T) {
	priv, _ := genKey(t)
	_, wrongAddr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	sig := sign(t, priv, prefixed)

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, wrongAddr))
	data := append(append([]byte{}, ownerLockHash.Bytes()...), message.Bytes()...)
	loader.AddCell(chain.GroupInput, chain.Cell{Data: data})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: sig[:]})

	if err := Run(loader); err == nil {
		t.Fatal("expected mismatched address to be rejected")
	}
}

func TestRunMessageSignatureMissingOwnerInputFails(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	_, ownerLockHash := ownerLockCell()

	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	sig := sign(t, priv, prefixed)

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, addr))
	data := append(append([]byte{}, ownerLockHash.Bytes()...), message.Bytes()...)
	loader.AddCell(chain.GroupInput, chain.Cell{Data: data})
	// no co-located Input cell carrying ownerLockHash
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: sig[:]})

	if err := Run(loader); err == nil {
		t.Fatal("expected missing owner-lock input to be rejected")
	}
}

func TestRunTxSignatureSuccess(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender-code")), HashType: chaintypes.HashTypeType}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver-code")), HashType: chaintypes.HashTypeType}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2, Nonce: 3}}
	message := godwokenSigningMessage(rollupHash, sender, receiver, tx)
	tx.Signature = sign(t, priv, [32]byte(message))

	witness := chaintypes.AccountTxWitness{L2Tx: tx, SenderScript: sender, ReceiverScript: receiver}

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, addr))
	loader.AddCell(chain.GroupInput, chain.Cell{Data: ownerLockHash.Bytes()})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: witness.Marshal()})

	if err := Run(loader); err != nil {
		t.Fatalf("expected Run to succeed, got %v", err)
	}
}

func TestRunTxSignatureWrongRollupHashFails(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender-code")), HashType: chaintypes.HashTypeType}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver-code")), HashType: chaintypes.HashTypeType}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2, Nonce: 3}}
	message := godwokenSigningMessage(rollupHash, sender, receiver, tx)
	tx.Signature = sign(t, priv, [32]byte(message))

	witness := chaintypes.AccountTxWitness{L2Tx: tx, SenderScript: sender, ReceiverScript: receiver}

	loader := chain.NewMock()
	// lock args bind to a different rollup hash than the one the signature covers
	loader.SetScript(lockScript(chaintypes.BytesToHash([]byte("other-rollup")), addr))
	loader.AddCell(chain.GroupInput, chain.Cell{Data: ownerLockHash.Bytes()})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: witness.Marshal()})

	if err := Run(loader); err == nil {
		t.Fatal("expected signature bound to a different rollup hash to be rejected")
	}
}
