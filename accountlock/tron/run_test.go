package tron

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
	owner := chain.Script{CodeHash: [32]byte{0x33, 0x44}, HashType: chain.HashTypeType}
	return owner, chaintypes.Hash(chain.ScriptHash(owner))
}

func TestRunMessageSignatureSuccess(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	prefixed := rollupcrypto.Keccak256(tronPrefix, message.Bytes())
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

func TestRunMessageSignatureEthPrefixedFails(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	message := chaintypes.BytesToHash([]byte("withdrawal digest"))
	ethPrefixed := rollupcrypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), message.Bytes())
	sig := sign(t, priv, ethPrefixed)

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, addr))
	data := append(append([]byte{}, ownerLockHash.Bytes()...), message.Bytes()...)
	loader.AddCell(chain.GroupInput, chain.Cell{Data: data})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: sig[:]})

	if err := Run(loader); err == nil {
		t.Fatal("expected eth-prefixed signature to be rejected under tron verification")
	}
}

func TestRunTxSignatureSuccess(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender-code")), HashType: chaintypes.HashTypeType}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver-code")), HashType: chaintypes.HashTypeType}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2, Nonce: 3}}
	message := rollupcrypto.CKBBlake2b(rollupHash.Bytes(), sender.Hash().Bytes(), receiver.Hash().Bytes(), tx.Marshal())
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

func TestRunTxSignatureWrongSenderFails(t *testing.T) {
	priv, addr := genKey(t)
	rollupHash := chaintypes.BytesToHash([]byte("rollup"))
	owner, ownerLockHash := ownerLockCell()

	sender := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("sender-code")), HashType: chaintypes.HashTypeType}
	receiver := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("receiver-code")), HashType: chaintypes.HashTypeType}
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{ChainID: 1, FromID: 1, ToID: 2, Nonce: 3}}
	message := rollupcrypto.CKBBlake2b(rollupHash.Bytes(), sender.Hash().Bytes(), receiver.Hash().Bytes(), tx.Marshal())
	tx.Signature = sign(t, priv, [32]byte(message))

	witness := chaintypes.AccountTxWitness{
		L2Tx:           tx,
		SenderScript:   chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("different-sender")), HashType: chaintypes.HashTypeType},
		ReceiverScript: receiver,
	}

	loader := chain.NewMock()
	loader.SetScript(lockScript(rollupHash, addr))
	loader.AddCell(chain.GroupInput, chain.Cell{Data: ownerLockHash.Bytes()})
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: owner}})
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: witness.Marshal()})

	if err := Run(loader); err == nil {
		t.Fatal("expected mismatched sender script to change the signed message and fail verification")
	}
}
