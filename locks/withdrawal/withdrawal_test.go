package withdrawal

import (
	"encoding/binary"
	"testing"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
	"github.com/holiman/uint256"
)

func putU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildL2Block assembles a minimal, structurally valid L2Block table: one
// dummy transaction and one dummy withdrawal (molecule's dynvec encoding
// has no representation for zero items, so an empty tx/withdrawal vector
// isn't reachable here) and an empty fixed-size KV-state.
func buildL2Block() []byte {
	tx := chaintypes.L2Transaction{Raw: chaintypes.RawL2Transaction{}}
	wd := chaintypes.WithdrawalRequest{Raw: chaintypes.RawWithdrawalRequest{Amount: uint256.NewInt(0)}}
	txVec := molecule.BuildTable([][]byte{tx.Marshal()})
	wdVec := molecule.BuildTable([][]byte{wd.Marshal()})
	return molecule.BuildTable([][]byte{
		(chaintypes.RawL2Block{}).Marshal(),
		txVec,
		wdVec,
		putU32(0),
		molecule.BuildBytes(nil),
	})
}

func rollupTypeFixture() (chain.Script, chaintypes.Hash) {
	rollupType := chain.Script{CodeHash: [32]byte{0x01}, HashType: chain.HashTypeType, Args: []byte("rollup-type")}
	return rollupType, chaintypes.Hash(chain.ScriptHash(rollupType))
}

func TestRunViaFinalizeSuccess(t *testing.T) {
	loader := chain.NewMock()
	_, rollupTypeHash := rollupTypeFixture()

	ownerLock := chain.Script{CodeHash: [32]byte{0x05}, HashType: chain.HashTypeType, Args: []byte("owner")}
	ownerLockHash := chain.ScriptHash(ownerLock)

	lockArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash:        rollupTypeHash,
		WithdrawalBlockNumber: 5,
		OwnerLockHash:         chaintypes.Hash(ownerLockHash),
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x02}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	globalState := chaintypes.GlobalState{LastFinalizedBlockNumber: 10}
	rollupType, _ := rollupTypeFixture()
	loader.AddCell(chain.CellDep, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: globalState.Marshal()})

	unlock := molecule.BuildUnion(uint32(chaintypes.UnlockViaFinalize), nil)
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: unlock})

	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: ownerLock}})

	if err := Run(loader); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunViaFinalizeNotYetFinalizedFails(t *testing.T) {
	loader := chain.NewMock()
	_, rollupTypeHash := rollupTypeFixture()

	ownerLock := chain.Script{CodeHash: [32]byte{0x05}, HashType: chain.HashTypeType, Args: []byte("owner")}
	ownerLockHash := chain.ScriptHash(ownerLock)

	lockArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash:        rollupTypeHash,
		WithdrawalBlockNumber: 20,
		OwnerLockHash:         chaintypes.Hash(ownerLockHash),
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x02}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	globalState := chaintypes.GlobalState{LastFinalizedBlockNumber: 10}
	rollupType, _ := rollupTypeFixture()
	loader.AddCell(chain.CellDep, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: globalState.Marshal()})

	unlock := molecule.BuildUnion(uint32(chaintypes.UnlockViaFinalize), nil)
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: unlock})

	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: ownerLock}})

	if err := Run(loader); err == nil {
		t.Fatal("Run() = nil, want error when the withdrawal block is not yet finalized")
	}
}

func TestRunViaRevertSuccess(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	blockHash := chaintypes.BytesToHash([]byte("reverted-block"))
	lockArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash:      rollupTypeHash,
		WithdrawalBlockHash: blockHash,
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x02}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	custodianTypeHash := rollupcrypto.CKBBlake2b([]byte("custodian-type"))
	rollupConfig := chaintypes.RollupConfig{CustodianScriptTypeHash: chaintypes.BytesToHash(custodianTypeHash[:])}
	rollupConfigHash := chaintypes.Hash(rollupcrypto.CKBBlake2b(rollupConfig.Marshal()))
	prevState := chaintypes.GlobalState{RollupConfigHash: rollupConfigHash}
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: prevState.Marshal()})
	loader.AddCell(chain.CellDep, chain.Cell{Data: rollupConfig.Marshal()})

	custodianArgs := chaintypes.CustodianLockArgs{RollupTypeHash: rollupTypeHash}
	custodianLock := chain.Script{CodeHash: custodianTypeHash, HashType: chain.HashTypeType, Args: custodianArgs.Marshal()}
	custodianLockHash := chain.ScriptHash(custodianLock)

	revertedHashes := append(putU32(1), blockHash.Bytes()...)
	submitAction := molecule.BuildUnion(uint32(chaintypes.RollupSubmitBlock), molecule.BuildTable([][]byte{
		buildL2Block(),
		revertedHashes,
		molecule.BuildBytes(nil),
	}))
	outIdx := loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Type: &rollupType}})
	loader.SetWitness(chain.Output, outIdx, chain.WitnessArgs{OutputType: submitAction})

	groupInputData := []byte{1, 2, 3, 4}
	groupInputType := chain.Script{CodeHash: [32]byte{0x09}, HashType: chain.HashTypeType}
	loader.AddCell(chain.GroupInput, chain.Cell{Output: chain.CellOutput{Capacity: 1000, Type: &groupInputType}, Data: groupInputData})

	loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Capacity: 1000, Lock: custodianLock, Type: &groupInputType}, Data: groupInputData})

	unlock := molecule.BuildUnion(uint32(chaintypes.UnlockViaRevert), custodianLockHash[:])
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: unlock})

	if err := Run(loader); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunViaTradeNotForSaleFails(t *testing.T) {
	loader := chain.NewMock()
	_, rollupTypeHash := rollupTypeFixture()

	lockArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash: rollupTypeHash,
		SellCapacity:   0,
		SellAmount:     uint256.NewInt(0),
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x02}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	payerLock := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("payer-code")), HashType: chaintypes.HashTypeType, Args: []byte("payer")}
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: molecule.BuildUnion(uint32(chaintypes.UnlockViaTrade), payerLock.Marshal())})

	if err := Run(loader); err == nil {
		t.Fatal("Run() = nil, want NotForSale error when sell-capacity and sell-amount are both zero")
	}
}

func TestRunViaTradeSuccess(t *testing.T) {
	loader := chain.NewMock()
	_, rollupTypeHash := rollupTypeFixture()

	paymentLock := chain.Script{CodeHash: [32]byte{0x08}, HashType: chain.HashTypeType, Args: []byte("seller-payment")}
	paymentLockHash := chain.ScriptHash(paymentLock)

	lockArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash:        rollupTypeHash,
		WithdrawalBlockHash:   chaintypes.BytesToHash([]byte("block")),
		WithdrawalBlockNumber: 7,
		AccountScriptHash:     chaintypes.BytesToHash([]byte("account")),
		SellCapacity:          1000,
		SellAmount:            uint256.NewInt(0),
		PaymentLockHash:       chaintypes.Hash(paymentLockHash),
	}
	ownLockScript := chain.Script{CodeHash: [32]byte{0x02}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()}
	loader.SetScript(ownLockScript)
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: ownLockScript}})

	payerLock := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("payer-code")), HashType: chaintypes.HashTypeType, Args: []byte("payer")}
	payerHash := payerLock.Hash()

	outArgs := chaintypes.WithdrawalLockArgs{
		RollupTypeHash:        rollupTypeHash,
		WithdrawalBlockHash:   lockArgs.WithdrawalBlockHash,
		WithdrawalBlockNumber: lockArgs.WithdrawalBlockNumber,
		AccountScriptHash:     lockArgs.AccountScriptHash,
		SellCapacity:          lockArgs.SellCapacity,
		SellAmount:            uint256.NewInt(0),
		OwnerLockHash:         payerHash,
		PaymentLockHash:       payerHash,
	}
	outLockScript := chain.Script{CodeHash: ownLockScript.CodeHash, HashType: ownLockScript.HashType, Args: outArgs.Marshal()}
	loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Lock: outLockScript}})

	loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Lock: paymentLock, Capacity: 2000}})

	unlock := molecule.BuildUnion(uint32(chaintypes.UnlockViaTrade), payerLock.Marshal())
	loader.SetWitness(chain.GroupInput, 0, chain.WitnessArgs{Lock: unlock})

	if err := Run(loader); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}
