package custodian

import (
	"encoding/binary"
	"testing"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/molecule"
	"github.com/holiman/uint256"
)

func putU32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// buildL2Block assembles a minimal, structurally valid L2Block table: one
// dummy transaction and one dummy withdrawal (molecule's dynvec encoding
// has no representation for zero items, so an empty vector isn't
// reachable here) and an empty fixed-size KV-state.
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

func TestRunViaRevertSuccess(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	blockHash := chaintypes.BytesToHash([]byte("reverted-deposit-block"))
	custodianCodeHash := [32]byte{0x03}
	lockArgs := chaintypes.CustodianLockArgs{
		RollupTypeHash:     rollupTypeHash,
		DepositBlockHash:   blockHash,
		DepositBlockNumber: 9,
	}
	loader.SetScript(chain.Script{CodeHash: custodianCodeHash, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	revertedHashes := append(putU32(1), blockHash.Bytes()...)
	submitAction := molecule.BuildUnion(uint32(chaintypes.RollupSubmitBlock), molecule.BuildTable([][]byte{
		buildL2Block(),
		revertedHashes,
		molecule.BuildBytes(nil),
	}))
	outIdx := loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Type: &rollupType}})
	loader.SetWitness(chain.Output, outIdx, chain.WitnessArgs{OutputType: submitAction})

	groupInputData := []byte{9, 8, 7, 6}
	groupInputType := chain.Script{CodeHash: [32]byte{0x0a}, HashType: chain.HashTypeType}
	loader.AddCell(chain.GroupInput, chain.Cell{Output: chain.CellOutput{Capacity: 5000, Type: &groupInputType}, Data: groupInputData})

	sentinelArgs := chaintypes.CustodianLockArgs{RollupTypeHash: rollupTypeHash}
	sentinelLock := chain.Script{CodeHash: custodianCodeHash, HashType: chain.HashTypeType, Args: sentinelArgs.Marshal()}
	loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Capacity: 5000, Lock: sentinelLock, Type: &groupInputType}, Data: groupInputData})

	if err := Run(loader); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunViaRevertMissingReplacementFails(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	blockHash := chaintypes.BytesToHash([]byte("reverted-deposit-block"))
	custodianCodeHash := [32]byte{0x03}
	lockArgs := chaintypes.CustodianLockArgs{
		RollupTypeHash:     rollupTypeHash,
		DepositBlockHash:   blockHash,
		DepositBlockNumber: 9,
	}
	loader.SetScript(chain.Script{CodeHash: custodianCodeHash, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	revertedHashes := append(putU32(1), blockHash.Bytes()...)
	submitAction := molecule.BuildUnion(uint32(chaintypes.RollupSubmitBlock), molecule.BuildTable([][]byte{
		buildL2Block(),
		revertedHashes,
		molecule.BuildBytes(nil),
	}))
	outIdx := loader.AddCell(chain.Output, chain.Cell{Output: chain.CellOutput{Type: &rollupType}})
	loader.SetWitness(chain.Output, outIdx, chain.WitnessArgs{OutputType: submitAction})

	loader.AddCell(chain.GroupInput, chain.Cell{Output: chain.CellOutput{Capacity: 5000}, Data: []byte{1, 2, 3}})
	// no content-matching output cell is added

	if err := Run(loader); err == nil {
		t.Fatal("Run() = nil, want error when no content-preserving replacement cell exists")
	}
}

func TestRunFinalizedSuccess(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	depositor := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("depositor-code")), HashType: chaintypes.HashTypeType, Args: []byte("depositor")}
	depositArgs := chaintypes.DepositLockArgs{RollupTypeHash: rollupTypeHash, Layer2Lock: depositor, CancelTimeout: 100, RegistryID: 1}
	depositArgsBytes := append(rollupTypeHash.Bytes(), molecule.BuildTable([][]byte{
		depositor.Marshal(),
		putU64(depositArgs.CancelTimeout),
		putU32(depositArgs.RegistryID),
	})...)

	lockArgs := chaintypes.CustodianLockArgs{
		RollupTypeHash:     rollupTypeHash,
		DepositBlockNumber: 5,
		DepositLockArgs:    depositArgsBytes,
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x03}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	globalState := chaintypes.GlobalState{LastFinalizedBlockNumber: 10}
	loader.AddCell(chain.CellDep, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: globalState.Marshal()})

	depositorL1Lock := chain.Script{CodeHash: [32]byte(depositor.CodeHash), HashType: depositor.HashType, Args: depositor.Args}
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: depositorL1Lock}})

	if err := Run(loader); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
}

func TestRunFinalizedNotYetFinalizedFails(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	depositor := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("depositor-code")), HashType: chaintypes.HashTypeType, Args: []byte("depositor")}
	depositArgsBytes := append(rollupTypeHash.Bytes(), molecule.BuildTable([][]byte{
		depositor.Marshal(),
		putU64(100),
		putU32(1),
	})...)

	lockArgs := chaintypes.CustodianLockArgs{
		RollupTypeHash:     rollupTypeHash,
		DepositBlockNumber: 20,
		DepositLockArgs:    depositArgsBytes,
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x03}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	globalState := chaintypes.GlobalState{LastFinalizedBlockNumber: 10}
	loader.AddCell(chain.CellDep, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: globalState.Marshal()})

	depositorL1Lock := chain.Script{CodeHash: [32]byte(depositor.CodeHash), HashType: depositor.HashType, Args: depositor.Args}
	loader.AddCell(chain.Input, chain.Cell{Output: chain.CellOutput{Lock: depositorL1Lock}})

	if err := Run(loader); err == nil {
		t.Fatal("Run() = nil, want error when the deposit is not yet finalized")
	}
}

func TestRunFinalizedNoOwnerInputFails(t *testing.T) {
	loader := chain.NewMock()
	rollupType, rollupTypeHash := rollupTypeFixture()

	depositor := chaintypes.Script{CodeHash: chaintypes.BytesToHash([]byte("depositor-code")), HashType: chaintypes.HashTypeType, Args: []byte("depositor")}
	depositArgsBytes := append(rollupTypeHash.Bytes(), molecule.BuildTable([][]byte{
		depositor.Marshal(),
		putU64(100),
		putU32(1),
	})...)

	lockArgs := chaintypes.CustodianLockArgs{
		RollupTypeHash:     rollupTypeHash,
		DepositBlockNumber: 5,
		DepositLockArgs:    depositArgsBytes,
	}
	loader.SetScript(chain.Script{CodeHash: [32]byte{0x03}, HashType: chain.HashTypeType, Args: lockArgs.Marshal()})

	globalState := chaintypes.GlobalState{LastFinalizedBlockNumber: 10}
	loader.AddCell(chain.CellDep, chain.Cell{Output: chain.CellOutput{Type: &rollupType}, Data: globalState.Marshal()})
	// no input cell locked by the depositor's script

	if err := Run(loader); err == nil {
		t.Fatal("Run() = nil, want error when no input cell matches the depositor's lock")
	}
}

func putU64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}
