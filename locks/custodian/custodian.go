// Package custodian implements the custodian lock script: it guards a
// rollup-owned cell holding a deposit or a residual reserve (§4.5).
package custodian

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcell"
)

// Run is the custodian lock script's entry point. A custodian cell is
// spendable two ways: (a) the state-validator reverted its deposit's
// block, in which case it must swap itself for a content-identical
// finalized-sentinel custodian cell (mirrors the withdrawal lock's
// ViaRevert, applied to the deposit-block-hash instead of a withdrawal-
// block-hash); or (b) its deposit is already finalized and the original
// depositor supplies a matching input. Neither path needs an unlock
// witness: which one applies falls out of whether the rollup cell's own
// action names this cell's deposit block as reverted.
func Run(loader chain.Loader) error {
	script, err := loader.LoadScript()
	if err != nil {
		return err
	}
	lockArgs, err := chaintypes.ParseCustodianLockArgs(script.Args)
	if err != nil {
		return err
	}

	handled, err := tryViaRevert(loader, script, lockArgs)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}
	return verifyFinalized(loader, lockArgs)
}

// tryViaRevert reports whether the rollup cell's own action witness names
// this cell's deposit block among the reverted ones. When it does, the
// content-preserving swap is enforced and (true, nil) is returned; when
// the rollup action simply doesn't revert this cell's block, (false, nil)
// lets Run fall through to the finalized path.
func tryViaRevert(loader chain.Loader, script *chain.Script, lockArgs *chaintypes.CustodianLockArgs) (bool, error) {
	rollupIndex, err := rollupcell.Search(loader, lockArgs.RollupTypeHash, chain.Output)
	if err != nil {
		return false, err
	}
	if rollupIndex < 0 {
		return false, nil
	}
	action, err := rollupcell.ParseAction(loader, rollupIndex, chain.Output)
	if err != nil {
		return false, err
	}
	if action.Tag != chaintypes.RollupSubmitBlock {
		return false, nil
	}
	submit, err := action.AsSubmitBlock()
	if err != nil {
		return false, err
	}

	reverted := false
	for _, h := range submit.RevertedBlockHashes {
		if h == lockArgs.DepositBlockHash {
			reverted = true
			break
		}
	}
	if !reverted {
		return false, nil
	}

	replacement, err := findOutputContentMatch(loader)
	if err != nil {
		return false, err
	}
	if replacement < 0 {
		return false, ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: no content-preserving replacement cell in outputs")
	}
	replCell, err := loader.LoadCell(replacement, chain.Output)
	if err != nil {
		return false, err
	}
	if replCell.Output.Lock.CodeHash != script.CodeHash || replCell.Output.Lock.HashType != script.HashType {
		return false, ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: replacement cell is not a custodian cell")
	}
	replArgs, err := chaintypes.ParseCustodianLockArgs(replCell.Output.Lock.Args)
	if err != nil {
		return false, ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: replacement cell lock args do not parse")
	}
	if replArgs.RollupTypeHash != lockArgs.RollupTypeHash || !replArgs.IsFinalizedSentinel() {
		return false, ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: replacement cell is not a finalized-sentinel custodian cell")
	}
	return true, nil
}

// findOutputContentMatch scans the outputs for a cell whose capacity,
// data, and type hash equal this script's own group-input cell (always
// index 0 -- a custodian cell never shares its lock with another cell in
// the same transaction).
func findOutputContentMatch(loader chain.Loader) (int, error) {
	inCap, err := loader.LoadCellCapacity(0, chain.GroupInput)
	if err != nil {
		return -1, err
	}
	inData, err := loader.LoadCellData(0, chain.GroupInput)
	if err != nil {
		return -1, err
	}
	inType, err := loader.LoadCellTypeHash(0, chain.GroupInput)
	if err != nil {
		return -1, err
	}

	for i := 0; i < loader.CellCount(chain.Output); i++ {
		outCap, err := loader.LoadCellCapacity(i, chain.Output)
		if err != nil {
			return -1, err
		}
		if outCap != inCap {
			continue
		}
		outData, err := loader.LoadCellData(i, chain.Output)
		if err != nil {
			return -1, err
		}
		if string(outData) != string(inData) {
			continue
		}
		outType, err := loader.LoadCellTypeHash(i, chain.Output)
		if err != nil {
			return -1, err
		}
		if !hashPtrEqual(inType, outType) {
			continue
		}
		return i, nil
	}
	return -1, nil
}

func hashPtrEqual(a, b *[32]byte) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// verifyFinalized authorizes spending an already-finalized custodian cell:
// the deposit's block must be at or before the rollup's last-finalized
// cursor, and the depositor named in the deposit's own lock args (the
// "owner" for this cell) must provide a matching input.
func verifyFinalized(loader chain.Loader, lockArgs *chaintypes.CustodianLockArgs) (err error) {
	globalState, _, err := rollupcell.SearchState(loader, lockArgs.RollupTypeHash, chain.CellDep)
	if err != nil {
		return err
	}
	if globalState == nil {
		globalState, _, err = rollupcell.SearchState(loader, lockArgs.RollupTypeHash, chain.Input)
		if err != nil {
			return err
		}
		if globalState == nil {
			return ckberrors.New(ckberrors.ItemMissing, "custodian: rollup cell not found in cell-deps or inputs")
		}
	}
	if lockArgs.DepositBlockNumber > globalState.LastFinalizedBlockNumber {
		return ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: deposit not yet finalized")
	}

	depositArgs, err := chaintypes.ParseDepositLockArgs(lockArgs.DepositLockArgs)
	if err != nil {
		return ckberrors.New(ckberrors.InvalidCustodianCell, "custodian: malformed deposit lock args")
	}
	ownerHash := depositArgs.Layer2Lock.Hash()

	ownerIndex, err := chain.QueryCellLockHash(loader, chain.Input, [32]byte(ownerHash))
	if err != nil {
		return err
	}
	if ownerIndex < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "custodian: owner cell not found in inputs")
	}
	return nil
}
