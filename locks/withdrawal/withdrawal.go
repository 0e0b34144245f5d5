// Package withdrawal implements the withdrawal lock script: it guards a
// cell holding a user's pending L2 withdrawal and decides whether the
// transaction spending it takes one of three authorized paths (§4.3).
// Grounded on original_source/contracts/withdrawal-lock/src/entry.rs.
package withdrawal

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcell"
	"github.com/godwoken-rollup/rollup-scripts/rollupconfig"
	"github.com/holiman/uint256"
)

// Run is the withdrawal lock script's entry point.
func Run(loader chain.Loader) error {
	script, err := loader.LoadScript()
	if err != nil {
		return err
	}
	lockArgs, err := chaintypes.ParseWithdrawalLockArgs(script.Args)
	if err != nil {
		return err
	}

	wa, err := loader.LoadWitnessArgs(0, chain.GroupInput)
	if err != nil {
		return err
	}
	if len(wa.Lock) == 0 {
		return ckberrors.New(ckberrors.Encoding, "withdrawal: group input carries no unlock witness")
	}
	unlock, err := chaintypes.ParseUnlockWithdrawalWitness(wa.Lock)
	if err != nil {
		return err
	}

	switch unlock.Tag {
	case chaintypes.UnlockViaRevert:
		return verifyViaRevert(loader, lockArgs, unlock)
	case chaintypes.UnlockViaFinalize:
		return verifyViaFinalize(loader, lockArgs)
	case chaintypes.UnlockViaTrade:
		return verifyViaTrade(loader, lockArgs, unlock)
	default:
		return ckberrors.New(ckberrors.Encoding, "withdrawal: unknown unlock witness tag")
	}
}

// verifyViaRevert authorizes spending a withdrawal cell whose originating
// block the state-validator reverted: the rollup cell's own action witness
// must name this cell's block among the reverted ones, and a matching
// finalized-sentinel custodian cell must appear in the outputs carrying the
// same capacity/data/type as this cell (a content-preserving swap).
func verifyViaRevert(loader chain.Loader, lockArgs *chaintypes.WithdrawalLockArgs, unlock *chaintypes.UnlockWithdrawalWitness) error {
	revert, err := unlock.AsViaRevert()
	if err != nil {
		return err
	}

	rollupIndex, err := rollupcell.Search(loader, lockArgs.RollupTypeHash, chain.Output)
	if err != nil {
		return err
	}
	if rollupIndex < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "withdrawal: rollup cell not found in outputs")
	}
	action, err := rollupcell.ParseAction(loader, rollupIndex, chain.Output)
	if err != nil {
		return err
	}
	if action.Tag != chaintypes.RollupSubmitBlock {
		return ckberrors.New(ckberrors.InvalidWithdrawalCell, "withdrawal: revert requires a SubmitBlock rollup action")
	}
	submit, err := action.AsSubmitBlock()
	if err != nil {
		return err
	}
	reverted := false
	for _, h := range submit.RevertedBlockHashes {
		if h == lockArgs.WithdrawalBlockHash {
			reverted = true
			break
		}
	}
	if !reverted {
		return ckberrors.New(ckberrors.InvalidWithdrawalCell, "withdrawal: this cell's block is not among the reverted blocks")
	}

	custodianIndex, err := chain.QueryCellLockHash(loader, chain.Output, [32]byte(revert.CustodianLockHash))
	if err != nil {
		return err
	}
	if custodianIndex < 0 {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: reverted custodian cell not found in outputs")
	}
	custodianCell, err := loader.LoadCell(custodianIndex, chain.Output)
	if err != nil {
		return err
	}
	custodianArgs, err := chaintypes.ParseCustodianLockArgs(custodianCell.Output.Lock.Args)
	if err != nil {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: malformed custodian lock args")
	}

	prevState, _, err := rollupcell.LoadState(loader, lockArgs.RollupTypeHash, chain.Input)
	if err != nil {
		return err
	}
	rollupConfig, err := rollupconfig.Load(loader, prevState.RollupConfigHash)
	if err != nil {
		return err
	}

	if custodianCell.Output.Lock.CodeHash != [32]byte(rollupConfig.CustodianScriptTypeHash) ||
		custodianCell.Output.Lock.HashType != chain.HashTypeType ||
		!custodianArgs.IsFinalizedSentinel() {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: reverted custodian cell is not a finalized-sentinel custodian cell")
	}

	return checkOutputPreservesContent(loader, custodianIndex)
}

// checkOutputPreservesContent requires this script's own group-input cell
// (always index 0 -- a withdrawal cell never shares its lock with another
// cell in the same transaction) and outputIndex's output cell to carry
// identical capacity, data, and type hash.
func checkOutputPreservesContent(loader chain.Loader, outputIndex int) error {
	inCap, err := loader.LoadCellCapacity(0, chain.GroupInput)
	if err != nil {
		return err
	}
	outCap, err := loader.LoadCellCapacity(outputIndex, chain.Output)
	if err != nil {
		return err
	}
	if inCap != outCap {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: reverted custodian cell capacity mismatch")
	}

	inData, err := loader.LoadCellData(0, chain.GroupInput)
	if err != nil {
		return err
	}
	outData, err := loader.LoadCellData(outputIndex, chain.Output)
	if err != nil {
		return err
	}
	if string(inData) != string(outData) {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: reverted custodian cell data mismatch")
	}

	inType, err := loader.LoadCellTypeHash(0, chain.GroupInput)
	if err != nil {
		return err
	}
	outType, err := loader.LoadCellTypeHash(outputIndex, chain.Output)
	if err != nil {
		return err
	}
	if !hashPtrEqual(inType, outType) {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: reverted custodian cell type-hash mismatch")
	}
	return nil
}

func hashPtrEqual(a, b *[32]byte) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// verifyViaFinalize authorizes spending a withdrawal cell once the rollup
// has finalized its originating block: the owner named in the lock args
// must provide a matching input (proof of spending intent).
func verifyViaFinalize(loader chain.Loader, lockArgs *chaintypes.WithdrawalLockArgs) error {
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
			return ckberrors.New(ckberrors.ItemMissing, "withdrawal: rollup cell not found in cell-deps or inputs")
		}
	}

	if lockArgs.WithdrawalBlockNumber > globalState.LastFinalizedBlockNumber {
		return ckberrors.New(ckberrors.InvalidLastFinalizedWithdrawal, "withdrawal: block not yet finalized")
	}

	ownerIndex, err := chain.QueryCellLockHash(loader, chain.Input, [32]byte(lockArgs.OwnerLockHash))
	if err != nil {
		return err
	}
	if ownerIndex < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "withdrawal: owner cell not found in inputs")
	}
	return nil
}

// verifyViaTrade authorizes a secondary-market sale of the withdrawal cell
// (§4.3, resolved per SPEC_FULL.md Open Question #4: block-number carries
// over byte-identical, not merely non-decreasing). The replacement cell at
// the same absolute cell index keeps every WithdrawalLockArgs field except
// owner-lock-hash and payment-lock-hash, both of which become the new
// owner's (the payer's) lock hash. The payer's payment lands in an output
// locked by the previous payment-lock-hash.
func verifyViaTrade(loader chain.Loader, lockArgs *chaintypes.WithdrawalLockArgs, unlock *chaintypes.UnlockWithdrawalWitness) error {
	if lockArgs.SellCapacity == 0 && lockArgs.SellAmount.IsZero() {
		return ckberrors.New(ckberrors.NotForSell, "withdrawal: cell is not for sale")
	}

	trade, err := unlock.AsViaTrade()
	if err != nil {
		return err
	}
	newOwnerHash := trade.OwnerLock.Hash()

	ownHash, err := loader.LoadScriptHash()
	if err != nil {
		return err
	}
	ownIndex, err := chain.QueryCellLockHash(loader, chain.Input, ownHash)
	if err != nil {
		return err
	}
	if ownIndex < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "withdrawal: own cell not found in inputs")
	}

	outCell, err := loader.LoadCell(ownIndex, chain.Output)
	if err != nil {
		return err
	}
	outArgs, err := chaintypes.ParseWithdrawalLockArgs(outCell.Output.Lock.Args)
	if err != nil {
		return ckberrors.New(ckberrors.InvalidWithdrawalCell, "withdrawal: malformed replacement withdrawal lock args")
	}

	if outArgs.RollupTypeHash != lockArgs.RollupTypeHash ||
		outArgs.WithdrawalBlockHash != lockArgs.WithdrawalBlockHash ||
		outArgs.WithdrawalBlockNumber != lockArgs.WithdrawalBlockNumber ||
		outArgs.AccountScriptHash != lockArgs.AccountScriptHash ||
		outArgs.SudtScriptHash != lockArgs.SudtScriptHash ||
		outArgs.SellCapacity != lockArgs.SellCapacity ||
		outArgs.SellAmount.Cmp(lockArgs.SellAmount) != 0 {
		return ckberrors.New(ckberrors.InvalidWithdrawalCell, "withdrawal: replacement cell alters a field the trade must preserve")
	}
	if outArgs.OwnerLockHash != newOwnerHash || outArgs.PaymentLockHash != newOwnerHash {
		return ckberrors.New(ckberrors.InvalidWithdrawalCell, "withdrawal: replacement cell's owner/payment lock hash must be the payer's")
	}

	paymentIndex, err := chain.QueryCellLockHash(loader, chain.Output, [32]byte(lockArgs.PaymentLockHash))
	if err != nil {
		return err
	}
	if paymentIndex < 0 {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: no payment cell locked by the previous payee's payment-lock-hash")
	}
	paymentCap, err := loader.LoadCellCapacity(paymentIndex, chain.Output)
	if err != nil {
		return err
	}
	if paymentCap < lockArgs.SellCapacity {
		return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: payment cell capacity below sell-capacity")
	}

	if !lockArgs.SellAmount.IsZero() {
		amount, err := loadSudtAmount(loader, paymentIndex, chain.Output, lockArgs.SudtScriptHash)
		if err != nil {
			return err
		}
		if amount.Cmp(lockArgs.SellAmount) < 0 {
			return ckberrors.New(ckberrors.InvalidOutput, "withdrawal: payment cell sudt amount below sell-amount")
		}
	}
	return nil
}

// loadSudtAmount reads a cell's type hash and 16-byte little-endian SUDT
// amount field, the standard on-chain SUDT cell-data layout (distinct from
// this repo's own molecule-table u128 encoding used inside withdrawal
// requests, which this codebase stores big-endian).
func loadSudtAmount(loader chain.Loader, index int, source chain.Source, wantSudtHash chaintypes.Hash) (*uint256.Int, error) {
	typeHash, err := loader.LoadCellTypeHash(index, source)
	if err != nil {
		return nil, err
	}
	if typeHash == nil || chaintypes.Hash(*typeHash) != wantSudtHash {
		return nil, ckberrors.New(ckberrors.InvalidOutput, "withdrawal: payment cell is not a cell of the declared sudt script")
	}
	data, err := loader.LoadCellData(index, source)
	if err != nil {
		return nil, err
	}
	if len(data) < 16 {
		return nil, ckberrors.New(ckberrors.LengthNotEnough, "withdrawal: sudt cell data shorter than an amount field")
	}
	amount := new(uint256.Int)
	return amount.SetBytes(reverse16(data[:16])), nil
}

func reverse16(b []byte) []byte {
	out := make([]byte, 16)
	for i, v := range b {
		out[15-i] = v
	}
	return out
}
