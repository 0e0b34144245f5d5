package validator

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/smt"
)

// verifySubmitBlock implements §4.1.1. The block tree's own root is not
// recomputed here: real RollupSubmitBlock witnesses carry no separate
// block-insertion merkle proof (confirmed by the union's own 3-field
// schema -- block, reverted-block-hashes, reverted-block-proof), so
// post.Block.MerkleRoot is accepted on the block producer's stake the same
// way the real protocol does; only post.Block.Count is checked directly.
func verifySubmitBlock(loader chain.Loader, rollupTypeHash chaintypes.Hash, rollupConfig chaintypes.RollupConfig, prev, post chaintypes.GlobalState, submit chaintypes.SubmitBlockAction) error {
	if err := checkStatus(prev, chaintypes.StatusRunning); err != nil {
		return err
	}

	raw := submit.Block.Raw
	if raw.Number != prev.Block.Count {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: submitted block number is not prev tip + 1")
	}
	if raw.ParentHash != prev.TipBlockHash {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: submitted block parent hash does not match prev tip")
	}
	if raw.PrevAccountRoot != prev.Account.MerkleRoot {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: submitted block prev-account-root does not match prev global state")
	}

	if post.Version >= 1 {
		if raw.Timestamp <= prev.TipBlockTimestamp {
			return ckberrors.New(ckberrors.InvalidBlock, "validator: submitted block timestamp does not advance")
		}
		sinceTimestamp, err := loader.Since(0, chain.GroupInput)
		if err != nil {
			return err
		}
		if raw.Timestamp > sinceTimestamp {
			return ckberrors.New(ckberrors.InvalidBlock, "validator: submitted block timestamp exceeds the transaction's since-timestamp")
		}
	}

	if err := checkRevertedBlockHashesProof(post, submit); err != nil {
		return err
	}

	if err := checkStakeCell(loader, rollupConfig, rollupTypeHash, raw.Number); err != nil {
		return err
	}

	upgradingToV2 := prev.Version < 2 && post.Version == 2
	if post.Version < 2 || upgradingToV2 {
		if err := checkV1Accounting(loader, rollupConfig, rollupTypeHash, post.Version, submit.Block.Withdrawals); err != nil {
			return err
		}
	} else {
		withdrawalOutputs, err := countRollupPrefixedCells(loader, chain.Output, rollupConfig.WithdrawalScriptTypeHash, rollupTypeHash)
		if err != nil {
			return err
		}
		if withdrawalOutputs != 0 {
			return ckberrors.New(ckberrors.InvalidOutput, "validator: submit-block must not emit withdrawal cells once version 2 is active")
		}
	}

	finalityBlocks := rollupConfig.FinalityBlocks
	newFinalized := prev.LastFinalizedBlockNumber
	if raw.Number > finalityBlocks && raw.Number-finalityBlocks > newFinalized {
		newFinalized = raw.Number - finalityBlocks
	}

	want := prev
	want.Account.MerkleRoot = raw.PostAccountRoot
	want.Block = chaintypes.MerkleState{MerkleRoot: post.Block.MerkleRoot, Count: prev.Block.Count + 1}
	want.RevertedBlockRoot = post.RevertedBlockRoot
	want.LastFinalizedBlockNumber = newFinalized
	want.TipBlockHash = raw.Hash()
	want.Version = post.Version

	if post.Version >= 1 {
		want.TipBlockTimestamp = raw.Timestamp
	}

	if upgradingToV2 {
		withdrawalIndex := chaintypes.WithdrawalCursorIndex{Kind: chaintypes.AllWithdrawals}
		if len(submit.Block.Withdrawals) == 0 {
			withdrawalIndex = chaintypes.WithdrawalCursorIndex{Kind: chaintypes.NoWithdrawal}
		}
		want.LastFinalizedWithdrawalCursor = chaintypes.WithdrawalCursor{BlockNumber: raw.Number, Index: withdrawalIndex}
	}

	if !post.Equal(want) {
		return ckberrors.New(ckberrors.InvalidPostGlobalState, "validator: post global state changes a field submit-block does not own")
	}
	return nil
}

// checkRevertedBlockHashesProof verifies submit.RevertedBlockHashes sit
// under post.RevertedBlockRoot. There is no surviving original_source file
// for this membership scheme, so it is modeled the way the block/account
// trees are: a compiled SMT proof over (key, value) leaves, keyed here by
// the block hash itself (the reverted set has no natural small-integer
// key the way blocks and accounts do) with any nonzero value as the
// membership sentinel.
func checkRevertedBlockHashesProof(post chaintypes.GlobalState, submit chaintypes.SubmitBlockAction) error {
	if len(submit.RevertedBlockHashes) == 0 {
		return nil
	}
	leaves := make([]smt.Pair, len(submit.RevertedBlockHashes))
	for i, h := range submit.RevertedBlockHashes {
		leaves[i] = smt.Pair{Key: smt.H256(h), Value: smt.H256{0x01}}
	}
	ok, err := smt.VerifyCompiledProof(smt.H256(post.RevertedBlockRoot), leaves, submit.RevertedBlockProof)
	if err != nil {
		return err
	}
	if !ok {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: reverted-block-hashes proof does not match post reverted-block-root")
	}
	return nil
}

// checkStakeCell enforces the single input/output stake cell rule: exactly
// one of each bearing this rollup's prefix, matching capacities, and the
// output's stake-block-number equal to the newly submitted block's number.
func checkStakeCell(loader chain.Loader, rollupConfig chaintypes.RollupConfig, rollupTypeHash chaintypes.Hash, blockNumber uint64) error {
	inCount, err := countRollupPrefixedCells(loader, chain.Input, rollupConfig.StakeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	outCount, err := countRollupPrefixedCells(loader, chain.Output, rollupConfig.StakeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if inCount != 1 || outCount != 1 {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: submit-block requires exactly one input and one output stake cell")
	}

	inIdx, err := findRollupPrefixedCell(loader, chain.Input, rollupConfig.StakeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	outIdx, err := findRollupPrefixedCell(loader, chain.Output, rollupConfig.StakeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	inCap, err := loader.LoadCellCapacity(inIdx, chain.Input)
	if err != nil {
		return err
	}
	outCap, err := loader.LoadCellCapacity(outIdx, chain.Output)
	if err != nil {
		return err
	}
	if inCap != outCap {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: stake cell capacity must be preserved across submit-block")
	}

	outCell, err := loader.LoadCell(outIdx, chain.Output)
	if err != nil {
		return err
	}
	outArgs, err := chaintypes.ParseStakeLockArgs(outCell.Output.Lock.Args)
	if err != nil {
		return ckberrors.New(ckberrors.Encoding, "validator: malformed output stake lock args")
	}
	if outArgs.StakeBlockNumber != blockNumber {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: output stake cell is not posted for the submitted block")
	}
	return nil
}

// checkV1Accounting is a cardinality-plus-commitment approximation of
// §4.1.1's deposit/custodian/withdrawal accounting. Deposit cells have no
// registered type-hash in RollupConfig to scan by (mirroring the real
// protocol, which also leaves deposit-lock identification to the generator
// rather than the rollup-config cell), so full per-cell capacity/sudt
// value-conservation matching is out of reach here; what this does check:
// one output withdrawal cell per withdrawal request in the block, each
// one's owner-lock-hash bytes cryptographically committed by a request in
// that same block (chaintypes.ParseWithdrawalLockArgs already rejects a
// packed owner lock whose hash disagrees with its own args), funded by at
// least that many consumed custodian cells.
func checkV1Accounting(loader chain.Loader, rollupConfig chaintypes.RollupConfig, rollupTypeHash chaintypes.Hash, version uint8, withdrawals []chaintypes.WithdrawalRequest) error {
	withdrawalCount := len(withdrawals)
	withdrawalOutputs, err := collectRollupPrefixedCells(loader, chain.Output, rollupConfig.WithdrawalScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if len(withdrawalOutputs) != withdrawalCount {
		return ckberrors.New(ckberrors.InvalidOutput, "validator: output withdrawal cell count does not match the block's withdrawal requests")
	}
	if withdrawalCount == 0 {
		return nil
	}

	remaining := make(map[chaintypes.Hash]int, withdrawalCount)
	for _, w := range withdrawals {
		remaining[w.Raw.OwnerLockHash]++
	}
	for _, idx := range withdrawalOutputs {
		cell, err := loader.LoadCell(idx, chain.Output)
		if err != nil {
			return err
		}
		args, err := chaintypes.ParseWithdrawalLockArgs(cell.Output.Lock.Args)
		if err != nil {
			return ckberrors.New(ckberrors.Encoding, "validator: malformed output withdrawal lock args")
		}
		if remaining[args.OwnerLockHash] == 0 {
			return ckberrors.New(ckberrors.InvalidOutput, "validator: output withdrawal cell owner-lock-hash is not committed by any of the block's withdrawal requests")
		}
		remaining[args.OwnerLockHash]--
	}

	custodianInputs, err := countRollupPrefixedCells(loader, chain.Input, rollupConfig.CustodianScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if custodianInputs < withdrawalCount {
		return ckberrors.New(ckberrors.InvalidCustodianCell, "validator: not enough consumed custodian cells to fund the block's withdrawals")
	}
	return nil
}
