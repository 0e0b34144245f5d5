package validator

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupconfig"
	"github.com/godwoken-rollup/rollup-scripts/smt"
)

// verifyEnterChallenge implements §4.1.2: opening a challenge against a
// block the challenger claims is invalid, proven present under
// prev.Block.MerkleRoot. The challenged target itself (which tx or
// withdrawal, and by which verifier) is read from the output challenge
// cell's own lock args, not from the witness -- the witness only proves
// the raw block exists; naming the target is the challenge lock's job.
func verifyEnterChallenge(loader chain.Loader, rollupTypeHash chaintypes.Hash, prev, post chaintypes.GlobalState, enter chaintypes.EnterChallengeAction) error {
	if err := checkStatus(prev, chaintypes.StatusRunning); err != nil {
		return err
	}

	rollupConfig, err := rollupconfig.Load(loader, prev.RollupConfigHash)
	if err != nil {
		return err
	}

	if n, err := countRollupPrefixedCells(loader, chain.Input, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash); err != nil {
		return err
	} else if n != 0 {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: enter-challenge must not consume an existing challenge cell")
	}
	if n, err := countRollupPrefixedCells(loader, chain.Output, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash); err != nil {
		return err
	} else if n != 1 {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: enter-challenge requires exactly one output challenge cell")
	}
	challengeIdx, err := findRollupPrefixedCell(loader, chain.Output, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if challengeIdx < 0 {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: enter-challenge requires exactly one output challenge cell")
	}

	challenged := enter.ChallengedBlock
	if challenged.Number <= prev.LastFinalizedBlockNumber {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: cannot challenge an already-finalized block")
	}

	leaves := []smt.Pair{{Key: smt.ComputeKey(challenged.Number), Value: smt.H256(challenged.Hash())}}
	ok, err := smt.VerifyCompiledProof(smt.H256(prev.Block.MerkleRoot), leaves, enter.BlockProof)
	if err != nil {
		return err
	}
	if !ok {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: challenged block is not proven present under prev block root")
	}

	challengeCell, err := loader.LoadCell(challengeIdx, chain.Output)
	if err != nil {
		return err
	}
	challengeArgs, err := chaintypes.ParseChallengeLockArgs(challengeCell.Output.Lock.Args)
	if err != nil {
		return ckberrors.New(ckberrors.Encoding, "validator: malformed output challenge lock args")
	}
	if challengeArgs.Target.BlockHash != challenged.Hash() {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: challenge cell target block does not match the proven block")
	}
	switch challengeArgs.Target.TargetType {
	case chaintypes.TargetTxExecution, chaintypes.TargetTxSignature:
		if challengeArgs.Target.TargetIndex >= challenged.SubmitTransactions.TxCount {
			return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: challenge target index exceeds the block's tx count")
		}
	case chaintypes.TargetWithdrawal:
		if challengeArgs.Target.TargetIndex >= challenged.SubmitWithdrawals.WithdrawalCount {
			return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: challenge target index exceeds the block's withdrawal count")
		}
	default:
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: unknown challenge target type")
	}

	if err := checkRollupLockCells(loader, *rollupConfig, rollupTypeHash); err != nil {
		return err
	}

	want := prev
	want.Status = chaintypes.StatusHalting
	if !post.Equal(want) {
		return ckberrors.New(ckberrors.InvalidPostGlobalState, "validator: post global state changes a field enter-challenge does not own")
	}
	return nil
}

// verifyCancelChallenge implements §4.2's rollup-side half: confirming the
// status transition back to Running once a challenge cell is consumed with
// no replacement. The signature/execution proof that earns this transition
// is the challenge lock's own unlock witness, not anything checked here.
func verifyCancelChallenge(loader chain.Loader, rollupTypeHash chaintypes.Hash, rollupConfig chaintypes.RollupConfig, prev, post chaintypes.GlobalState) error {
	if err := checkStatus(prev, chaintypes.StatusHalting); err != nil {
		return err
	}

	inCount, err := countRollupPrefixedCells(loader, chain.Input, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	outCount, err := countRollupPrefixedCells(loader, chain.Output, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if inCount != 1 || outCount != 0 {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: cancel-challenge requires exactly one input and zero output challenge cells")
	}

	challengeIdx, err := findRollupPrefixedCell(loader, chain.Input, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	challengeCap, err := loader.LoadCellCapacity(challengeIdx, chain.Input)
	if err != nil {
		return err
	}
	if err := checkRewardBurn(loader, challengeCap, rollupConfig); err != nil {
		return err
	}

	if err := checkRollupLockCells(loader, rollupConfig, rollupTypeHash); err != nil {
		return err
	}

	want := prev
	want.Status = chaintypes.StatusRunning
	if !post.Equal(want) {
		return ckberrors.New(ckberrors.InvalidPostGlobalState, "validator: post global state changes a field cancel-challenge does not own")
	}
	return nil
}
