package validator

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/smt"
)

// verifyRevert implements §4.1.4. There is no surviving original_source
// file for this verifier (only a test harness remains), so the SMT
// membership scheme below is grounded on verifySubmitBlock's
// checkRevertedBlockHashesProof: the same (block-hash -> sentinel) key
// scheme, here checked as a transition from absent (zero) to present (one)
// using the one compiled proof the witness carries.
func verifyRevert(loader chain.Loader, rollupTypeHash chaintypes.Hash, rollupConfig chaintypes.RollupConfig, prev, post chaintypes.GlobalState, revert chaintypes.RevertAction) error {
	if err := checkStatus(prev, chaintypes.StatusHalting); err != nil {
		return err
	}
	if len(revert.RevertedBlocks) == 0 {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: revert requires at least one reverted block")
	}

	challengeIdx, err := findRollupPrefixedCell(loader, chain.Input, rollupConfig.ChallengeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if challengeIdx < 0 {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: revert requires an input challenge cell")
	}
	sinceBlocks, err := loader.Since(challengeIdx, chain.Input)
	if err != nil {
		return err
	}
	if sinceBlocks < rollupConfig.ChallengeMaturityBlocks {
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "validator: challenge has not reached maturity")
	}
	challengeCap, err := loader.LoadCellCapacity(challengeIdx, chain.Input)
	if err != nil {
		return err
	}
	if err := checkRewardBurn(loader, challengeCap, rollupConfig); err != nil {
		return err
	}

	stakeIdx, err := findRollupPrefixedCell(loader, chain.Input, rollupConfig.StakeScriptTypeHash, rollupTypeHash)
	if err != nil {
		return err
	}
	if stakeIdx < 0 {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: revert requires an input stake cell")
	}
	stakeCell, err := loader.LoadCell(stakeIdx, chain.Input)
	if err != nil {
		return err
	}
	stakeArgs, err := chaintypes.ParseStakeLockArgs(stakeCell.Output.Lock.Args)
	if err != nil {
		return ckberrors.New(ckberrors.Encoding, "validator: malformed input stake lock args")
	}
	if stakeArgs.OwnerLockHash != revert.StakeOwnerLockHash {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: revert's declared stake owner does not match the input stake cell")
	}
	if n, err := countRollupPrefixedCells(loader, chain.Output, rollupConfig.StakeScriptTypeHash, rollupTypeHash); err != nil {
		return err
	} else if n != 0 {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: slashed stake cell must have no output replacement")
	}

	zeroLeaves := make([]smt.Pair, len(revert.RevertedBlocks))
	oneLeaves := make([]smt.Pair, len(revert.RevertedBlocks))
	for i, b := range revert.RevertedBlocks {
		key := smt.H256(b.Hash())
		zeroLeaves[i] = smt.Pair{Key: key, Value: smt.H256{}}
		oneLeaves[i] = smt.Pair{Key: key, Value: smt.H256{0x01}}
	}
	okPre, err := smt.VerifyCompiledProof(smt.H256(prev.RevertedBlockRoot), zeroLeaves, revert.RevertedBlockProof)
	if err != nil {
		return err
	}
	if !okPre {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: reverted blocks were already present under prev reverted-block-root")
	}
	okPost, err := smt.VerifyCompiledProof(smt.H256(post.RevertedBlockRoot), oneLeaves, revert.RevertedBlockProof)
	if err != nil {
		return err
	}
	if !okPost {
		return ckberrors.New(ckberrors.InvalidBlock, "validator: reverted blocks are not recorded under post reverted-block-root")
	}

	first := revert.RevertedBlocks[0]
	newFinalized := uint64(0)
	if first.Number > 1+rollupConfig.FinalityBlocks {
		newFinalized = first.Number - 1 - rollupConfig.FinalityBlocks
	}

	want := prev
	want.Status = chaintypes.StatusRunning
	want.Account.MerkleRoot = first.PrevAccountRoot
	want.TipBlockHash = first.ParentHash
	want.RevertedBlockRoot = post.RevertedBlockRoot
	want.LastFinalizedBlockNumber = newFinalized
	if !post.Equal(want) {
		return ckberrors.New(ckberrors.InvalidPostGlobalState, "validator: post global state changes a field revert does not own")
	}
	return nil
}
