// Package validator implements the state-validator type script: the
// single authority over GlobalState (§5 "the state-validator is the
// unique authority over GlobalState; all other locks only inspect it").
// It runs once per rollup cell, dispatching on the RollupAction witness
// tag into the matching verification function in this package.
package validator

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupconfig"
)

// Run is the state-validator's entry point. The rollup cell is the unique
// cell bearing this exact script, so GroupInput/GroupOutput index 0 (when
// present) is always "the" rollup cell -- no type-hash search is needed
// the way a lock script needs one.
func Run(loader chain.Loader) error {
	if err := checkTypeID(loader); err != nil {
		return err
	}

	isInit, err := checkInitialization(loader)
	if err != nil {
		return err
	}
	if isInit {
		return nil
	}

	prevRaw, err := loader.LoadCellData(0, chain.GroupInput)
	if err != nil {
		return err
	}
	prev, err := chaintypes.ParseGlobalState(prevRaw)
	if err != nil {
		return ckberrors.New(ckberrors.Encoding, "validator: malformed prev GlobalState")
	}

	postRaw, err := loader.LoadCellData(0, chain.GroupOutput)
	if err != nil {
		return err
	}
	post, err := chaintypes.ParseGlobalState(postRaw)
	if err != nil {
		return ckberrors.New(ckberrors.Encoding, "validator: malformed post GlobalState")
	}

	rollupConfig, err := rollupconfig.Load(loader, prev.RollupConfigHash)
	if err != nil {
		return err
	}

	rollupTypeHash, err := loader.LoadScriptHash()
	if err != nil {
		return err
	}

	w, err := loader.LoadWitnessArgs(0, chain.GroupOutput)
	if err != nil {
		return err
	}
	if len(w.OutputType) == 0 {
		return ckberrors.New(ckberrors.Encoding, "validator: rollup cell witness carries no action")
	}
	action, err := chaintypes.ParseRollupAction(w.OutputType)
	if err != nil {
		return err
	}

	switch action.Tag {
	case chaintypes.RollupSubmitBlock:
		submit, err := action.AsSubmitBlock()
		if err != nil {
			return err
		}
		return verifySubmitBlock(loader, chaintypes.Hash(rollupTypeHash), *rollupConfig, *prev, *post, *submit)
	case chaintypes.RollupEnterChallenge:
		enter, err := action.AsEnterChallenge()
		if err != nil {
			return err
		}
		return verifyEnterChallenge(loader, chaintypes.Hash(rollupTypeHash), *prev, *post, *enter)
	case chaintypes.RollupCancelChallenge:
		if _, err := action.AsCancelChallenge(); err != nil {
			return err
		}
		return verifyCancelChallenge(loader, chaintypes.Hash(rollupTypeHash), *rollupConfig, *prev, *post)
	case chaintypes.RollupRevert:
		revert, err := action.AsRevert()
		if err != nil {
			return err
		}
		return verifyRevert(loader, chaintypes.Hash(rollupTypeHash), *rollupConfig, *prev, *post, *revert)
	case chaintypes.RollupFinalizeWithdrawal:
		fw, err := action.AsFinalizeWithdrawal()
		if err != nil {
			return err
		}
		return verifyFinalizeWithdrawal(loader, chaintypes.Hash(rollupTypeHash), *rollupConfig, *prev, *post, *fw)
	default:
		return ckberrors.New(ckberrors.Encoding, "validator: unknown rollup action tag")
	}
}

// checkTypeID enforces the rollup cell's singleton invariant. chain.Loader
// has no previous-outpoint syscall to run the canonical type-id creation-
// hash check with, but GroupInput/GroupOutput already restrict to cells
// sharing this exact script (code-hash+hash-type+args), so the invariant
// spec.md describes ("exactly one type-id instance across inputs+outputs,
// or exactly one on output during initialization") reduces to a count.
func checkTypeID(loader chain.Loader) error {
	if loader.CellCount(chain.GroupInput) > 1 || loader.CellCount(chain.GroupOutput) > 1 {
		return ckberrors.New(ckberrors.Encoding, "validator: more than one live rollup-cell instance")
	}
	return nil
}

// checkInitialization mirrors entry.rs's check_initialization(): absence
// of an input rollup cell means this transaction is creating the rollup,
// not updating it. Initialization only has to prove the declared
// RollupConfig cell-dep exists; no GlobalState transition rules apply yet.
func checkInitialization(loader chain.Loader) (bool, error) {
	if loader.CellCount(chain.GroupInput) > 0 {
		return false, nil
	}
	if loader.CellCount(chain.GroupOutput) != 1 {
		return false, ckberrors.New(ckberrors.Encoding, "validator: initialization requires exactly one output rollup cell")
	}
	postRaw, err := loader.LoadCellData(0, chain.GroupOutput)
	if err != nil {
		return false, err
	}
	post, err := chaintypes.ParseGlobalState(postRaw)
	if err != nil {
		return false, ckberrors.New(ckberrors.Encoding, "validator: malformed post GlobalState")
	}
	if _, err := rollupconfig.Load(loader, post.RollupConfigHash); err != nil {
		return false, err
	}
	return true, nil
}
