package challenge

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcell"
	"github.com/godwoken-rollup/rollup-scripts/rollupconfig"
)

// Run is the challenge lock script's entry point. A challenge cell exists to
// be cancelled: the transaction that spends it must prove, via the witness
// it carries, that the block action it accompanies resolves the cell's
// target correctly (§4.2). Entering a challenge or reverting one needs no
// proof from this cell at all -- the state-validator already checked those
// transitions -- so both accept immediately.
func Run(loader chain.Loader) error {
	rollupTypeHash, lockArgs, err := parseLockArgs(loader)
	if err != nil {
		return err
	}

	rollupIndex, err := rollupcell.Search(loader, rollupTypeHash, chain.Output)
	if err != nil {
		return err
	}
	if rollupIndex < 0 {
		return ckberrors.New(ckberrors.ItemMissing, "challenge: rollup cell not found in outputs")
	}
	action, err := rollupcell.ParseAction(loader, rollupIndex, chain.Output)
	if err != nil {
		return err
	}

	switch action.Tag {
	case chaintypes.RollupEnterChallenge, chaintypes.RollupRevert:
		return nil
	case chaintypes.RollupCancelChallenge:
	default:
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "challenge: rollup action does not resolve a challenge")
	}

	prevState, _, err := rollupcell.LoadState(loader, rollupTypeHash, chain.Input)
	if err != nil {
		return err
	}
	rollupConfig, err := rollupconfig.Load(loader, prevState.RollupConfigHash)
	if err != nil {
		return err
	}

	switch lockArgs.Target.TargetType {
	case chaintypes.TargetTxExecution:
		return verifyTxExecution(loader, rollupConfig, lockArgs.Target)
	case chaintypes.TargetTxSignature:
		return verifyTxSignature(loader, rollupConfig, lockArgs.Target)
	case chaintypes.TargetWithdrawal:
		return verifyWithdrawal(loader, rollupConfig, lockArgs.Target)
	default:
		return ckberrors.New(ckberrors.InvalidChallengeTarget, "challenge: unknown challenge target type")
	}
}

func parseLockArgs(loader chain.Loader) (chaintypes.Hash, *chaintypes.ChallengeLockArgs, error) {
	script, err := loader.LoadScript()
	if err != nil {
		return chaintypes.Hash{}, nil, err
	}
	lockArgs, err := chaintypes.ParseChallengeLockArgs(script.Args)
	if err != nil {
		return chaintypes.Hash{}, nil, err
	}
	return lockArgs.RollupTypeHash, lockArgs, nil
}
