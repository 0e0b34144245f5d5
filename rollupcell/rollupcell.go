// Package rollupcell finds the rollup cell within a transaction and reads
// its state and action witness -- the same handful of lookups every lock
// script needs before it can check anything else (original_source's
// validator-utils/src/cells/rollup.rs: search_rollup_cell,
// search_rollup_state, parse_rollup_action). Each of the three lock scripts
// in locks/ calls into here first; keeping it in one place means a challenge,
// withdrawal, or custodian cell agrees with the state-validator itself on
// what "the rollup cell" and "its action" mean.
package rollupcell

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
)

// Search returns the index of the cell under source whose type hash equals
// rollupTypeHash, or -1 if no such cell exists.
func Search(loader chain.Loader, rollupTypeHash chaintypes.Hash, source chain.Source) (int, error) {
	idx, err := chain.QueryCellTypeHash(loader, source, [32]byte(rollupTypeHash))
	if err != nil {
		return -1, err
	}
	return idx, nil
}

// SearchState finds the rollup cell under source and parses its data as a
// GlobalState. It returns (nil, -1, nil) when the cell is absent -- callers
// that allow a cell-dep/input fallback decide for themselves whether that
// is fatal.
func SearchState(loader chain.Loader, rollupTypeHash chaintypes.Hash, source chain.Source) (*chaintypes.GlobalState, int, error) {
	idx, err := Search(loader, rollupTypeHash, source)
	if err != nil {
		return nil, -1, err
	}
	if idx < 0 {
		return nil, -1, nil
	}
	data, err := loader.LoadCellData(idx, source)
	if err != nil {
		return nil, -1, err
	}
	gs, err := chaintypes.ParseGlobalState(data)
	if err != nil {
		return nil, -1, ckberrors.New(ckberrors.Encoding, "rollupcell: malformed GlobalState cell")
	}
	return gs, idx, nil
}

// LoadState is SearchState but fatal on absence -- the common case where a
// verifier already knows the rollup cell must exist under source.
func LoadState(loader chain.Loader, rollupTypeHash chaintypes.Hash, source chain.Source) (*chaintypes.GlobalState, int, error) {
	gs, idx, err := SearchState(loader, rollupTypeHash, source)
	if err != nil {
		return nil, -1, err
	}
	if gs == nil {
		return nil, -1, ckberrors.New(ckberrors.ItemMissing, "rollupcell: rollup cell not found")
	}
	return gs, idx, nil
}

// ParseAction reads the RollupAction a rollup cell's own witness carries at
// index/source: the output-type field of its WitnessArgs.
func ParseAction(loader chain.Loader, index int, source chain.Source) (*chaintypes.RollupAction, error) {
	w, err := loader.LoadWitnessArgs(index, source)
	if err != nil {
		return nil, err
	}
	if len(w.OutputType) == 0 {
		return nil, ckberrors.New(ckberrors.Encoding, "rollupcell: witness carries no rollup action")
	}
	return chaintypes.ParseRollupAction(w.OutputType)
}
