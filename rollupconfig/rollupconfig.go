// Package rollupconfig loads the immutable RollupConfig cell-dep a rollup
// cell's GlobalState.RollupConfigHash names (spec §4.1: "Load RollupConfig
// by its content hash from cell-deps; fail if absent"). There is no other
// configuration surface in this core -- no flags, env vars, or files (§1
// non-goals) -- so this reader is the entire "config" package.
package rollupconfig

import (
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/chaintypes"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/rollupcrypto"
)

// Load scans cell-dep data for the one cell whose content hash equals
// want, molecule-parses it as a RollupConfig, and returns it.
func Load(loader chain.Loader, want chaintypes.Hash) (*chaintypes.RollupConfig, error) {
	count := loader.CellCount(chain.CellDep)
	for i := 0; i < count; i++ {
		data, err := loader.LoadCellData(i, chain.CellDep)
		if err != nil {
			continue
		}
		if chaintypes.Hash(rollupcrypto.CKBBlake2b(data)) != want {
			continue
		}
		cfg, err := chaintypes.ParseRollupConfig(data)
		if err != nil {
			return nil, ckberrors.New(ckberrors.Encoding, "rollupconfig: malformed RollupConfig cell")
		}
		return cfg, nil
	}
	return nil, ckberrors.New(ckberrors.ItemMissing, "rollupconfig: no cell-dep matches rollup-config-hash")
}
