// Command withdrawal-lock guards a withdrawal request cell through its
// finalize/revert/trade unlock paths (§4.3).
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/locks/withdrawal"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(withdrawal.Run(chain.NewHost()))))
}
