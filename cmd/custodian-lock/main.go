// Command custodian-lock guards a deposit-turned-custodian cell until it is
// either swept by finalize-withdrawal or reclaimed on revert (§4.5).
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/locks/custodian"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(custodian.Run(chain.NewHost()))))
}
