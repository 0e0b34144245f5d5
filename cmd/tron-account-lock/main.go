// Command tron-account-lock authenticates a TRON-style L2 EOA (§4.4).
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/accountlock/tron"
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(tron.Run(chain.NewHost()))))
}
