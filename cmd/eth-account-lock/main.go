// Command eth-account-lock authenticates an Ethereum-style L2 EOA (§4.4).
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/accountlock/eth"
	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(eth.Run(chain.NewHost()))))
}
