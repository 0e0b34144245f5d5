// Command challenge-lock guards an in-progress fraud challenge cell (§4.2).
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/locks/challenge"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(challenge.Run(chain.NewHost()))))
}
