// Command state-validator is the rollup cell's type script: the unique
// authority over GlobalState transitions (§5). It takes no flags, reads
// nothing but the host syscalls, and returns a single exit code.
package main

import (
	"os"

	"github.com/godwoken-rollup/rollup-scripts/chain"
	"github.com/godwoken-rollup/rollup-scripts/ckberrors"
	"github.com/godwoken-rollup/rollup-scripts/validator"
)

func main() {
	os.Exit(int(ckberrors.CodeOf(validator.Run(chain.NewHost()))))
}
