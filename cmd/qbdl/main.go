// Command qbdl is a thin wrapper around qbdl/go/cmd's cobra tree.
package main

import (
	"fmt"
	"os"

	"github.com/lunixbochs/qbdl/go/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "qbdl: %s\n", err)
		os.Exit(1)
	}
}
