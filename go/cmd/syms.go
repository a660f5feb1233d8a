package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunixbochs/qbdl/go/elf"
)

func runSyms(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	bin, err := elf.Parse(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, sym := range bin.DynamicSymbols() {
		fmt.Fprintf(out, "%016x %8d %s\n", sym.Value, sym.Size, sym.Name)
	}
	return nil
}
