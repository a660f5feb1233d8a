package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lunixbochs/qbdl/go/loader"
	"github.com/lunixbochs/qbdl/go/target/uctarget"
)

func runRun(cmd *cobra.Command, args []string) error {
	path := args[0]
	machine, err := sniffMachine(path)
	if err != nil {
		return err
	}
	binding, err := bindingFor(cfg.Bind)
	if err != nil {
		return err
	}

	engine := engineFor(machine)
	uc, ok := engine.(*uctarget.Engine)
	if !ok {
		return fmt.Errorf("qbdl run: requires a real CPU, pass without --sim")
	}

	l, err := loader.FromFile(path, engine, binding)
	if err != nil {
		return err
	}
	defer l.Close()
	l.SetLogger(loggerFor(cmd))

	fmt.Fprintf(cmd.OutOrStdout(), "base: 0x%x, entry: 0x%x, starting...\n", l.BaseAddress(), l.Entrypoint())
	if err := uc.Run(l.Entrypoint()); err != nil {
		return fmt.Errorf("qbdl run: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "exited")
	return nil
}
