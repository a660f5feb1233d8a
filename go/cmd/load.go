package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lunixbochs/qbdl/go/elf"
	"github.com/lunixbochs/qbdl/go/loader"
	"github.com/lunixbochs/qbdl/go/models"
	"github.com/lunixbochs/qbdl/go/target"
	"github.com/lunixbochs/qbdl/go/target/sim"
	"github.com/lunixbochs/qbdl/go/target/uctarget"
)

// sniffMachine peeks at path's ELF header just far enough to pick a
// TargetSystem, ahead of the heavier loader.FromFile parse.
func sniffMachine(path string) (models.Machine, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.MachineOther, err
	}
	defer f.Close()
	return elf.Machine(f)
}

// engineFor builds the TargetSystem load/run need. --sim always wins; the
// unicorn engine is only reachable for machines it knows how to open, so
// a machine uctarget doesn't cover falls back to the simulator with a
// warning rather than failing outright.
func engineFor(machine models.Machine) target.TargetSystem {
	if cfg.Sim {
		return sim.NewEngine(0x1000_0000)
	}
	eng, err := uctarget.New(machine, 0x1000_0000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qbdl: %s, falling back to --sim\n", err)
		return sim.NewEngine(0x1000_0000)
	}
	return eng
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]
	machine, err := sniffMachine(path)
	if err != nil {
		return err
	}
	binding, err := bindingFor(cfg.Bind)
	if err != nil {
		return err
	}

	l, err := loader.FromFile(path, engineFor(machine), binding)
	if err != nil {
		return err
	}
	defer l.Close()
	l.SetLogger(loggerFor(cmd))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "base:       0x%x\n", l.BaseAddress())
	fmt.Fprintf(out, "entrypoint: 0x%x\n", l.Entrypoint())

	if cfg.DumpExports {
		for _, sym := range l.DumpExports() {
			fmt.Fprintf(out, "%016x %s\n", sym.Value, sym.Name)
		}
	}
	return nil
}
