// Package cmd is qbdl's command-line surface, built with cobra following
// the pack's sliverarmory-reflektor/cli/root.go rather than the teacher's
// own hand-rolled flag.FlagSet CLI — the teacher's Config struct idiom
// (go/models/config.go) still shapes how flags land on a plain struct
// before being handed to the loader.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lunixbochs/qbdl/go/logx"
	"github.com/lunixbochs/qbdl/go/models"
)

// Config collects the flags shared by load/run/syms, mirroring the
// teacher's flat models.Config rather than cobra's usual pattern of
// scattering package-level vars per subcommand.
type Config struct {
	Bind        string
	Sim         bool
	DumpExports bool
	Verbose     bool
}

var cfg Config

// Root builds the qbdl command tree. Kept as a constructor rather than a
// package-level var so cmd/qbdl/main.go (and tests) can build a fresh one
// per invocation instead of sharing global cobra state.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:          "qbdl",
		Short:        "A pluggable ELF dynamic loader",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.Bind, "bind", "default", "binding strategy: now, lazy, default, none")
	root.PersistentFlags().BoolVar(&cfg.Sim, "sim", false, "use the byte-slice simulator instead of a unicorn CPU")
	root.PersistentFlags().BoolVar(&cfg.Verbose, "v", false, "verbose (debug-level) logging")

	loadCmd := &cobra.Command{
		Use:   "load <path>",
		Short: "Parse, map, relocate, and bind an ELF binary",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}
	loadCmd.Flags().BoolVar(&cfg.DumpExports, "dump-exports", false, "print the sorted export index after loading")

	runCmd := &cobra.Command{
		Use:   "run <path>",
		Short: "Load a binary and start execution at its entrypoint",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}

	symsCmd := &cobra.Command{
		Use:   "syms <path>",
		Short: "Parse a binary and list its dynamic symbols, without mapping it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSyms,
	}

	root.AddCommand(loadCmd, runCmd, symsCmd)
	return root
}

func bindingFor(name string) (models.Binding, error) {
	switch name {
	case "now":
		return models.Now, nil
	case "lazy":
		return models.Lazy, nil
	case "default":
		return models.Default, nil
	case "none":
		return models.NotBind, nil
	default:
		return models.NotBind, fmt.Errorf("unknown --bind value %q", name)
	}
}

func loggerFor(cmd *cobra.Command) *logx.Logger {
	min := logx.Info
	if cfg.Verbose {
		min = logx.Debug
	}
	return logx.New(cmd.ErrOrStderr(), min)
}
