package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/stencil/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┌┐┌┌─┐┬┬
  └─┐ │ ├┤ ││││  ││
  └─┘ ┴ └─┘┘└┘└─┘┴┴─┘
`

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "stencil",
		Short: "Compile markup templates and keep them rendered",
		Long: `Stencil compiles markup templates with {{ }} interpolation,
:attribute bindings and @event handlers into build routines, and
reconciles every rebuild against the live tree with as few host
mutations as it can.

Commands:
  • render  Render a template once and optionally publish it
  • repl    Evaluate expressions and fire events interactively
  • serve   Serve a template and stream its mutations`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags.register(rootCmd)

	rootCmd.AddCommand(
		renderCmd(&flags),
		replCmd(&flags),
		serveCmd(&flags),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}
