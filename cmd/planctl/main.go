// planctl builds study plans from analysis files without running the server.
//
// Usage:
//
//	planctl [--json] plan [--mode auto|manual] [--days N] [--hours H] <file|->
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unalkalkan/la5asni/internal/cli"
)

// version is set through ldflags at build time.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "planctl",
		Short:         "La5asni study plan tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output {
		return cli.NewOutput(jsonOutput, rootCmd.OutOrStdout(), rootCmd.ErrOrStderr())
	}
	rootCmd.AddCommand(cli.NewPlanCmd(outputFn))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
