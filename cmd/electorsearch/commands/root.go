package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "electorsearch",
	Short: "electorsearch searches the Gujarat electoral roll across spelling variants of a name.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setup(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

var (
	configPath *string
	verbose    *bool
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read, a <name>.local.json5 next to it takes priority.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
