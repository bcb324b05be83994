package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Commands return their errors, so deferred cleanup such as closing the
// store runs before the process exits
func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// command unwraps a boa ToCobraE result. A setup error is a mistake in the
// parameter struct tags, not a user error.
func command(cmd *cobra.Command, err error) *cobra.Command {
	if err != nil {
		panic(fmt.Sprintf("building command: %v", err))
	}
	return cmd
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subsight",
		Short: "Track subscriptions and see where the money goes",
		Long: "Keeps a local list of recurring subscriptions and reports monthly and annual costs, " +
			"spending by category, a 12-month projection and what-if savings from cancelling subscriptions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(configInitCmd())

	root.AddCommand(
		addCmd(),
		updateCmd(),
		deleteCmd(),
		listCmd(),
		importCmd(),
		exportCmd(),
		reportCmd(),
		serveCmd(),
		configCmd,
	)
	return root
}
