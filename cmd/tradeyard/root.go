package main

import (
	"github.com/spf13/cobra"

	"github.com/tradeyard/tradeyard-client/tradeyardClient/constant"
)

// Global flags shared by every subcommand.
var (
	homeDir       string
	programIDFlag string
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tradeyard",
		Short:         "Trade Yard marketplace client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&homeDir, "home", constant.NodeHome(), "Client home directory")
	rootCmd.PersistentFlags().StringVar(&programIDFlag, "program-id", "", "Marketplace program id (overrides program_id in config)")

	InitRootCmd(rootCmd) // add subcommands like `sell` and `version`

	return rootCmd
}
