package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatflowd",
		Short:         "Flow compiler and state-transition engine for chatbots",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default chatflow.yaml)")

	root.AddCommand(newServeCmd())

	return root
}
