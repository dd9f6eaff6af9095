package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "amdsim",
		Short:         "amdsim: simulate anti-VEGF treatment pathways in neovascular AMD",
		Long:          "amdsim runs stochastic simulations of treat-and-extend anti-VEGF therapy: disease progression, clinic capacity, treatment discontinuation and retreatment, under agent-stepped or event-queue execution.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app := wireApp()

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newValidateCmd(app),
		newSampleCmd(app),
	)

	return rootCmd
}
