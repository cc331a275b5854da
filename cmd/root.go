package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "sf",
		Short:         "Stopfinder CLI (sf): track school bus schedules from the terminal",
		Long:          "sf polls the Transfinder Stopfinder service for student bus schedules: log in once, then list schedules, look up the next trip, or watch for updates.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if verbose {
			app.enableDebugLogging()
		}
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(app),
		newLogoutCmd(app),
		newVerifyCmd(app),
		newSchedulesCmd(app),
		newNextCmd(app),
		newWatchCmd(app),
	)

	return rootCmd
}
