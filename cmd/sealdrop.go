package cmd

import (
	logger "github.com/PolarWolf314/sealdrop/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	verbose      bool
	debug        bool
	showProgress bool
	Logger       logger.Logger
)

// Register attaches the global flags and every sealdrop command to root.
func Register(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	root.PersistentFlags().BoolVar(&showProgress, "progress", false, "show a progress bar for each upload")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s with verbose=%t, debug=%t, progress=%t", cmd.CommandPath(), verbose, debug, showProgress)
	}
	root.SilenceErrors = true
	root.SilenceUsage = true

	root.AddCommand(initCmd)
	root.AddCommand(StageCmd)
	root.AddCommand(encryptCmd)
	root.AddCommand(uploadCmd)
	root.AddCommand(runCmd)
	root.AddCommand(KeyCmd)
	root.AddCommand(logCmd)
	root.AddCommand(ConfigCmd)
}

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	showProgress = false
	resetInitCommandState()
	resetStageCommandState()
	resetLogCommandState()
}

// resetCobraFlagState clears Changed on every flag so repeated Execute
// calls in tests start clean.
func resetCobraFlagState(root *cobra.Command) {
	reset := func(flag *pflag.Flag) { flag.Changed = false }
	root.PersistentFlags().VisitAll(reset)
	for _, c := range root.Commands() {
		c.Flags().VisitAll(reset)
		for _, sub := range c.Commands() {
			sub.Flags().VisitAll(reset)
		}
	}
}
