package cmd

import (
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Encrypts the staged files, uploads them and verifies each upload",
	Long: `Runs one batch over the staged selection:

  1. Encrypt each staged file to the recipient key
  2. Open one SFTP connection with the configured SSH key
  3. Upload each artifact and compare the remote size

A file that fails is reported and the rest continue. A bad recipient key,
a failed connection or Ctrl-C stops the batch. Every batch is recorded in
.sealdrop/logs/success.log and failure.log.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting run command")
		spinner, cleanup := startSpinner("Running batch...")
		defer cleanup()

		ctx, stop := signalContext()
		defer stop()

		batch, err := workflows.Run(ctx, workflows.RunOptions{BatchOptions: batchOptions(spinner)})
		return finishBatch(spinner, "Delivered batch", batch, err)
	},
}
