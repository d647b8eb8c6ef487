package cmd

import (
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [artifacts...]",
	Short: "Uploads encrypted artifacts and verifies them",
	Long: `Uploads artifacts from the encrypted directory over SFTP and checks each
remote copy. Without arguments every artifact is uploaded. Arguments are
names or globs relative to the encrypted directory.

Examples:
  sealdrop upload
  sealdrop upload orders.csv.pgp
  sealdrop upload --progress '2024-*.pgp'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting upload command")
		spinner, cleanup := startSpinner("Uploading artifacts...")
		defer cleanup()

		ctx, stop := signalContext()
		defer stop()

		batch, err := workflows.Upload(ctx, workflows.UploadOptions{
			BatchOptions: batchOptions(spinner),
			Patterns:     args,
		})
		return finishBatch(spinner, "Uploaded batch", batch, err)
	},
}
