package cmd

import (
	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/utils"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypts the staged files without uploading them",
	Long: `Encrypts every staged file to the configured OpenPGP public key and writes
an armored <name>.pgp artifact into the encrypted directory. Source files
are never modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting encrypt command")
		spinner, cleanup := startSpinner("Encrypting staged files...")
		defer cleanup()

		ctx, stop := signalContext()
		defer stop()

		batch, err := workflows.Encrypt(ctx, workflows.EncryptOptions{BatchOptions: batchOptions(spinner)})
		if ferr := finishBatch(spinner, "Encrypted batch", batch, err); ferr != nil || batch == nil {
			return ferr
		}

		if artifacts := batch.Artifacts(); len(artifacts) > 0 {
			spinner.FinalMSG += "\nThe following files were created: " + utils.FormatPaths(artifacts) +
				ui.Arrow() + " Run " + ui.Code.Sprint("sealdrop upload") + " to deliver them"
		}
		return nil
	},
}
