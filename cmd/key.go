package cmd

import (
	"context"
	"strings"

	"github.com/PolarWolf314/sealdrop/internal/transfer"
	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

// KeyCmd groups key commands.
var KeyCmd = &cobra.Command{
	Use:   "key",
	Short: "Inspect the configured keys",
}

func init() {
	KeyCmd.AddCommand(keyCheckCmd)
}

var keyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks the SSH private key and the recipient public key",
	Long: `Re-reads the SSH private key file and parses the recipient OpenPGP key.
Nothing is sent over the network.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting key check command")
		spinner, cleanup := startSpinner("Checking keys...")
		defer cleanup()

		result, err := workflows.KeyCheck(context.Background())
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return reported(err)
			}
			return nil
		}

		var b strings.Builder
		if result.State == transfer.KeyLoaded {
			b.WriteString(ui.Check() + " " + result.Status + "\n")
		} else {
			b.WriteString(ui.Cross() + " " + result.Status + " " + ui.Muted.Sprintf("expected at %s", result.PrivateKeyPath) + "\n")
		}

		if result.RecipientErr != nil {
			b.WriteString(formatError(result.RecipientErr))
		} else {
			b.WriteString(ui.Check() + " Recipient " + ui.Key.Sprint(strings.Join(result.RecipientKeyIDs, ", ")))
			if len(result.RecipientIdentities) > 0 {
				b.WriteString(" " + ui.Muted.Sprint(strings.Join(result.RecipientIdentities, "; ")))
			}
		}
		spinner.FinalMSG = b.String()
		return nil
	},
}
