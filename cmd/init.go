package cmd

import (
	"context"

	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	initProjectName string
	initHost        string
	initUsername    string
	initRemoteDir   string
	initPrivateKey  string
	initPublicKey   string
)

func init() {
	initCmd.Flags().StringVarP(&initProjectName, "name", "n", "", "project name (defaults to the directory name)")
	initCmd.Flags().StringVar(&initHost, "host", "", "SFTP host")
	initCmd.Flags().StringVar(&initUsername, "user", "", "SFTP username")
	initCmd.Flags().StringVar(&initRemoteDir, "remote-dir", "", "remote working directory")
	initCmd.Flags().StringVar(&initPrivateKey, "ssh-key", "", "SSH private key path")
	initCmd.Flags().StringVar(&initPublicKey, "pgp-key", "", "recipient OpenPGP public key path")
}

// resetInitCommandState resets the init command's global state for testing.
func resetInitCommandState() {
	initProjectName = ""
	initHost = ""
	initUsername = ""
	initRemoteDir = ""
	initPrivateKey = ""
	initPublicKey = ""
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes a sealdrop project in the current directory",
	Long: `Creates .sealdrop/config.toml with default settings.

Examples:
  sealdrop init
  sealdrop init --host sftp.partner.example --user uploads --pgp-key partner.asc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing sealdrop...")
		defer cleanup()

		result, err := workflows.Init(context.Background(), workflows.InitOptions{
			ProjectName: initProjectName,
			Host:        initHost,
			Username:    initUsername,
			RemoteDir:   initRemoteDir,
			PrivateKey:  initPrivateKey,
			PublicKey:   initPublicKey,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return reported(err)
			}
			return nil
		}
		Logger.Debugf("Wrote %s", result.ConfigPath)

		finalMessage := ui.Check() + " sealdrop initialized " + ui.Highlight.Sprint(result.ProjectName) + "\n" +
			ui.Arrow() + " Config written to " + ui.Path.Sprint(result.ConfigPath)
		if result.NeedsEndpoint {
			finalMessage += "\n" + ui.Arrow() + " Set " + ui.Highlight.Sprint("sftp.host") + " and " +
				ui.Highlight.Sprint("sftp.username") + " before running " + ui.Code.Sprint("sealdrop run")
		}
		spinner.FinalMSG = finalMessage
		return nil
	},
}
