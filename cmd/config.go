package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

// ConfigCmd groups configuration commands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect sealdrop configuration",
}

func init() {
	ConfigCmd.AddCommand(configShowCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Shows the effective project configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := workflows.ConfigShow(context.Background())
		if err != nil {
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return reported(err)
			}
			return nil
		}

		c := result.Config
		var b strings.Builder
		row := func(key string, value any) {
			fmt.Fprintf(&b, "  %-24s %v\n", key, value)
		}

		b.WriteString(ui.Path.Sprint(result.ConfigPath) + "\n\n")
		b.WriteString("[project]\n")
		row("name", c.Project.Name)
		row("project_uuid", c.Project.UUID)
		b.WriteString("[sftp]\n")
		row("host", c.SFTP.Host)
		row("port", c.SFTP.Port)
		row("username", c.SFTP.Username)
		row("remote_dir", c.SFTP.RemoteDir)
		row("timeout", c.SFTP.Timeout)
		row("host_key_policy", c.SFTP.HostKeyPolicy)
		row("known_hosts", c.SFTP.KnownHosts)
		b.WriteString("[keys]\n")
		row("ssh_private_key", c.Keys.SSHPrivateKey)
		row("pgp_public_key", c.Keys.PGPPublicKey)
		if c.Keys.PGPPublicKeyArmored != "" {
			row("pgp_public_key_armored", "(inline)")
		}
		b.WriteString("[files]\n")
		row("extension", c.Files.Extension)
		row("encrypted_dir", c.Files.EncryptedDir)
		row("encrypted_ext", c.Files.EncryptedExt)
		b.WriteString("[verify]\n")
		row("mode", c.Verify.Mode)
		b.WriteString("[pipeline]\n")
		row("encrypt_workers", c.Pipeline.EncryptWorkers)
		b.WriteString("[logs]\n")
		row("dir", result.LogsDir)
		if c.Logs.MetricsTextfile != "" {
			row("metrics_textfile", c.Logs.MetricsTextfile)
		}

		if result.EndpointErr != nil {
			b.WriteString("\n" + ui.Alert() + " " + result.EndpointErr.Error() + "\n")
		}
		fmt.Print(b.String())
		return nil
	},
}
