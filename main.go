package main

import (
	"fmt"
	"os"

	"github.com/PolarWolf314/sealdrop/cmd"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sealdrop",
	Short: "sealdrop - encrypt files with OpenPGP and deliver them over SFTP.",
	Long: `sealdrop encrypts staged files to a partner's OpenPGP public key, uploads
the armored artifacts over SFTP with SSH key authentication and checks
every remote copy.

Usage:
  sealdrop <command> [flags]

Typical session:
  sealdrop init --host sftp.partner.example --user uploads --pgp-key partner.asc
  sealdrop stage add --all
  sealdrop run

Run 'sealdrop help <command>' for more details on a specific command.
`,
	Run: func(c *cobra.Command, args []string) {
		fmt.Println()
		figure.NewColorFigure("sealdrop", "small", "cyan", true).Print()
		fmt.Println()
		fmt.Println("Run 'sealdrop --help' to see available commands.")
	},
}

func init() {
	cmd.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !cmd.IsReported(err) {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
