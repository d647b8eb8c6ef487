package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	"github.com/PolarWolf314/sealdrop/internal/utils"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	logLimit     int
	logFailures  bool
	logSuccesses bool
	logBatch     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logFailures, "failures", false, "show failure.log only")
	logCmd.Flags().BoolVar(&logSuccesses, "successes", false, "show success.log only")
	logCmd.Flags().StringVar(&logBatch, "batch", "", "show one batch")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

// resetLogCommandState resets the log command's global state for testing.
func resetLogCommandState() {
	logLimit = 0
	logFailures = false
	logSuccesses = false
	logBatch = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the batch logs",
	Long: `Displays records from .sealdrop/logs/success.log and failure.log.

Examples:
  sealdrop log                  # Both logs
  sealdrop log -n 20            # Last 20 entries
  sealdrop log --failures       # Failures only
  sealdrop log --batch <id>     # One batch
  sealdrop log --json           # JSON output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")
		spinner, cleanup := startSpinner("Loading batch logs...")
		defer cleanup()

		result, err := workflows.Log(context.Background(), workflows.LogOptions{
			Failures:  logFailures,
			Successes: logSuccesses,
			Batch:     logBatch,
			Limit:     logLimit,
		})
		if err != nil {
			spinner.FinalMSG = formatError(err)
			if isUnexpectedError(err) {
				return reported(err)
			}
			return nil
		}

		Logger.Debugf("Parsed %d entries from batch logs", result.TotalEntriesBeforeFilter)
		Logger.Debugf("After filtering: %d entries", len(result.Entries))

		spinner.FinalMSG = ""
		if len(result.Entries) == 0 {
			fmt.Println("No batch log entries found matching the filters.")
			return nil
		}

		if logJSON {
			return outputLogJSON(result.Entries)
		}
		outputLogDefault(result.Entries)
		return nil
	},
}

func outputLogJSON(entries []audit.Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal entries to JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputLogDefault(entries []audit.Entry) {
	for _, e := range entries {
		datetime := workflows.FormatDateTime(e.Time)
		fmt.Printf("%-19s  %-5s  %-8.8s  %-15s  %s\n", datetime, e.Level, e.Batch, e.Event, formatLogDetails(e))
	}
}

// formatLogDetails summarizes an entry on one line.
func formatLogDetails(e audit.Entry) string {
	switch e.Event {
	case audit.EventEncrypted:
		return e.Local + " -> " + e.Artifact
	case audit.EventUploaded:
		return fmt.Sprintf("%s -> %s (%s)", e.Local, e.Remote, utils.HumanSize(e.Size))
	case audit.EventItemFailed:
		return fmt.Sprintf("%s %s: %s", e.Stage, e.Local, e.Error)
	case audit.EventMismatch:
		return fmt.Sprintf("%s local %s, remote %s", e.Remote, utils.HumanSize(e.LocalSize), utils.HumanSize(e.RemoteSize))
	case audit.EventFatal:
		return fmt.Sprintf("key %s: %s", e.Key, e.Error)
	case audit.EventBatchComplete:
		return fmt.Sprintf("%s: %d selected, %d verified, %d failed", e.State, e.Selected, e.Verified, e.Failed+e.EncryptFailed)
	default:
		return e.Message
	}
}
