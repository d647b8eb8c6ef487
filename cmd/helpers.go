package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/ui"
	"github.com/PolarWolf314/sealdrop/internal/utils"
	"github.com/PolarWolf314/sealdrop/internal/workflows"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
)

// startSpinner creates and starts a spinner with the given message unless
// verbose, debug or progress output is on. Returns the spinner and a
// function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug && !showProgress
	if quiet {
		s.Start()
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}

		if quiet {
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// signalContext is cancelled on Ctrl-C so a running batch stops between
// files.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// passphrasePrompt stops the spinner while the SSH key passphrase is read
// from the terminal.
func passphrasePrompt(s *spinner.Spinner) func() ([]byte, error) {
	return func() ([]byte, error) {
		wasActive := s.Active()
		if wasActive {
			s.Stop()
		}
		defer func() {
			if wasActive {
				s.Restart()
			}
		}()
		return utils.ReadPassphraseFromTTY("Enter passphrase for SSH private key: ")
	}
}

// batchOptions wires spinner, progress bars and per-file output into a
// batch.
func batchOptions(s *spinner.Spinner) workflows.BatchOptions {
	callbacks := workflows.Callbacks{
		OnState: func(state workflows.State) {
			Logger.Debugf("Batch state: %s", state)
		},
		OnEncrypted: func(job workflows.EncryptionJob) {
			if job.Err != nil {
				Logger.Warnf("Failed to encrypt %s: %v", job.SourcePath, job.Err)
				return
			}
			Logger.Infof("Encrypted %s", job.OutputPath)
		},
		OnTransfer: func(job workflows.TransferJob) {
			if job.Err != nil {
				Logger.Warnf("Failed to upload %s: %v", job.ArtifactPath, job.Err)
				return
			}
			Logger.Infof("Uploaded %s to %s in %s", job.ArtifactPath, job.RemotePath, utils.FormatElapsed(job.Elapsed))
		},
	}
	if showProgress {
		callbacks.OnUploadStart = progressWriter
	}

	return workflows.BatchOptions{
		Passphrase: passphrasePrompt(s),
		Logger:     Logger,
		Callbacks:  callbacks,
	}
}

// progressWriter returns a byte progress bar on stderr for one upload.
func progressWriter(artifact string, size int64) io.Writer {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetDescription(filepath.Base(artifact)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(utils.TerminalWidth(80)/2),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// reportedError marks an error whose message was already printed as the
// command's final message. main exits non-zero without printing it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// errBatchIncomplete is returned when a batch finished with per-file
// failures.
var errBatchIncomplete = errors.New("some files were not delivered")

// formatError formats a workflow error for display to the user.
func formatError(err error) string {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotInitialized):
		return ui.Cross() + " sealdrop has not been initialized\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sealdrop init") + " first"

	case errors.Is(err, kerrors.ErrProjectAlreadyInitialized):
		return ui.Cross() + " sealdrop has already been initialized here\n" +
			ui.Arrow() + " Edit " + ui.Path.Sprint(".sealdrop/config.toml") + " or run " + ui.Code.Sprint("sealdrop config show")

	case errors.Is(err, kerrors.ErrInvalidConfig):
		return ui.Cross() + " " + err.Error() + "\n" +
			ui.Arrow() + " Fix " + ui.Path.Sprint(".sealdrop/config.toml") + " and try again"

	case errors.Is(err, kerrors.ErrNothingStaged):
		return ui.Cross() + " No files are staged\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sealdrop stage add <files>") + " first"

	case errors.Is(err, kerrors.ErrNoFilesFound):
		return ui.Cross() + " No matching files found\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sealdrop stage ls") + " to see eligible files"

	case errors.Is(err, kerrors.ErrContextNotFound):
		return ui.Cross() + " " + err.Error()

	case errors.Is(err, kerrors.ErrNoLogsFound):
		return ui.Arrow() + " No batch logs found. Batches are logged after " + ui.Code.Sprint("sealdrop run")

	case errors.Is(err, kerrors.ErrKeyNotConfigured):
		return ui.Cross() + " No recipient public key is configured\n" +
			ui.Arrow() + " Set " + ui.Highlight.Sprint("keys.pgp_public_key") + " in " + ui.Path.Sprint(".sealdrop/config.toml")

	case errors.Is(err, kerrors.ErrKeyInvalid):
		return ui.Cross() + " The recipient public key cannot be used\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	case errors.Is(err, kerrors.ErrKeyUnavailable):
		return ui.Cross() + " Failed to load the SSH private key\n" +
			ui.Error.Sprint("Error: ") + err.Error() + "\n" +
			ui.Arrow() + " Run " + ui.Code.Sprint("sealdrop key check")

	case errors.Is(err, kerrors.ErrAuthFailed):
		return ui.Cross() + " The server rejected the SSH key\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	case errors.Is(err, kerrors.ErrHostKeyRejected):
		return ui.Cross() + " The server host key was rejected\n" +
			ui.Error.Sprint("Error: ") + err.Error() + "\n" +
			ui.Arrow() + " Check " + ui.Highlight.Sprint("sftp.known_hosts") + " and " + ui.Highlight.Sprint("sftp.host_key_policy")

	case errors.Is(err, kerrors.ErrHostUnreachable):
		return ui.Cross() + " Could not reach the server\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	case errors.Is(err, kerrors.ErrRemotePathInvalid):
		return ui.Cross() + " The remote directory does not exist\n" +
			ui.Error.Sprint("Error: ") + err.Error()

	case errors.Is(err, context.Canceled):
		return ui.Alert() + " Batch cancelled"

	default:
		return ui.Cross() + " " + err.Error()
	}
}

// isUnexpectedError returns true if the error is unexpected and should be
// returned to cobra as is.
func isUnexpectedError(err error) bool {
	switch {
	case errors.Is(err, kerrors.ErrProjectNotInitialized),
		errors.Is(err, kerrors.ErrProjectAlreadyInitialized),
		errors.Is(err, kerrors.ErrNothingStaged),
		errors.Is(err, kerrors.ErrNoFilesFound),
		errors.Is(err, kerrors.ErrNoLogsFound),
		errors.Is(err, kerrors.ErrContextNotFound):
		return false
	default:
		return true
	}
}

// formatBatch renders the per-file outcome of a batch.
func formatBatch(batch *workflows.BatchResult) string {
	var b strings.Builder

	for _, job := range batch.EncryptionJobs {
		if job.Err != nil {
			b.WriteString("  " + ui.Cross() + " " + ui.Path.Sprint(job.SourcePath) + ": " + job.Err.Error() + "\n")
		}
	}

	for _, job := range batch.TransferJobs {
		name := filepath.Base(job.ArtifactPath)
		switch {
		case job.Status == workflows.StatusVerified:
			b.WriteString("  " + ui.Check() + " " + name + " " + ui.Arrow() + " " + ui.Path.Sprint(job.RemotePath) + " " +
				ui.Muted.Sprintf("%s, %s", utils.HumanSize(job.RemoteSize), utils.FormatElapsed(job.Elapsed)) + "\n")
		case job.Mismatch:
			b.WriteString("  " + ui.Alert() + " " + name + ": remote copy is " + utils.HumanSize(job.RemoteSize) +
				", local artifact is " + utils.HumanSize(job.LocalSize) + "\n")
		case job.Status == workflows.StatusFailed:
			b.WriteString("  " + ui.Cross() + " " + name + ": " + job.Err.Error() + "\n")
		default:
			b.WriteString("  " + ui.Muted.Sprint("skipped") + " " + name + "\n")
		}
	}

	return b.String()
}

// finishBatch sets the final message for a batch and decides the exit
// status.
func finishBatch(s *spinner.Spinner, verb string, batch *workflows.BatchResult, err error) error {
	if batch == nil {
		s.FinalMSG = formatError(err)
		if isUnexpectedError(err) {
			return reported(err)
		}
		return nil
	}

	summary := batch.Summary()
	details := formatBatch(batch)

	if batch.State == workflows.StateFailedFatal {
		s.FinalMSG = details + formatError(batch.Fatal) + "\n" +
			ui.Muted.Sprintf("batch %s", batch.ID)
		return reported(err)
	}

	failed := summary.EncryptFailed + summary.Failed
	header := ui.Check() + " " + verb + " " + ui.Highlight.Sprint(batch.ID)
	if failed > 0 {
		header = ui.Alert() + " " + verb + " with " + fmt.Sprintf("%d failed", failed) + " " + ui.Highlight.Sprint(batch.ID)
	}

	s.FinalMSG = header + "\n" + details + ui.Muted.Sprintf("%s", utils.FormatElapsed(summary.Duration))
	if failed > 0 {
		return reported(errBatchIncomplete)
	}
	return nil
}
