// Package workflows provides high-level orchestration for sealdrop commands.
//
// Workflows coordinate the configs, secrets, transfer, audit and metrics
// packages to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// # Batches
//
// RunBatch drives one batch through its states:
//
//	idle → selecting → encrypting → uploading → verifying → batch_done
//
// Any state may move to batch_failed_fatal. Failures confined to one file
// are recorded on its job and the batch continues. A bad recipient key,
// a missing private key, a failed connection or cancellation stops the
// batch, and the fatal record names the key involved. Every transition is
// kept in BatchResult.History.
//
// Artifacts are named after the source base name, so a second staged file
// with the same base name fails instead of overwriting the first artifact.
//
// Run, Encrypt and Upload load the project and its staged selection and
// call RunBatch with the relevant stages enabled.
//
// # Staging
//
// StageChangeDir, StageAdd, StageRemove, StageClear and StageList manage
// the selection persisted in .sealdrop/stage.toml.
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package. Use
// errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Run(ctx, opts)
//	if errors.Is(err, kerrors.ErrNothingStaged) {
//	    // Point the user at sealdrop stage add
//	}
//
// A fatal batch is reported both on BatchResult.Fatal and as the returned
// error.
package workflows
