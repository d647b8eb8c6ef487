// Package errors provides typed error values for sealdrop.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Errors are grouped by how the pipeline reacts to them:
//
//   - Input errors: a staged file or the recipient key is bad. Read and
//     write failures are recorded per item; ErrKeyInvalid aborts the batch.
//   - Connection errors: the transfer channel could not be opened. Every
//     one of these aborts the batch.
//   - Transfer errors: an upload failed. Recorded per item, the batch
//     continues on the same channel.
//   - Project errors: missing project, bad config, empty selection.
//
// # Usage
//
// Wrap errors with the path or key that was involved:
//
//	return "", fmt.Errorf("%w: %s: %v", errors.ErrReadFailed, path, err)
//
// And handle them in the CLI layer:
//
//	if errors.Is(err, kerrors.ErrKeyUnavailable) {
//	    // Show "key not found" message
//	}
package errors
