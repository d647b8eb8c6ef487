package errors

import "errors"

// Input errors indicate a problem with a staged file or the recipient key.
var (
	// ErrReadFailed indicates a staged source file could not be read as text.
	ErrReadFailed = errors.New("failed to read source file")

	// ErrWriteFailed indicates an encrypted artifact could not be written.
	ErrWriteFailed = errors.New("failed to write encrypted artifact")

	// ErrKeyInvalid indicates the recipient public key is malformed or cannot encrypt.
	ErrKeyInvalid = errors.New("recipient public key is invalid")

	// ErrKeyNotConfigured indicates no recipient public key was configured.
	ErrKeyNotConfigured = errors.New("recipient public key is not configured")
)

// Connection errors are fatal to a whole upload batch.
var (
	// ErrKeyUnavailable indicates the private key file is missing, unreadable or unparseable.
	ErrKeyUnavailable = errors.New("private key unavailable")

	// ErrAuthFailed indicates the remote endpoint rejected key authentication.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrHostUnreachable indicates the remote endpoint could not be dialed.
	ErrHostUnreachable = errors.New("remote host unreachable")

	// ErrHostKeyRejected indicates the remote host key failed the configured policy.
	ErrHostKeyRejected = errors.New("remote host key rejected")

	// ErrRemotePathInvalid indicates the remote working directory does not exist.
	ErrRemotePathInvalid = errors.New("remote directory is invalid")
)

// Transfer errors are recorded against a single item.
var (
	// ErrTransferFailed indicates an I/O failure while uploading an artifact.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrVerifyMismatch indicates the remote copy does not match the local artifact.
	ErrVerifyMismatch = errors.New("remote copy does not match local artifact")

	// ErrChannelClosed indicates the transfer channel was used after Close.
	ErrChannelClosed = errors.New("transfer channel is closed")
)

// Project and staging errors.
var (
	// ErrProjectNotInitialized indicates no .sealdrop directory was found.
	ErrProjectNotInitialized = errors.New("project has not been initialized")

	// ErrProjectAlreadyInitialized indicates sealdrop init was run twice.
	ErrProjectAlreadyInitialized = errors.New("project has already been initialized")

	// ErrInvalidConfig indicates the configuration is malformed or incomplete.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrNothingStaged indicates a batch was requested with an empty selection.
	ErrNothingStaged = errors.New("no files are staged")

	// ErrContextNotFound indicates the requested browsing context is not a directory.
	ErrContextNotFound = errors.New("directory not found")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrNoLogsFound indicates no batch log exists yet.
	ErrNoLogsFound = errors.New("no batch logs found")
)
