package workflows

import (
	"context"
	"io"
	"time"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	"github.com/PolarWolf314/sealdrop/internal/transfer"
)

// State is a stage of the batch state machine.
type State string

const (
	StateIdle        State = "idle"
	StateSelecting   State = "selecting"
	StateEncrypting  State = "encrypting"
	StateUploading   State = "uploading"
	StateVerifying   State = "verifying"
	StateDone        State = "batch_done"
	StateFailedFatal State = "batch_failed_fatal"
)

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailedFatal
}

// JobStatus is the status of a single encryption or transfer job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusSucceeded JobStatus = "succeeded"
	StatusUploaded  JobStatus = "uploaded"
	StatusVerified  JobStatus = "verified"
	StatusFailed    JobStatus = "failed"
)

// EncryptionJob is the encryption of one staged source file.
type EncryptionJob struct {
	SourcePath string
	OutputPath string
	Status     JobStatus
	Err        error
}

// TransferJob is the upload and verification of one artifact. RemoteSize
// is -1 when the remote file could not be inspected.
type TransferJob struct {
	ArtifactPath string
	RemotePath   string
	Status       JobStatus
	LocalSize    int64
	RemoteSize   int64
	Elapsed      time.Duration
	Mismatch     bool
	Err          error
}

// BatchResult is the outcome of one pipeline run.
type BatchResult struct {
	ID             string
	State          State
	History        []State
	EncryptionJobs []EncryptionJob
	TransferJobs   []TransferJob

	// Fatal is set when the batch ended in StateFailedFatal. FatalKey names
	// the key it concerns: the recipient key for key errors, otherwise the
	// private key.
	Fatal    error
	FatalKey string

	// KeyPath is the private key used for the transfer stage.
	KeyPath   string
	RemoteDir string

	Started  time.Time
	Finished time.Time
}

// Artifacts returns the outputs of successful encryption jobs in order.
func (b *BatchResult) Artifacts() []string {
	var out []string
	for _, job := range b.EncryptionJobs {
		if job.Status == StatusSucceeded {
			out = append(out, job.OutputPath)
		}
	}
	return out
}

// Summary counts the jobs of the batch.
func (b *BatchResult) Summary() audit.Summary {
	s := audit.Summary{
		State:    string(b.State),
		Selected: len(b.EncryptionJobs),
		Duration: b.Finished.Sub(b.Started),
	}
	for _, job := range b.EncryptionJobs {
		switch job.Status {
		case StatusSucceeded:
			s.Encrypted++
		case StatusFailed:
			s.EncryptFailed++
		}
	}
	for _, job := range b.TransferJobs {
		switch {
		case job.Status == StatusVerified:
			s.Verified++
		case job.Mismatch:
			s.Mismatched++
			s.Failed++
		case job.Status == StatusFailed:
			s.Failed++
		}
	}
	return s
}

// RemoteChannel is the transfer surface the pipeline needs.
// *transfer.Channel satisfies it.
type RemoteChannel interface {
	transfer.RemoteFS
	Upload(localPath, remoteName string, progress io.Writer) (int64, error)
	RemotePath(name string) string
	Cwd() string
	Close() error
}

// Opener opens the channel for a batch.
type Opener func(ctx context.Context) (RemoteChannel, error)

// Encrypter encrypts one file to the recipient. *secrets.Recipient
// satisfies it.
type Encrypter interface {
	EncryptFile(sourcePath, outputDir, ext string) (string, error)
}

// Callbacks let the CLI follow a batch as it runs. Any of them may be nil.
type Callbacks struct {
	OnState func(State)

	// OnEncrypted is called for every finished encryption job, in
	// selection order.
	OnEncrypted func(EncryptionJob)

	// OnUploadStart returns a writer that receives the uploaded bytes.
	OnUploadStart func(artifact string, size int64) io.Writer

	OnTransfer func(TransferJob)
}
