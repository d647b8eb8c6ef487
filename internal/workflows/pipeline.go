package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/metrics"
	"github.com/PolarWolf314/sealdrop/internal/secrets"
	"github.com/PolarWolf314/sealdrop/internal/transfer"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchConfig holds everything a batch needs. Run, Encrypt and Upload
// build it from the project; tests build it directly.
type BatchConfig struct {
	// ID identifies the batch in the logs. A UUID is generated when empty.
	ID string

	// Sources are the staged files to encrypt.
	Sources []string

	// Artifacts are uploaded directly when SkipEncrypt is set.
	Artifacts   []string
	SkipEncrypt bool
	SkipUpload  bool

	// Recipient loads the encryption key. A failure is fatal.
	Recipient    func() (Encrypter, error)
	OutputDir    string
	EncryptedExt string
	Workers      int

	// RecipientKey names the recipient key source in fatal messages about
	// the recipient key.
	RecipientKey string

	// KeyPath names the private key in fatal messages about the transfer.
	KeyPath string

	// Credential is re-validated before a batch that uploads. Nil skips
	// the check.
	Credential *transfer.Credential
	Open       Opener
	Verifier   transfer.Verifier

	Logs      *audit.Logs
	Metrics   *metrics.Recorder
	Callbacks Callbacks
}

type pipeline struct {
	cfg   BatchConfig
	batch *BatchResult
	logs  *audit.Logs
}

// RunBatch drives one batch through the state machine. It always returns
// a result; BatchResult.Fatal holds the error of a fatal batch.
func RunBatch(ctx context.Context, cfg BatchConfig) *BatchResult {
	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}
	logs := cfg.Logs
	if logs == nil {
		logs = audit.Discard()
	}

	p := &pipeline{
		cfg:  cfg,
		logs: logs,
		batch: &BatchResult{
			ID:      id,
			State:   StateIdle,
			History: []State{StateIdle},
			KeyPath: cfg.KeyPath,
			Started: time.Now(),
		},
	}
	defer p.finish()

	p.transition(StateSelecting)
	if err := ctx.Err(); err != nil {
		p.fatal(err)
		return p.batch
	}
	if cfg.Credential != nil && !cfg.SkipUpload {
		if err := cfg.Credential.Validate(); err != nil {
			p.fatal(err)
			return p.batch
		}
	}

	artifacts := append([]string(nil), cfg.Artifacts...)
	if !cfg.SkipEncrypt {
		sources := append([]string(nil), cfg.Sources...)
		sort.Strings(sources)

		var ok bool
		artifacts, ok = p.encrypt(ctx, sources)
		if !ok {
			return p.batch
		}
	}

	if cfg.SkipUpload || len(artifacts) == 0 {
		p.transition(StateDone)
		return p.batch
	}

	p.upload(ctx, artifacts)
	return p.batch
}

func (p *pipeline) transition(s State) {
	if p.batch.State == s || p.batch.State.Terminal() {
		return
	}
	p.batch.State = s
	p.batch.History = append(p.batch.History, s)
	if p.cfg.Callbacks.OnState != nil {
		p.cfg.Callbacks.OnState(s)
	}
}

func (p *pipeline) fatal(err error) {
	key := p.cfg.KeyPath
	if errors.Is(err, kerrors.ErrKeyInvalid) || errors.Is(err, kerrors.ErrKeyNotConfigured) {
		key = p.cfg.RecipientKey
	}
	p.batch.Fatal = err
	p.batch.FatalKey = key
	p.logs.Fatal(key, err)
	p.transition(StateFailedFatal)
}

func (p *pipeline) finish() {
	p.batch.Finished = time.Now()
	summary := p.batch.Summary()
	p.logs.Summary(summary)
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordBatch(string(p.batch.State), summary.Duration)
	}
}

// encrypt runs the encrypting stage. It returns the artifacts in source
// order, and false when the batch became fatal.
func (p *pipeline) encrypt(ctx context.Context, sources []string) ([]string, bool) {
	p.transition(StateEncrypting)

	if p.cfg.Recipient == nil {
		p.fatal(kerrors.ErrKeyNotConfigured)
		return nil, false
	}
	recipient, err := p.cfg.Recipient()
	if err != nil {
		p.fatal(err)
		return nil, false
	}

	jobs := make([]EncryptionJob, len(sources))
	claimed := make(map[string]string, len(sources))
	for i, src := range sources {
		jobs[i] = EncryptionJob{SourcePath: src, Status: StatusPending}

		out := secrets.ArtifactPath(src, p.cfg.OutputDir, p.cfg.EncryptedExt)
		if first, ok := claimed[out]; ok {
			jobs[i].Status = StatusFailed
			jobs[i].Err = fmt.Errorf("%w: artifact %s collides with %s", kerrors.ErrWriteFailed, filepath.Base(out), first)
			continue
		}
		claimed[out] = src
	}
	p.batch.EncryptionJobs = jobs

	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	// A recipient key that cannot encrypt stops the remaining jobs.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		if jobs[i].Status != StatusPending {
			continue
		}
		job := &jobs[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			out, err := recipient.EncryptFile(job.SourcePath, p.cfg.OutputDir, p.cfg.EncryptedExt)
			if err != nil {
				job.Status = StatusFailed
				job.Err = err
				if errors.Is(err, kerrors.ErrKeyInvalid) {
					return err
				}
				return nil
			}
			job.OutputPath = out
			job.Status = StatusSucceeded
			return nil
		})
	}
	keyErr := g.Wait()

	var artifacts []string
	for _, job := range jobs {
		switch job.Status {
		case StatusSucceeded:
			artifacts = append(artifacts, job.OutputPath)
			p.logs.Encrypted(job.SourcePath, job.OutputPath)
		case StatusFailed:
			p.logs.ItemFailed("encrypt", job.SourcePath, "", job.Err)
		default:
			continue
		}
		if p.cfg.Metrics != nil {
			p.cfg.Metrics.RecordEncryption(job.Status == StatusSucceeded)
		}
		if p.cfg.Callbacks.OnEncrypted != nil {
			p.cfg.Callbacks.OnEncrypted(job)
		}
	}

	if keyErr != nil {
		p.fatal(keyErr)
		return nil, false
	}
	if err := ctx.Err(); err != nil {
		p.fatal(err)
		return nil, false
	}

	return artifacts, true
}

// upload opens one channel and uploads and verifies each artifact in turn.
func (p *pipeline) upload(ctx context.Context, artifacts []string) {
	p.transition(StateUploading)

	if p.cfg.Open == nil {
		p.fatal(fmt.Errorf("%w: no transfer channel configured", kerrors.ErrHostUnreachable))
		return
	}
	ch, err := p.cfg.Open(ctx)
	if err != nil {
		p.fatal(err)
		return
	}
	defer ch.Close()
	p.batch.RemoteDir = ch.Cwd()

	jobs := make([]TransferJob, len(artifacts))
	claimed := make(map[string]string, len(artifacts))
	for i, artifact := range artifacts {
		jobs[i] = TransferJob{
			ArtifactPath: artifact,
			RemotePath:   ch.RemotePath(filepath.Base(artifact)),
			Status:       StatusPending,
			LocalSize:    -1,
			RemoteSize:   -1,
		}
		if first, ok := claimed[jobs[i].RemotePath]; ok {
			jobs[i].Status = StatusFailed
			jobs[i].Err = fmt.Errorf("%w: %s would overwrite the upload of %s", kerrors.ErrTransferFailed, jobs[i].RemotePath, first)
			continue
		}
		claimed[jobs[i].RemotePath] = artifact
	}
	p.batch.TransferJobs = jobs

	for i := range jobs {
		if err := ctx.Err(); err != nil {
			p.fatal(err)
			return
		}
		if jobs[i].Status == StatusFailed {
			p.logs.ItemFailed("upload", jobs[i].ArtifactPath, jobs[i].RemotePath, jobs[i].Err)
			p.recordUpload(metrics.StatusFailed, 0, &jobs[i])
			continue
		}
		p.transition(StateUploading)
		p.transferOne(ch, &jobs[i])
	}

	p.transition(StateDone)
}

func (p *pipeline) transferOne(ch RemoteChannel, job *TransferJob) {
	name := filepath.Base(job.ArtifactPath)
	start := time.Now()

	if info, err := os.Stat(job.ArtifactPath); err == nil {
		job.LocalSize = info.Size()
	}

	n, err := ch.Upload(job.ArtifactPath, name, p.progressFor(job))
	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		job.Elapsed = time.Since(start)
		p.logs.ItemFailed("upload", job.ArtifactPath, job.RemotePath, err)
		p.recordUpload(metrics.StatusFailed, 0, job)
		return
	}
	job.Status = StatusUploaded

	p.transition(StateVerifying)
	v := p.cfg.Verifier.Verify(ch, job.ArtifactPath, name)
	job.LocalSize = v.LocalSize
	job.RemoteSize = v.RemoteSize
	job.Elapsed = time.Since(start)

	if v.Matched {
		job.Status = StatusVerified
		p.logs.Uploaded(job.ArtifactPath, job.RemotePath, n, job.Elapsed)
		p.recordUpload(metrics.StatusVerified, n, job)
		return
	}

	job.Status = StatusFailed
	job.Mismatch = true
	job.Err = fmt.Errorf("%w: local %d bytes, remote %d bytes", kerrors.ErrVerifyMismatch, v.LocalSize, v.RemoteSize)
	p.logs.Mismatch(job.ArtifactPath, job.RemotePath, v.LocalSize, v.RemoteSize)
	p.recordUpload(metrics.StatusMismatch, n, job)
}

func (p *pipeline) progressFor(job *TransferJob) io.Writer {
	if p.cfg.Callbacks.OnUploadStart == nil {
		return nil
	}
	return p.cfg.Callbacks.OnUploadStart(job.ArtifactPath, job.LocalSize)
}

func (p *pipeline) recordUpload(status string, n int64, job *TransferJob) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.RecordUpload(status, n, job.Elapsed)
	}
	if p.cfg.Callbacks.OnTransfer != nil {
		p.cfg.Callbacks.OnTransfer(*job)
	}
}
