package workflows

import (
	"context"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"github.com/google/uuid"
)

// RunOptions configures the full pipeline.
type RunOptions struct {
	BatchOptions
}

// Run encrypts every staged file and uploads the artifacts over one SFTP
// channel, verifying each upload.
//
// The batch is recorded in success.log and failure.log. Per-file failures
// are reported in the result; the returned error is set only when the
// batch could not start or ended in batch_failed_fatal.
//
// Returns ErrProjectNotInitialized if no .sealdrop directory is found.
// Returns ErrNothingStaged if the selection is empty.
// Returns a fatal error wrapping ErrKeyInvalid, ErrKeyNotConfigured,
// ErrKeyUnavailable, ErrAuthFailed, ErrHostUnreachable, ErrHostKeyRejected
// or ErrRemotePathInvalid together with the partial result.
func Run(ctx context.Context, opts RunOptions) (*BatchResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}

	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}
	if session.Set.Len() == 0 {
		return nil, kerrors.ErrNothingStaged
	}

	id := uuid.New().String()
	cfg, err := p.batchConfig(id, session, opts.BatchOptions)
	if err != nil {
		return nil, err
	}
	defer cfg.Logs.Close()
	cfg.Sources = sources(session)

	opts.Logger.Infof("Starting batch %s with %d files", id, len(cfg.Sources))
	batch := RunBatch(ctx, cfg)
	p.writeMetrics(cfg.Metrics, opts.Logger)

	return batch, describeFatal(batch)
}
