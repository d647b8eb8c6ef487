package workflows

import (
	"context"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"github.com/google/uuid"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	BatchOptions
}

// Encrypt runs only the encrypting stage over the staged files.
//
// Each staged file is encrypted to the configured OpenPGP key and written
// as <name><encrypted_ext> into the encrypted directory. Sources are left
// untouched. Unreadable files fail individually.
//
// Returns ErrProjectNotInitialized if no .sealdrop directory is found.
// Returns ErrNothingStaged if the selection is empty.
// Returns an error wrapping ErrKeyInvalid or ErrKeyNotConfigured, with the
// result, if the recipient key cannot be used.
func Encrypt(ctx context.Context, opts EncryptOptions) (*BatchResult, error) {
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

	cfg, err := p.batchConfig(uuid.New().String(), session, opts.BatchOptions)
	if err != nil {
		return nil, err
	}
	defer cfg.Logs.Close()
	cfg.Sources = sources(session)
	cfg.SkipUpload = true

	batch := RunBatch(ctx, cfg)
	p.writeMetrics(cfg.Metrics, opts.Logger)

	return batch, describeFatal(batch)
}
