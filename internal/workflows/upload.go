package workflows

import (
	"context"
	"errors"
	"path/filepath"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/secrets"
	"github.com/PolarWolf314/sealdrop/internal/selection"

	"github.com/google/uuid"
)

// UploadOptions configures the upload workflow.
type UploadOptions struct {
	BatchOptions

	// Patterns select artifacts in the encrypted directory. If empty, every
	// artifact with the encrypted extension is uploaded.
	Patterns []string
}

// Upload uploads and verifies existing artifacts without encrypting.
//
// Returns ErrProjectNotInitialized if no .sealdrop directory is found.
// Returns ErrNoFilesFound if no artifacts match.
// Returns a fatal error with the result if the channel cannot be opened.
func Upload(ctx context.Context, opts UploadOptions) (*BatchResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}

	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	artifacts, err := p.resolveArtifacts(session, opts.Patterns)
	if err != nil {
		return nil, err
	}

	cfg, err := p.batchConfig(uuid.New().String(), session, opts.BatchOptions)
	if err != nil {
		return nil, err
	}
	defer cfg.Logs.Close()
	cfg.Artifacts = artifacts
	cfg.SkipEncrypt = true

	batch := RunBatch(ctx, cfg)
	p.writeMetrics(cfg.Metrics, opts.Logger)

	return batch, describeFatal(batch)
}

func (p *project) resolveArtifacts(session *selection.Session, patterns []string) ([]string, error) {
	dir := p.encryptedDir(session)
	ext := p.config.Files.EncryptedExt

	var names []string
	var err error
	if len(patterns) == 0 {
		names, err = secrets.ListEligible(dir, ext)
		if errors.Is(err, kerrors.ErrContextNotFound) || (err == nil && len(names) == 0) {
			err = kerrors.ErrNoFilesFound
		}
	} else {
		names, err = secrets.ResolveFiles(patterns, dir, ext)
	}
	if err != nil {
		return nil, err
	}

	out := make([]string, len(names))
	for i, name := range names {
		out[i] = filepath.Join(dir, name)
	}
	return out, nil
}
