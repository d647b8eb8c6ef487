package workflows

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	"github.com/PolarWolf314/sealdrop/internal/configs"
	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	logger "github.com/PolarWolf314/sealdrop/internal/logging"
	"github.com/PolarWolf314/sealdrop/internal/metrics"
	"github.com/PolarWolf314/sealdrop/internal/secrets"
	"github.com/PolarWolf314/sealdrop/internal/selection"
	"github.com/PolarWolf314/sealdrop/internal/transfer"
	"github.com/PolarWolf314/sealdrop/internal/utils"
)

// project is a loaded .sealdrop directory.
type project struct {
	settings *configs.Settings
	config   *configs.Config
}

func loadProject() (*project, error) {
	if err := configs.InitProjectSettings(); err != nil {
		return nil, err
	}
	config, err := configs.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &project{settings: configs.ProjectSettings, config: config}, nil
}

func (p *project) path(rel string) string {
	return utils.ExpandHome(configs.ResolvePath(p.settings.ProjectPath, rel))
}

// encryptedDir places artifacts next to the sources: a relative
// encrypted_dir is resolved against the browsing context.
func (p *project) encryptedDir(session *selection.Session) string {
	dir := utils.ExpandHome(p.config.Files.EncryptedDir)
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(session.Context, dir)
}

func (p *project) logsDir() string {
	return p.settings.LogsDir(p.config)
}

func (p *project) privateKeyPath() string {
	return p.path(p.config.Keys.SSHPrivateKey)
}

func (p *project) credential() *transfer.Credential {
	return transfer.NewCredential(p.privateKeyPath())
}

// recipientLoader returns the configured public key loader. Inline armored
// text wins over a key file.
func (p *project) recipientLoader() func() (Encrypter, error) {
	return func() (Encrypter, error) {
		keys := p.config.Keys
		var (
			r   *secrets.Recipient
			err error
		)
		switch {
		case keys.PGPPublicKeyArmored != "":
			r, err = secrets.LoadRecipient([]byte(keys.PGPPublicKeyArmored))
		case keys.PGPPublicKey != "":
			r, err = secrets.LoadRecipientFile(p.path(keys.PGPPublicKey))
		default:
			return nil, kerrors.ErrKeyNotConfigured
		}
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// recipientSource names where the recipient key is read from.
func (p *project) recipientSource() string {
	keys := p.config.Keys
	switch {
	case keys.PGPPublicKeyArmored != "":
		return "keys.pgp_public_key_armored (inline)"
	case keys.PGPPublicKey != "":
		return p.path(keys.PGPPublicKey)
	default:
		return "keys.pgp_public_key (not set)"
	}
}

func (p *project) endpoint() (transfer.Endpoint, error) {
	if err := p.config.ValidateEndpoint(); err != nil {
		return transfer.Endpoint{}, err
	}
	timeout, err := p.config.TimeoutDuration()
	if err != nil {
		return transfer.Endpoint{}, err
	}
	return transfer.Endpoint{
		Host:      p.config.SFTP.Host,
		Port:      p.config.SFTP.Port,
		Username:  p.config.SFTP.Username,
		RemoteDir: p.config.SFTP.RemoteDir,
		Timeout:   timeout,
	}, nil
}

// opener returns the channel opener for the project's endpoint. The
// credential is checked again each time the opener runs.
func (p *project) opener(passphrase func() ([]byte, error), log logger.Logger) Opener {
	return func(ctx context.Context) (RemoteChannel, error) {
		ep, err := p.endpoint()
		if err != nil {
			return nil, err
		}
		ch, err := transfer.Open(ctx, ep, p.credential(), transfer.Options{
			HostKeyPolicy:  transfer.HostKeyPolicy(p.config.SFTP.HostKeyPolicy),
			KnownHostsPath: utils.ExpandHome(p.config.SFTP.KnownHosts),
			Passphrase:     passphrase,
			Logger:         log,
		})
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

func (p *project) verifier() transfer.Verifier {
	return transfer.Verifier{Mode: transfer.VerifyMode(p.config.Verify.Mode)}
}

func (p *project) metrics() *metrics.Recorder {
	if p.config.Logs.MetricsTextfile == "" {
		return nil
	}
	return metrics.New()
}

func (p *project) writeMetrics(rec *metrics.Recorder, log logger.Logger) {
	if rec == nil {
		return
	}
	path := p.path(p.config.Logs.MetricsTextfile)
	if err := rec.WriteTextfile(path); err != nil {
		log.WarnfAlways("Failed to write metrics: %v", err)
		return
	}
	log.Debugf("Wrote metrics to %s", path)
}

// batchConfig assembles the shared parts of a batch and opens its logs.
// The caller closes the returned logs.
func (p *project) batchConfig(id string, session *selection.Session, opts BatchOptions) (BatchConfig, error) {
	logs, err := audit.Open(p.logsDir(), id)
	if err != nil {
		return BatchConfig{}, err
	}

	open := opts.Opener
	if open == nil {
		open = p.opener(opts.Passphrase, opts.Logger)
	}

	return BatchConfig{
		ID:           id,
		Recipient:    p.recipientLoader(),
		OutputDir:    p.encryptedDir(session),
		EncryptedExt: p.config.Files.EncryptedExt,
		Workers:      p.config.Pipeline.EncryptWorkers,
		RecipientKey: p.recipientSource(),
		KeyPath:      p.privateKeyPath(),
		Credential:   p.credential(),
		Open:         open,
		Verifier:     p.verifier(),
		Logs:         logs,
		Metrics:      p.metrics(),
		Callbacks:    opts.Callbacks,
	}, nil
}

// loadSession restores the staged selection. An unset context defaults to
// the project root.
func (p *project) loadSession() (*selection.Session, error) {
	state, err := configs.LoadStageState(p.settings.StagePath)
	if err != nil {
		return nil, err
	}

	dir := state.Context
	if dir == "" {
		dir = p.settings.ProjectPath
	}

	session := selection.NewSession(dir, secrets.Admitter(dir, p.config.Files.Extension))
	session.Set.Restore(state.Members...)
	return session, nil
}

func (p *project) saveSession(session *selection.Session) error {
	return configs.SaveStageState(p.settings.StagePath, &configs.StageState{
		Context: session.Context,
		Members: session.Set.Snapshot(),
	})
}

// sources returns the absolute paths of the staged files.
func sources(session *selection.Session) []string {
	ids := session.Set.Snapshot()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = filepath.Join(session.Context, id)
	}
	return out
}

// BatchOptions are shared by Run, Encrypt and Upload.
type BatchOptions struct {
	// Opener replaces the SFTP channel. Tests use it to inject fakes.
	Opener Opener

	// Passphrase unlocks an encrypted private key.
	Passphrase func() ([]byte, error)

	Logger    logger.Logger
	Callbacks Callbacks
}

func describeFatal(batch *BatchResult) error {
	if batch.Fatal == nil {
		return nil
	}
	return fmt.Errorf("batch %s aborted using key %s: %w", batch.ID, batch.FatalKey, batch.Fatal)
}
