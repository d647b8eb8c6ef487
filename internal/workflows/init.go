package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/sealdrop/internal/configs"
	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/utils"
)

// InitOptions configures the init workflow.
type InitOptions struct {
	// ProjectName is the name for the project. If empty, uses the directory name.
	ProjectName string

	// Host, Username and RemoteDir prefill the [sftp] section when set.
	Host      string
	Username  string
	RemoteDir string

	// PrivateKey and PublicKey prefill the [keys] section when set.
	PrivateKey string
	PublicKey  string
}

// InitResult contains the outcome of an init operation.
type InitResult struct {
	// ProjectName is the name of the initialized project.
	ProjectName string

	// ProjectUUID is the unique identifier assigned to the project.
	ProjectUUID string

	// ProjectPath is the root path of the project.
	ProjectPath string

	// ConfigPath is the written config file.
	ConfigPath string

	// NeedsEndpoint reports that host or username still have to be filled in.
	NeedsEndpoint bool
}

// Init creates a .sealdrop directory with a default config.toml in the
// current directory.
//
// Returns ErrProjectAlreadyInitialized if the current directory already
// holds a .sealdrop directory.
func Init(ctx context.Context, opts InitOptions) (*InitResult, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	settings := configs.SettingsFor(wd)
	if _, err := os.Stat(settings.StateDir); err == nil {
		return nil, kerrors.ErrProjectAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", utils.ProjectDirName, err)
	}

	projectName := opts.ProjectName
	if projectName == "" {
		projectName = filepath.Base(wd)
	}

	config := configs.DefaultConfig(projectName)
	if opts.Host != "" {
		config.SFTP.Host = opts.Host
	}
	if opts.Username != "" {
		config.SFTP.Username = opts.Username
	}
	if opts.RemoteDir != "" {
		config.SFTP.RemoteDir = opts.RemoteDir
	}
	if opts.PrivateKey != "" {
		config.Keys.SSHPrivateKey = opts.PrivateKey
	}
	if opts.PublicKey != "" {
		config.Keys.PGPPublicKey = opts.PublicKey
	}

	if err := configs.SaveConfig(settings.ConfigPath, config); err != nil {
		os.RemoveAll(settings.StateDir)
		return nil, err
	}

	configs.ProjectSettings = settings

	return &InitResult{
		ProjectName:   projectName,
		ProjectUUID:   config.Project.UUID,
		ProjectPath:   wd,
		ConfigPath:    settings.ConfigPath,
		NeedsEndpoint: config.ValidateEndpoint() != nil,
	}, nil
}
