package workflows

import (
	"context"

	"github.com/PolarWolf314/sealdrop/internal/configs"
)

// ConfigShowResult is the effective configuration of the current project.
type ConfigShowResult struct {
	Config     *configs.Config
	ConfigPath string
	LogsDir    string

	// EndpointErr is set when the [sftp] section is incomplete.
	EndpointErr error
}

// ConfigShow loads the project config with defaults applied.
func ConfigShow(ctx context.Context) (*ConfigShowResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	return &ConfigShowResult{
		Config:      p.config,
		ConfigPath:  p.settings.ConfigPath,
		LogsDir:     p.logsDir(),
		EndpointErr: p.config.ValidateEndpoint(),
	}, nil
}
