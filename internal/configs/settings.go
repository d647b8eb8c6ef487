package configs

import (
	"fmt"
	"path/filepath"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/utils"
)

type Settings struct {
	ProjectName string
	ProjectPath string
	StateDir    string
	ConfigPath  string
	StagePath   string
}

// ProjectSettings holds the paths of the current project. It is empty until
// InitProjectSettings succeeds.
var ProjectSettings = &Settings{}

// SettingsFor returns the settings of the project rooted at projectPath.
func SettingsFor(projectPath string) *Settings {
	stateDir := filepath.Join(projectPath, utils.ProjectDirName)
	return &Settings{
		ProjectName: filepath.Base(projectPath),
		ProjectPath: projectPath,
		StateDir:    stateDir,
		ConfigPath:  filepath.Join(stateDir, "config.toml"),
		StagePath:   filepath.Join(stateDir, "stage.toml"),
	}
}

// InitProjectSettings locates the project root from the working directory.
// It returns ErrProjectNotInitialized when no .sealdrop directory is found.
func InitProjectSettings() error {
	projectPath, err := utils.FindProjectRoot()
	if err != nil {
		return fmt.Errorf("error getting project root: %w", err)
	}
	if projectPath == "" {
		return kerrors.ErrProjectNotInitialized
	}

	ProjectSettings = SettingsFor(projectPath)
	return nil
}

// LogsDir resolves [logs] dir against the project state directory.
func (s *Settings) LogsDir(config *Config) string {
	if filepath.IsAbs(config.Logs.Dir) {
		return config.Logs.Dir
	}
	return filepath.Join(s.StateDir, config.Logs.Dir)
}
