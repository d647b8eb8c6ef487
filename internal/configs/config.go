package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/google/uuid"
)

// Host key policies accepted in [sftp] host_key_policy.
const (
	HostKeyAcceptNew = "accept-new"
	HostKeyStrict    = "strict"
	HostKeyInsecure  = "insecure"
)

// Verification modes accepted in [verify] mode.
const (
	VerifySize     = "size"
	VerifyChecksum = "checksum"
)

type Config struct {
	Project  Project        `toml:"project"`
	SFTP     SFTPConfig     `toml:"sftp"`
	Keys     KeysConfig     `toml:"keys"`
	Files    FilesConfig    `toml:"files"`
	Verify   VerifyConfig   `toml:"verify"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Logs     LogsConfig     `toml:"logs"`
}

type Project struct {
	UUID string `toml:"project_uuid"`
	Name string `toml:"name"`
}

type SFTPConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Username      string `toml:"username"`
	RemoteDir     string `toml:"remote_dir"`
	Timeout       string `toml:"timeout"`
	HostKeyPolicy string `toml:"host_key_policy"`
	KnownHosts    string `toml:"known_hosts"`
}

type KeysConfig struct {
	SSHPrivateKey       string `toml:"ssh_private_key"`
	PGPPublicKey        string `toml:"pgp_public_key"`
	PGPPublicKeyArmored string `toml:"pgp_public_key_armored,omitempty"`
}

type FilesConfig struct {
	Extension    string `toml:"extension"`
	EncryptedDir string `toml:"encrypted_dir"`
	EncryptedExt string `toml:"encrypted_ext"`
}

type VerifyConfig struct {
	Mode string `toml:"mode"`
}

type PipelineConfig struct {
	EncryptWorkers int `toml:"encrypt_workers"`
}

type LogsConfig struct {
	Dir             string `toml:"dir"`
	MetricsTextfile string `toml:"metrics_textfile,omitempty"`
}

// DefaultConfig returns a configuration with every optional field set.
// Host, username and keys are left for the user to fill in.
func DefaultConfig(projectName string) *Config {
	return &Config{
		Project: Project{
			UUID: GenerateProjectUUID(),
			Name: projectName,
		},
		SFTP: SFTPConfig{
			Port:          22,
			RemoteDir:     "upload",
			Timeout:       "30s",
			HostKeyPolicy: HostKeyAcceptNew,
			KnownHosts:    "~/.ssh/known_hosts",
		},
		Keys: KeysConfig{
			SSHPrivateKey: "~/.ssh/id_rsa",
		},
		Files: FilesConfig{
			Extension:    ".csv",
			EncryptedDir: "encrypted",
			EncryptedExt: ".pgp",
		},
		Verify:   VerifyConfig{Mode: VerifySize},
		Pipeline: PipelineConfig{EncryptWorkers: 1},
		Logs:     LogsConfig{Dir: "logs"},
	}
}

// GenerateProjectUUID generates a new UUID for the project.
func GenerateProjectUUID() string {
	return uuid.New().String()
}

// applyDefaults fills fields that an older or hand-written config omits.
func (c *Config) applyDefaults() {
	d := DefaultConfig(c.Project.Name)
	if c.SFTP.Port == 0 {
		c.SFTP.Port = d.SFTP.Port
	}
	if c.SFTP.RemoteDir == "" {
		c.SFTP.RemoteDir = d.SFTP.RemoteDir
	}
	if c.SFTP.Timeout == "" {
		c.SFTP.Timeout = d.SFTP.Timeout
	}
	if c.SFTP.HostKeyPolicy == "" {
		c.SFTP.HostKeyPolicy = d.SFTP.HostKeyPolicy
	}
	if c.SFTP.KnownHosts == "" {
		c.SFTP.KnownHosts = d.SFTP.KnownHosts
	}
	if c.Files.Extension == "" {
		c.Files.Extension = d.Files.Extension
	}
	if c.Files.EncryptedDir == "" {
		c.Files.EncryptedDir = d.Files.EncryptedDir
	}
	if c.Files.EncryptedExt == "" {
		c.Files.EncryptedExt = d.Files.EncryptedExt
	}
	if c.Verify.Mode == "" {
		c.Verify.Mode = d.Verify.Mode
	}
	if c.Pipeline.EncryptWorkers == 0 {
		c.Pipeline.EncryptWorkers = d.Pipeline.EncryptWorkers
	}
	if c.Logs.Dir == "" {
		c.Logs.Dir = d.Logs.Dir
	}
}

// Validate checks the settings every command relies on. Endpoint fields
// are checked separately by ValidateEndpoint, since staging and encryption
// work without them.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Files.Extension, ".") {
		return invalid("files.extension must start with a dot, got %q", c.Files.Extension)
	}
	if c.Files.EncryptedExt == "" {
		return invalid("files.encrypted_ext must not be empty")
	}
	if c.Files.EncryptedDir == "" {
		return invalid("files.encrypted_dir must not be empty")
	}
	switch c.Verify.Mode {
	case VerifySize, VerifyChecksum:
	default:
		return invalid("verify.mode must be %q or %q, got %q", VerifySize, VerifyChecksum, c.Verify.Mode)
	}
	if c.Pipeline.EncryptWorkers < 1 {
		return invalid("pipeline.encrypt_workers must be at least 1, got %d", c.Pipeline.EncryptWorkers)
	}
	return nil
}

// ValidateEndpoint checks the [sftp] section before a connection is made.
func (c *Config) ValidateEndpoint() error {
	if c.SFTP.Host == "" {
		return invalid("sftp.host must be set")
	}
	if c.SFTP.Username == "" {
		return invalid("sftp.username must be set")
	}
	if c.SFTP.Port < 1 || c.SFTP.Port > 65535 {
		return invalid("sftp.port must be between 1 and 65535, got %d", c.SFTP.Port)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	switch c.SFTP.HostKeyPolicy {
	case HostKeyAcceptNew, HostKeyStrict, HostKeyInsecure:
	default:
		return invalid("sftp.host_key_policy must be one of %q, %q or %q, got %q",
			HostKeyAcceptNew, HostKeyStrict, HostKeyInsecure, c.SFTP.HostKeyPolicy)
	}
	return nil
}

// TimeoutDuration parses sftp.timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.SFTP.Timeout)
	if err != nil || d <= 0 {
		return 0, invalid("sftp.timeout must be a positive duration such as \"30s\", got %q", c.SFTP.Timeout)
	}
	return d, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", kerrors.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// LoadConfig loads .sealdrop/config.toml from the project root.
// Note: Caller should ensure InitProjectSettings is called before calling this function.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(ProjectSettings.ConfigPath)
}

// LoadConfigFrom loads and validates the config file at path.
func LoadConfigFrom(path string) (*Config, error) {
	config := &Config{}
	if err := LoadTOML(path, config); err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.ErrProjectNotInitialized
		}
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// SaveConfig writes the config to path.
func SaveConfig(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ResolvePath returns p relative to the project root unless it is absolute
// or starts with "~/".
func ResolvePath(root, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "~/") {
		return p
	}
	return filepath.Join(root, p)
}
