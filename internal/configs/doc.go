// Package configs manages the project configuration and staging state.
//
// Both live in the .sealdrop directory at the project root, in TOML:
//
//   - .sealdrop/config.toml: endpoint, keys, file naming, verification,
//     pipeline and log settings
//   - .sealdrop/stage.toml: the browsing context and staged files
//
// # Settings
//
// Call InitProjectSettings before accessing ProjectSettings. It walks up
// the directory tree to find the nearest .sealdrop directory.
//
// # Validation
//
// LoadConfig fills omitted fields with defaults and runs Validate.
// ValidateEndpoint is only required by commands that connect to the
// remote host. Both return errors wrapping ErrInvalidConfig.
package configs
