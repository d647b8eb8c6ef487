// Package utils provides shared helpers used across sealdrop packages.
//
// # Filesystem
//
//   - FindProjectRoot: walks up directories to find .sealdrop
//   - ExpandHome: resolves "~/" in configured key paths
//
// # Formatting
//
//   - FormatPaths: bulleted path lists for command output
//   - HumanSize: byte counts in B, KB, MB, GB or TB
//   - FormatElapsed: upload durations in minutes and seconds
//
// # Terminal
//
//   - ReadPassphraseFromTTY: hidden passphrase prompt for SSH keys
//   - IsTerminal, TerminalWidth: stdout detection for progress output
package utils
