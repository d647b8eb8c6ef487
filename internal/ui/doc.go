// Package ui provides semantic text formatting for CLI output.
//
// Formatters render with color when the terminal supports it, and fall
// back to plain decorations (backticks, quotes, brackets) when NO_COLOR is
// set or the terminal is dumb.
//
//	ui.Code.Sprint("sealdrop run")          // Commands
//	ui.Path.Sprint("encrypted/a.csv.pgp")   // Local and remote paths
//	ui.Key.Sprint("~/.ssh/id_rsa")          // Key files
//	ui.Highlight.Sprint("sftp.example.com") // User values
//	ui.Muted.Sprint("1.20 KB")              // Secondary details
//
// Check, Cross, Arrow and Alert return the status markers that prefix
// result lines.
package ui
