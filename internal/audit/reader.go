package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Entry is one parsed record from a batch log.
type Entry struct {
	Time     string `json:"time"`
	Level    string `json:"level"`
	Batch    string `json:"batch"`
	Event    string `json:"event"`
	Message  string `json:"message"`
	Stage    string `json:"stage,omitempty"`
	Local    string `json:"local,omitempty"`
	Remote   string `json:"remote,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Key      string `json:"key,omitempty"`
	Error    string `json:"error,omitempty"`

	Size       int64 `json:"size,omitempty"`
	LocalSize  int64 `json:"local_size,omitempty"`
	RemoteSize int64 `json:"remote_size,omitempty"`

	// Durations are in milliseconds, zerolog's default.
	Elapsed  float64 `json:"elapsed,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	State         string `json:"state,omitempty"`
	Selected      int    `json:"selected,omitempty"`
	Encrypted     int    `json:"encrypted,omitempty"`
	EncryptFailed int    `json:"encrypt_failed,omitempty"`
	Verified      int    `json:"verified,omitempty"`
	Failed        int    `json:"failed,omitempty"`
	Mismatched    int    `json:"mismatched,omitempty"`
}

// ReadEntries reads all entries from the named log file in dir.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(dir, name string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// FilterBatch returns the entries belonging to batchID.
func FilterBatch(entries []Entry, batchID string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Batch == batchID {
			out = append(out, e)
		}
	}
	return out
}
