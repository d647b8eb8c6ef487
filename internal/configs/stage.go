package configs

import (
	"fmt"
	"os"
	"sort"
)

// StageState is the persisted form of a selection session.
type StageState struct {
	Context string   `toml:"context"`
	Members []string `toml:"members"`
}

// LoadStageState reads the stage file. A missing file yields an empty state.
func LoadStageState(path string) (*StageState, error) {
	state := &StageState{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return state, nil
	}
	if err := LoadTOML(path, state); err != nil {
		return nil, fmt.Errorf("failed to load stage state: %w", err)
	}
	return state, nil
}

// SaveStageState writes the stage file with members sorted.
func SaveStageState(path string, state *StageState) error {
	members := append([]string(nil), state.Members...)
	sort.Strings(members)
	out := StageState{Context: state.Context, Members: members}
	if err := SaveTOML(path, out); err != nil {
		return fmt.Errorf("failed to save stage state: %w", err)
	}
	return nil
}
