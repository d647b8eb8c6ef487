package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/secrets"
)

// StageResult describes the selection after a staging operation.
type StageResult struct {
	// Context is the directory staged names are relative to.
	Context string

	// Staged lists the selection, sorted.
	Staged []string

	// Changed is the number of names added or removed.
	Changed int

	// Cleared reports that a context change emptied the selection.
	Cleared bool
}

// StageChangeDir moves the browsing context to dir, relative to the
// current context. Changing to a different directory clears the
// selection.
//
// Returns ErrContextNotFound if dir is not a directory.
func StageChangeDir(ctx context.Context, dir string) (*StageResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(session.Context, dir)
	}
	target = filepath.Clean(target)

	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrContextNotFound, dir)
	}

	cleared := session.ChangeContext(target)
	if err := p.saveSession(session); err != nil {
		return nil, err
	}

	return &StageResult{Context: session.Context, Staged: session.Set.Snapshot(), Cleared: cleared}, nil
}

// StageAddOptions configures StageAdd.
type StageAddOptions struct {
	// Patterns are names or doublestar globs relative to the context.
	Patterns []string

	// All stages every eligible file directly inside the context.
	All bool
}

// StageAdd adds eligible files to the selection. Ineligible names are
// skipped and names already staged are left alone.
//
// Returns ErrNoFilesFound if nothing matched.
func StageAdd(ctx context.Context, opts StageAddOptions) (*StageResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	var names []string
	if opts.All {
		names, err = secrets.ListEligible(session.Context, p.config.Files.Extension)
		if err == nil && len(names) == 0 {
			err = kerrors.ErrNoFilesFound
		}
	} else {
		names, err = secrets.ResolveFiles(opts.Patterns, session.Context, p.config.Files.Extension)
	}
	if err != nil {
		return nil, err
	}

	added := session.Set.Add(names...)
	if err := p.saveSession(session); err != nil {
		return nil, err
	}

	return &StageResult{Context: session.Context, Staged: session.Set.Snapshot(), Changed: added}, nil
}

// StageRemove removes names from the selection. Names that are not staged
// are ignored.
func StageRemove(ctx context.Context, names []string) (*StageResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	removed := session.Set.Remove(names...)
	if err := p.saveSession(session); err != nil {
		return nil, err
	}

	return &StageResult{Context: session.Context, Staged: session.Set.Snapshot(), Changed: removed}, nil
}

// StageClear empties the selection and keeps the context.
func StageClear(ctx context.Context) (*StageResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	removed := session.Set.Len()
	session.Set.Clear()
	if err := p.saveSession(session); err != nil {
		return nil, err
	}

	return &StageResult{Context: session.Context, Staged: []string{}, Changed: removed}, nil
}

// StageListResult lists the selection and what else could be staged.
type StageListResult struct {
	Context string
	Staged  []string

	// Available lists eligible files in the context that are not staged.
	Available []string

	// Directories lists subdirectories of the context.
	Directories []string
}

// StageList reports the selection and the eligible files around it.
func StageList(ctx context.Context) (*StageListResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}
	session, err := p.loadSession()
	if err != nil {
		return nil, err
	}

	result := &StageListResult{Context: session.Context, Staged: session.Set.Snapshot()}

	eligible, err := secrets.ListEligible(session.Context, p.config.Files.Extension)
	if err != nil {
		return nil, err
	}
	for _, name := range eligible {
		if !session.Set.Contains(name) {
			result.Available = append(result.Available, name)
		}
	}

	entries, err := os.ReadDir(session.Context)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrContextNotFound, session.Context, err)
	}
	for _, entry := range entries {
		if entry.IsDir() && entry.Name() != ".sealdrop" {
			result.Directories = append(result.Directories, entry.Name())
		}
	}

	return result, nil
}
