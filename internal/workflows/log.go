package workflows

import (
	"context"
	"sort"
	"time"

	"github.com/PolarWolf314/sealdrop/internal/audit"
	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Failures reads failure.log only.
	Failures bool

	// Successes reads success.log only.
	Successes bool

	// Batch filters entries to one batch id.
	Batch string

	// Limit is the maximum number of entries to return, most recent last.
	// 0 means no limit.
	Limit int
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered batch log entries in time order.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads the batch logs of the current project.
//
// Returns ErrProjectNotInitialized if the project has no .sealdrop directory.
// Returns ErrNoLogsFound if no batch has been logged yet.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}

	var names []string
	switch {
	case opts.Failures && !opts.Successes:
		names = []string{audit.FailureLog}
	case opts.Successes && !opts.Failures:
		names = []string{audit.SuccessLog}
	default:
		names = []string{audit.SuccessLog, audit.FailureLog}
	}

	var entries []audit.Entry
	for _, name := range names {
		e, err := audit.ReadEntries(p.logsDir(), name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e...)
	}
	if len(entries) == 0 {
		return nil, kerrors.ErrNoLogsFound
	}

	// Summaries are written to both streams.
	if len(names) > 1 {
		entries = dropDuplicateSummaries(entries)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time < entries[j].Time
	})

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	filtered := entries
	if opts.Batch != "" {
		filtered = audit.FilterBatch(filtered, opts.Batch)
	}
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[len(filtered)-opts.Limit:]
	}

	result.Entries = filtered
	return result, nil
}

func dropDuplicateSummaries(entries []audit.Entry) []audit.Entry {
	seen := make(map[string]bool)
	out := entries[:0]
	for _, e := range entries {
		if e.Event == audit.EventBatchComplete {
			if seen[e.Batch] {
				continue
			}
			seen[e.Batch] = true
		}
		out = append(out, e)
	}
	return out
}

// FormatDateTime formats a log timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, err := time.Parse(audit.TimeFormat, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	if err != nil {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
