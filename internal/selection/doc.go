// Package selection tracks the files staged for the next batch.
//
// A Set holds unique identifiers (file names within the browsing context)
// and applies an optional admission filter, so ineligible names never
// enter it. A Session adds the browsing context: moving to another
// directory empties the set.
//
// Both types are single-owner values and are not safe for concurrent use.
// The pipeline works on a sorted Snapshot taken when a batch starts.
package selection
