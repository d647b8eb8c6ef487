// Package audit records the outcome of every batch.
//
// Each batch appends JSON lines, written with zerolog, to two files in the
// logs directory:
//
//	.sealdrop/logs/success.log   encrypted files, verified uploads
//	.sealdrop/logs/failure.log   per-file failures, mismatches, fatal errors
//
// Every record carries the batch id and an "event" field. Mismatches are
// written at warn level so they can be told apart from errors. Both files
// end a batch with a "batch_summary" record.
//
// # Reading Logs
//
// ReadEntries parses a log file for display. Malformed lines are skipped
// to tolerate partial writes.
package audit
