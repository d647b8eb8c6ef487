package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Log file names inside the logs directory.
const (
	SuccessLog = "success.log"
	FailureLog = "failure.log"
)

// TimeFormat is RFC3339 with microseconds, always in UTC.
const TimeFormat = "2006-01-02T15:04:05.000000Z07:00"

func init() {
	zerolog.TimeFieldFormat = TimeFormat
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
}

// Event names written in the "event" field.
const (
	EventEncrypted     = "encrypted"
	EventUploaded      = "uploaded"
	EventItemFailed    = "item_failed"
	EventMismatch      = "verify_mismatch"
	EventFatal         = "batch_fatal"
	EventBatchComplete = "batch_summary"
)

// Summary is written to both streams when a batch ends.
type Summary struct {
	State         string
	Selected      int
	Encrypted     int
	EncryptFailed int
	Verified      int
	Failed        int
	Mismatched    int
	Duration      time.Duration
}

// Logs writes the records of one batch to the success and failure streams.
// Every record carries the batch id.
type Logs struct {
	success zerolog.Logger
	failure zerolog.Logger
	closers []io.Closer
}

// New returns batch logs writing to the given writers.
func New(success, failure io.Writer, batchID string) *Logs {
	return &Logs{
		success: zerolog.New(success).With().Timestamp().Str("batch", batchID).Logger(),
		failure: zerolog.New(failure).With().Timestamp().Str("batch", batchID).Logger(),
	}
}

// Discard returns batch logs that write nothing.
func Discard() *Logs {
	return New(io.Discard, io.Discard, "")
}

// Open appends to success.log and failure.log in dir, creating both.
func Open(dir, batchID string) (*Logs, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create logs directory %s: %w", dir, err)
	}

	success, err := openAppend(filepath.Join(dir, SuccessLog))
	if err != nil {
		return nil, err
	}
	failure, err := openAppend(filepath.Join(dir, FailureLog))
	if err != nil {
		success.Close()
		return nil, err
	}

	l := New(success, failure, batchID)
	l.closers = []io.Closer{success, failure}
	return l, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func (l *Logs) Close() error {
	var errs []error
	for _, c := range l.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}

// Encrypted records a source file and the artifact produced from it.
func (l *Logs) Encrypted(source, artifact string) {
	l.success.Info().
		Str("event", EventEncrypted).
		Str("local", source).
		Str("artifact", artifact).
		Msg("file encrypted")
}

// Uploaded records a verified upload.
func (l *Logs) Uploaded(local, remote string, size int64, elapsed time.Duration) {
	l.success.Info().
		Str("event", EventUploaded).
		Str("local", local).
		Str("remote", remote).
		Int64("size", size).
		Dur("elapsed", elapsed).
		Msg("upload verified")
}

// ItemFailed records a failure confined to one file. remote may be empty
// when the failure happened before upload.
func (l *Logs) ItemFailed(stage, local, remote string, err error) {
	l.failure.Error().
		Str("event", EventItemFailed).
		Str("stage", stage).
		Str("local", local).
		Str("remote", remote).
		Err(err).
		Msg(stage + " failed")
}

// Mismatch records an upload whose remote copy did not match. It is
// written at warn level.
func (l *Logs) Mismatch(local, remote string, localSize, remoteSize int64) {
	l.failure.Warn().
		Str("event", EventMismatch).
		Str("local", local).
		Str("remote", remote).
		Int64("local_size", localSize).
		Int64("remote_size", remoteSize).
		Msg("verification mismatch")
}

// Fatal records a condition that aborted the whole batch.
func (l *Logs) Fatal(keyPath string, err error) {
	l.failure.Error().
		Str("event", EventFatal).
		Str("key", keyPath).
		Err(err).
		Msg("batch aborted")
}

// Summary writes s to both streams.
func (l *Logs) Summary(s Summary) {
	for _, lg := range []zerolog.Logger{l.success, l.failure} {
		lg.Info().
			Str("event", EventBatchComplete).
			Str("state", s.State).
			Int("selected", s.Selected).
			Int("encrypted", s.Encrypted).
			Int("encrypt_failed", s.EncryptFailed).
			Int("verified", s.Verified).
			Int("failed", s.Failed).
			Int("mismatched", s.Mismatched).
			Dur("duration", s.Duration).
			Msg("batch finished")
	}
}
