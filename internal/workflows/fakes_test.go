package workflows

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	"github.com/PolarWolf314/sealdrop/internal/secrets"
)

// fakeChannel stores uploads in a local directory standing in for the
// remote working directory.
type fakeChannel struct {
	dir      string
	failOn   map[string]bool
	truncate map[string]bool

	uploads []string
	closed  bool
}

func newFakeChannel(t *testing.T) *fakeChannel {
	t.Helper()
	return &fakeChannel{
		dir:      t.TempDir(),
		failOn:   map[string]bool{},
		truncate: map[string]bool{},
	}
}

func (f *fakeChannel) Upload(localPath, remoteName string, progress io.Writer) (int64, error) {
	if f.closed {
		return 0, kerrors.ErrChannelClosed
	}
	if f.failOn[remoteName] {
		return 0, fmt.Errorf("%w: connection reset", kerrors.ErrTransferFailed)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", kerrors.ErrTransferFailed, err)
	}
	if f.truncate[remoteName] {
		data = data[:len(data)/2]
	}
	if err := os.WriteFile(filepath.Join(f.dir, remoteName), data, 0600); err != nil {
		return 0, err
	}
	if progress != nil {
		progress.Write(data)
	}
	f.uploads = append(f.uploads, remoteName)
	return int64(len(data)), nil
}

func (f *fakeChannel) Stat(remoteName string) (os.FileInfo, error) {
	return os.Stat(filepath.Join(f.dir, remoteName))
}

func (f *fakeChannel) OpenRemote(remoteName string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(f.dir, remoteName))
}

func (f *fakeChannel) RemotePath(name string) string { return path.Join("/upload", name) }
func (f *fakeChannel) Cwd() string                   { return "/upload" }

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

// opener returns an Opener for f and a counter of how often it ran.
func (f *fakeChannel) opener() (Opener, *int) {
	calls := 0
	return func(ctx context.Context) (RemoteChannel, error) {
		calls++
		f.closed = false
		return f, nil
	}, &calls
}

func failingOpener(err error) (Opener, *int) {
	calls := 0
	return func(ctx context.Context) (RemoteChannel, error) {
		calls++
		return nil, err
	}, &calls
}

// fakeEncrypter writes "sealed:" plus the source text. Sources listed in
// delay sleep first so workers finish out of order, and sources listed in
// fail return that error.
type fakeEncrypter struct {
	mu        sync.Mutex
	delay     map[string]time.Duration
	fail      map[string]error
	attempted []string
	order     []string
}

func (e *fakeEncrypter) EncryptFile(sourcePath, outputDir, ext string) (string, error) {
	e.mu.Lock()
	e.attempted = append(e.attempted, filepath.Base(sourcePath))
	e.mu.Unlock()

	if d := e.delay[filepath.Base(sourcePath)]; d > 0 {
		time.Sleep(d)
	}
	if err := e.fail[filepath.Base(sourcePath)]; err != nil {
		return "", err
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", kerrors.ErrReadFailed, sourcePath, err)
	}
	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrWriteFailed, err)
	}
	out := secrets.ArtifactPath(sourcePath, outputDir, ext)
	if err := os.WriteFile(out, append([]byte("sealed:"), data...), 0600); err != nil {
		return "", fmt.Errorf("%w: %v", kerrors.ErrWriteFailed, err)
	}

	e.mu.Lock()
	e.order = append(e.order, filepath.Base(sourcePath))
	e.mu.Unlock()
	return out, nil
}

func staticRecipient(enc Encrypter) func() (Encrypter, error) {
	return func() (Encrypter, error) { return enc, nil }
}

// writeSources creates name=content files in dir and returns their paths.
func writeSources(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		paths = append(paths, p)
	}
	return paths
}
