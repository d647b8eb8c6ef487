package transfer

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// VerifyMode selects how an upload is confirmed.
type VerifyMode string

const (
	VerifySize     VerifyMode = "size"
	VerifyChecksum VerifyMode = "checksum"
)

// RemoteFS is the remote side of a verification.
type RemoteFS interface {
	Stat(remoteName string) (os.FileInfo, error)
	OpenRemote(remoteName string) (io.ReadCloser, error)
}

// Verification is the outcome of comparing a local artifact with its
// uploaded copy. Sizes are -1 when the side could not be read.
type Verification struct {
	Matched     bool
	LocalSize   int64
	RemoteSize  int64
	Checksummed bool
	LocalSum    uint64
	RemoteSum   uint64
}

// Verifier compares local and remote artifacts.
type Verifier struct {
	Mode VerifyMode
}

// Verify never returns an error: failures to stat or read either side
// produce Matched == false.
func (v Verifier) Verify(remote RemoteFS, localPath, remoteName string) Verification {
	result := Verification{LocalSize: -1, RemoteSize: -1}

	if info, err := os.Stat(localPath); err == nil {
		result.LocalSize = info.Size()
	}
	if info, err := remote.Stat(remoteName); err == nil {
		result.RemoteSize = info.Size()
	}

	if result.LocalSize < 0 || result.RemoteSize < 0 || result.LocalSize != result.RemoteSize {
		return result
	}
	if v.Mode != VerifyChecksum {
		result.Matched = true
		return result
	}

	localSum, err := localChecksum(localPath)
	if err != nil {
		return result
	}
	remoteSum, err := remoteChecksum(remote, remoteName)
	if err != nil {
		return result
	}

	result.Checksummed = true
	result.LocalSum = localSum
	result.RemoteSum = remoteSum
	result.Matched = localSum == remoteSum
	return result
}

func localChecksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return digest(f)
}

func remoteChecksum(remote RemoteFS, name string) (uint64, error) {
	rc, err := remote.OpenRemote(name)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return digest(rc)
}

func digest(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
