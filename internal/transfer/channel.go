package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
	logger "github.com/PolarWolf314/sealdrop/internal/logging"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Endpoint identifies the remote SFTP account and directory.
type Endpoint struct {
	Host      string
	Port      int
	Username  string
	RemoteDir string
	Timeout   time.Duration
}

func (e Endpoint) Addr() string {
	port := e.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// Options configures how a channel is opened.
type Options struct {
	HostKeyPolicy  HostKeyPolicy
	KnownHostsPath string

	// Passphrase is called when the private key is encrypted.
	Passphrase func() ([]byte, error)

	Logger logger.Logger
}

// Channel is an authenticated SFTP session rooted at the resolved remote
// directory. One channel serves a whole batch. It is not safe for
// concurrent uploads.
type Channel struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	cwd  string

	mu     sync.Mutex
	closed bool
}

// Open authenticates to the endpoint with the credential and changes into
// the remote directory. Partially opened sessions are closed before an
// error is returned.
func Open(ctx context.Context, ep Endpoint, cred *Credential, opts Options) (*Channel, error) {
	signer, err := cred.Signer(opts.Passphrase)
	if err != nil {
		return nil, err
	}

	checker, err := newHostKeyChecker(opts.HostKeyPolicy, opts.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrHostKeyRejected, err)
	}
	if checker.policy == Insecure {
		opts.Logger.WarnfAlways("Host key checking is disabled for %s", ep.Addr())
	}

	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	addr := ep.Addr()
	opts.Logger.Debugf("Dialing %s as %s", addr, ep.Username)

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrHostUnreachable, addr, err)
	}

	config := &ssh.ClientConfig{
		User:            ep.Username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: checker.Callback(),
		Timeout:         timeout,
	}

	// The deadline bounds the handshake only.
	_ = conn.SetDeadline(time.Now().Add(timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, classifyHandshakeError(addr, checker, err)
	}
	_ = conn.SetDeadline(time.Time{})

	for _, host := range checker.Accepted() {
		opts.Logger.WarnfAlways("Permanently added %s to %s", host, opts.KnownHostsPath)
	}

	client := ssh.NewClient(sshConn, chans, reqs)
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to start sftp subsystem on %s: %v", kerrors.ErrHostUnreachable, addr, err)
	}

	ch, err := newChannel(client, sftpClient, ep.RemoteDir)
	if err != nil {
		sftpClient.Close()
		client.Close()
		return nil, err
	}

	opts.Logger.Infof("Remote working directory: %s", ch.cwd)
	return ch, nil
}

func classifyHandshakeError(addr string, checker *hostKeyChecker, err error) error {
	if rejected := checker.Rejection(); rejected != nil {
		return rejected
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrAuthFailed, addr, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", kerrors.ErrHostUnreachable, addr, err)
	}
	return fmt.Errorf("%w: %s: %v", kerrors.ErrAuthFailed, addr, err)
}

// NewChannel wraps an established SFTP client and changes into remoteDir.
func NewChannel(client *sftp.Client, remoteDir string) (*Channel, error) {
	return newChannel(nil, client, remoteDir)
}

func newChannel(sshClient *ssh.Client, client *sftp.Client, remoteDir string) (*Channel, error) {
	if remoteDir == "" {
		remoteDir = "."
	}

	resolved, err := client.RealPath(remoteDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrRemotePathInvalid, remoteDir, err)
	}
	info, err := client.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrRemotePathInvalid, remoteDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", kerrors.ErrRemotePathInvalid, remoteDir)
	}

	return &Channel{ssh: sshClient, sftp: client, cwd: resolved}, nil
}

// Cwd returns the resolved remote working directory.
func (c *Channel) Cwd() string {
	return c.cwd
}

// RemotePath returns where an artifact named name is stored. The remote
// layout is flat: only the base name is kept.
func (c *Channel) RemotePath(name string) string {
	return path.Join(c.cwd, filepath.Base(name))
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Upload streams localPath to RemotePath(remoteName), replacing any
// existing file. Bytes read are mirrored to progress when it is non-nil.
// Errors wrap ErrTransferFailed and leave the channel usable.
func (c *Channel) Upload(localPath, remoteName string, progress io.Writer) (int64, error) {
	if c.isClosed() {
		return 0, kerrors.ErrChannelClosed
	}

	src, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to open %s: %v", kerrors.ErrTransferFailed, localPath, err)
	}
	defer src.Close()

	remotePath := c.RemotePath(remoteName)
	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %v", kerrors.ErrTransferFailed, remotePath, err)
	}

	var r io.Reader = src
	if progress != nil {
		r = io.TeeReader(src, progress)
	}

	n, err := io.Copy(dst, r)
	if err != nil {
		dst.Close()
		return n, fmt.Errorf("%w: %s -> %s: %v", kerrors.ErrTransferFailed, localPath, remotePath, err)
	}
	if err := dst.Close(); err != nil {
		return n, fmt.Errorf("%w: failed to close %s: %v", kerrors.ErrTransferFailed, remotePath, err)
	}

	return n, nil
}

// Stat returns the remote file info of remoteName.
func (c *Channel) Stat(remoteName string) (os.FileInfo, error) {
	if c.isClosed() {
		return nil, kerrors.ErrChannelClosed
	}
	return c.sftp.Stat(c.RemotePath(remoteName))
}

// OpenRemote opens remoteName for reading.
func (c *Channel) OpenRemote(remoteName string) (io.ReadCloser, error) {
	if c.isClosed() {
		return nil, kerrors.ErrChannelClosed
	}
	return c.sftp.Open(c.RemotePath(remoteName))
}

// Close releases the SFTP session and the SSH connection. It is safe to
// call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
