package transfer

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyPolicy decides how unknown and changed host keys are handled.
type HostKeyPolicy string

const (
	// AcceptNew trusts and records unknown hosts, and rejects changed keys.
	AcceptNew HostKeyPolicy = "accept-new"
	// Strict only accepts hosts already present in known_hosts.
	Strict HostKeyPolicy = "strict"
	// Insecure accepts any host key without recording it.
	Insecure HostKeyPolicy = "insecure"
)

// hostKeyChecker wraps a known_hosts database. rejected holds the last
// policy failure so Open can report it after the handshake error.
type hostKeyChecker struct {
	policy HostKeyPolicy
	path   string

	mu       sync.Mutex
	db       ssh.HostKeyCallback
	accepted []string
	rejected error
}

func newHostKeyChecker(policy HostKeyPolicy, knownHostsPath string) (*hostKeyChecker, error) {
	h := &hostKeyChecker{policy: policy, path: knownHostsPath}

	switch policy {
	case Insecure:
		h.db = ssh.InsecureIgnoreHostKey()
		return h, nil
	case AcceptNew, Strict, "":
		if policy == "" {
			h.policy = AcceptNew
		}
	default:
		return nil, fmt.Errorf("unknown host key policy %q", policy)
	}

	if knownHostsPath == "" {
		return nil, fmt.Errorf("known_hosts path is required for host key policy %q", h.policy)
	}
	if h.policy == AcceptNew {
		if err := ensureFile(knownHostsPath); err != nil {
			return nil, fmt.Errorf("failed to prepare %s: %w", knownHostsPath, err)
		}
	}
	if err := h.reload(); err != nil {
		return nil, err
	}
	return h, nil
}

func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return err
	}
	return f.Close()
}

func (h *hostKeyChecker) reload() error {
	db, err := knownhosts.New(h.path)
	if err != nil {
		return fmt.Errorf("failed to read known_hosts %s: %w", h.path, err)
	}
	h.db = db
	return nil
}

// Callback returns the ssh.HostKeyCallback enforcing the policy.
func (h *hostKeyChecker) Callback() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		h.mu.Lock()
		defer h.mu.Unlock()

		err := h.db(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if h.policy == AcceptNew && errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			if err := h.record(hostname, key); err != nil {
				h.rejected = fmt.Errorf("%w: failed to record %s: %v", kerrors.ErrHostKeyRejected, hostname, err)
				return h.rejected
			}
			return nil
		}

		h.rejected = fmt.Errorf("%w: %s: %v", kerrors.ErrHostKeyRejected, hostname, err)
		return h.rejected
	}
}

func (h *hostKeyChecker) record(hostname string, key ssh.PublicKey) error {
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	h.accepted = append(h.accepted, hostname)
	return h.reload()
}

// Rejection returns the last host key rejection, if any.
func (h *hostKeyChecker) Rejection() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rejected
}

// Accepted lists hosts recorded to known_hosts by this checker.
func (h *hostKeyChecker) Accepted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.accepted...)
}
