package transfer

import (
	"errors"
	"fmt"
	"os"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"golang.org/x/crypto/ssh"
)

// KeyState describes the last observed state of a private key file.
type KeyState string

const (
	KeyUnset    KeyState = "unset"
	KeyNotFound KeyState = "not_found"
	KeyLoaded   KeyState = "loaded"
)

// Credential names the private key used to authenticate. The file is
// re-validated on every Check; nothing is cached between batches.
type Credential struct {
	PrivateKeyPath string
	State          KeyState
}

func NewCredential(path string) *Credential {
	c := &Credential{PrivateKeyPath: path, State: KeyUnset}
	if path != "" {
		c.State = KeyNotFound
	}
	return c
}

// Check verifies the key file exists and is readable, updating State.
func (c *Credential) Check() KeyState {
	if c.PrivateKeyPath == "" {
		c.State = KeyUnset
		return c.State
	}

	f, err := os.Open(c.PrivateKeyPath)
	if err != nil {
		c.State = KeyNotFound
		return c.State
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		c.State = KeyNotFound
		return c.State
	}

	c.State = KeyLoaded
	return c.State
}

// Describe returns the status line shown to the operator.
func (c *Credential) Describe() string {
	if c.State != KeyLoaded {
		return "No key loaded"
	}
	return "Loaded Key: " + c.PrivateKeyPath
}

// Validate re-checks the key file and returns an error wrapping
// ErrKeyUnavailable unless it is present and readable.
func (c *Credential) Validate() error {
	if c.Check() == KeyLoaded {
		return nil
	}
	if c.PrivateKeyPath == "" {
		return fmt.Errorf("%w: no private key configured", kerrors.ErrKeyUnavailable)
	}
	return fmt.Errorf("%w: key not found at %s", kerrors.ErrKeyUnavailable, c.PrivateKeyPath)
}

// Signer checks the key file and parses it. When the key is encrypted,
// passphrase is called once to unlock it. All failures wrap
// ErrKeyUnavailable.
func (c *Credential) Signer(passphrase func() ([]byte, error)) (ssh.Signer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", kerrors.ErrKeyUnavailable, c.PrivateKeyPath, err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err == nil {
		return signer, nil
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", kerrors.ErrKeyUnavailable, c.PrivateKeyPath, err)
	}
	if passphrase == nil {
		return nil, fmt.Errorf("%w: %s is passphrase protected", kerrors.ErrKeyUnavailable, c.PrivateKeyPath)
	}

	secret, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyUnavailable, err)
	}
	signer, err = ssh.ParsePrivateKeyWithPassphrase(data, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decrypt %s: %v", kerrors.ErrKeyUnavailable, c.PrivateKeyPath, err)
	}
	return signer, nil
}
