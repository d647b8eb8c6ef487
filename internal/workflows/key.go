package workflows

import (
	"context"

	"github.com/PolarWolf314/sealdrop/internal/transfer"
)

// KeyCheckResult reports the configured keys.
type KeyCheckResult struct {
	// PrivateKeyPath is the resolved SSH private key path.
	PrivateKeyPath string

	// State is the credential state after re-checking the key file.
	State transfer.KeyState

	// Status is the operator-facing status line for the private key.
	Status string

	// RecipientKeyIDs and RecipientIdentities describe the public key.
	RecipientKeyIDs     []string
	RecipientIdentities []string

	// RecipientErr is set when the public key is missing or invalid.
	RecipientErr error
}

// KeyCheck re-validates the private key file and parses the recipient
// public key. Neither check touches the network.
func KeyCheck(ctx context.Context) (*KeyCheckResult, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}

	cred := p.credential()
	cred.Check()

	result := &KeyCheckResult{
		PrivateKeyPath: cred.PrivateKeyPath,
		State:          cred.State,
		Status:         cred.Describe(),
	}

	enc, err := p.recipientLoader()()
	if err != nil {
		result.RecipientErr = err
		return result, nil
	}
	if r, ok := enc.(interface {
		KeyIDs() []string
		Identities() []string
	}); ok {
		result.RecipientKeyIDs = r.KeyIDs()
		result.RecipientIdentities = r.Identities()
	}

	return result, nil
}
