package secrets

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Recipient is a validated OpenPGP public key ring that artifacts are
// encrypted to.
type Recipient struct {
	entities openpgp.EntityList
}

// LoadRecipient parses an armored OpenPGP public key. It returns
// ErrKeyInvalid when the block cannot be parsed or no entity in it can
// encrypt.
func LoadRecipient(armored []byte) (*Recipient, error) {
	if len(bytes.TrimSpace(armored)) == 0 {
		return nil, fmt.Errorf("%w: key is empty", kerrors.ErrKeyInvalid)
	}

	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(armored))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyInvalid, err)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: key ring contains no keys", kerrors.ErrKeyInvalid)
	}

	now := time.Now()
	for _, e := range entities {
		if _, ok := e.EncryptionKey(now); !ok {
			return nil, fmt.Errorf("%w: key %s has no valid encryption subkey",
				kerrors.ErrKeyInvalid, e.PrimaryKey.KeyIdString())
		}
	}

	return &Recipient{entities: entities}, nil
}

// LoadRecipientFile reads and parses an armored public key file. Errors
// name the file.
func LoadRecipientFile(path string) (*Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", kerrors.ErrKeyInvalid, path, err)
	}
	r, err := LoadRecipient(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// KeyIDs returns the hex key ids of the recipient's primary keys.
func (r *Recipient) KeyIDs() []string {
	ids := make([]string, 0, len(r.entities))
	for _, e := range r.entities {
		ids = append(ids, e.PrimaryKey.KeyIdString())
	}
	return ids
}

// Identities returns the user ids attached to the recipient's keys.
func (r *Recipient) Identities() []string {
	var names []string
	for _, e := range r.entities {
		for name := range e.Identities {
			names = append(names, name)
		}
	}
	return names
}

func (r *Recipient) String() string {
	return strings.Join(r.KeyIDs(), ",")
}
