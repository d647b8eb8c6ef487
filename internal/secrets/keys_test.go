package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"
)

func TestLoadRecipient(t *testing.T) {
	entity, armored := testKey(t)

	r, err := LoadRecipient(armored)
	if err != nil {
		t.Fatalf("LoadRecipient failed: %v", err)
	}

	ids := r.KeyIDs()
	if len(ids) != 1 || ids[0] != entity.PrimaryKey.KeyIdString() {
		t.Errorf("unexpected key ids %v", ids)
	}
	if len(r.Identities()) != 1 || !strings.Contains(r.Identities()[0], "recipient@example.com") {
		t.Errorf("unexpected identities %v", r.Identities())
	}
}

func TestLoadRecipientInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Empty", ""},
		{"Whitespace", "  \n\t"},
		{"Garbage", "not a key at all"},
		{"TruncatedArmor", "-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nmQENBF\n"},
		{"WrongBlockType", "-----BEGIN PGP MESSAGE-----\n\nhQEMA\n-----END PGP MESSAGE-----\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRecipient([]byte(tc.input))
			if !errors.Is(err, kerrors.ErrKeyInvalid) {
				t.Errorf("expected ErrKeyInvalid, got %v", err)
			}
		})
	}
}

func TestLoadRecipientFile(t *testing.T) {
	_, armored := testKey(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "recipient.asc")
	writeTestFile(t, path, string(armored))
	if _, err := LoadRecipientFile(path); err != nil {
		t.Fatalf("LoadRecipientFile failed: %v", err)
	}

	_, err := LoadRecipientFile(filepath.Join(dir, "missing.asc"))
	if !errors.Is(err, kerrors.ErrKeyInvalid) {
		t.Errorf("expected ErrKeyInvalid for missing file, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "missing.asc")); !os.IsNotExist(statErr) {
		t.Error("LoadRecipientFile should not create files")
	}

	garbage := filepath.Join(dir, "garbage.asc")
	writeTestFile(t, garbage, "not a key\n")
	_, err = LoadRecipientFile(garbage)
	if !errors.Is(err, kerrors.ErrKeyInvalid) {
		t.Errorf("expected ErrKeyInvalid for a malformed file, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), garbage) {
		t.Errorf("expected the error to name %s, got %v", garbage, err)
	}
}
