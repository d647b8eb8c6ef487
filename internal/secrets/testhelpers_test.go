package secrets

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

var (
	testKeyOnce    sync.Once
	testEntity     *openpgp.Entity
	testArmoredPub []byte
	testKeyErr     error
)

// testKey returns a private entity and its armored public key. The key is
// generated once per test binary.
func testKey(t *testing.T) (*openpgp.Entity, []byte) {
	t.Helper()
	testKeyOnce.Do(func() {
		testEntity, testKeyErr = openpgp.NewEntity("Recipient", "test", "recipient@example.com", nil)
		if testKeyErr != nil {
			return
		}
		var buf bytes.Buffer
		w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
		if err != nil {
			testKeyErr = err
			return
		}
		if err := testEntity.Serialize(w); err != nil {
			testKeyErr = err
			return
		}
		if err := w.Close(); err != nil {
			testKeyErr = err
			return
		}
		testArmoredPub = buf.Bytes()
	})
	if testKeyErr != nil {
		t.Fatalf("failed to generate test key: %v", testKeyErr)
	}
	return testEntity, testArmoredPub
}

// decryptArtifact reads an armored message and decrypts it with entity.
func decryptArtifact(t *testing.T, path string, entity *openpgp.Entity) []byte {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open artifact: %v", err)
	}
	defer f.Close()

	block, err := armor.Decode(f)
	if err != nil {
		t.Fatalf("artifact is not armored: %v", err)
	}
	if block.Type != "PGP MESSAGE" {
		t.Fatalf("unexpected armor type %q", block.Type)
	}

	md, err := openpgp.ReadMessage(block.Body, openpgp.EntityList{entity}, nil, nil)
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		t.Fatalf("failed to decrypt body: %v", err)
	}
	return plaintext
}

// writeTestFile writes test fixtures with 0644 permissions.
// #nosec G306 -- Test files are temporary and don't contain sensitive data.
func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306
		t.Fatalf("Failed to create test file: %v", err)
	}
}
