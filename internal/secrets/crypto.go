package secrets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/sealdrop/internal/errors"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

const messageType = "PGP MESSAGE"

// ArtifactPath returns the artifact path for sourcePath: the source base
// name plus ext, inside outputDir.
func ArtifactPath(sourcePath, outputDir, ext string) string {
	return filepath.Join(outputDir, filepath.Base(sourcePath)+ext)
}

// EncryptFile encrypts sourcePath to the recipient and writes an armored
// message to ArtifactPath(sourcePath, outputDir, ext). outputDir is
// created if missing. The source file is never modified.
func (r *Recipient) EncryptFile(sourcePath, outputDir, ext string) (string, error) {
	plaintext, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", kerrors.ErrReadFailed, sourcePath, err)
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8 text", kerrors.ErrReadFailed, sourcePath)
	}

	ciphertext, err := r.Encrypt(plaintext, filepath.Base(sourcePath))
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %v", kerrors.ErrWriteFailed, outputDir, err)
	}

	outputPath := ArtifactPath(sourcePath, outputDir, ext)
	if err := os.WriteFile(outputPath, ciphertext, 0600); err != nil {
		return "", fmt.Errorf("%w: %s: %v", kerrors.ErrWriteFailed, outputPath, err)
	}

	return outputPath, nil
}

// Encrypt returns plaintext encrypted to the recipient as an armored
// OpenPGP message. fileName is stored in the literal data packet.
func (r *Recipient) Encrypt(plaintext []byte, fileName string) ([]byte, error) {
	var buf bytes.Buffer

	aw, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start armor encoder: %w", err)
	}

	w, err := openpgp.Encrypt(aw, r.entities, nil, &openpgp.FileHints{FileName: fileName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrKeyInvalid, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("failed to encrypt %s: %w", fileName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish encrypting %s: %w", fileName, err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish armoring %s: %w", fileName, err)
	}

	return buf.Bytes(), nil
}
