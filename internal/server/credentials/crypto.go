package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"akeno/internal/types"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLen     = 32 // AES-256
	kdfRounds  = 100_000
	kdfSaltStr = "akeno-credential-store-v1"
)

// cipherBox wraps AES-256-GCM with a key derived from the configured
// secret. The salt is fixed: there is a single master secret per
// deployment, not per-user passwords, so per-entry salts buy nothing
// here while the KDF still hardens a weak configured secret.
type cipherBox struct {
	aead cipher.AEAD
}

func newCipherBox(secret string) (*cipherBox, error) {
	if secret == "" {
		return nil, fmt.Errorf("credential secret is required")
	}

	key := pbkdf2.Key([]byte(secret), []byte(kdfSaltStr), kdfRounds, keyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	return &cipherBox{aead: aead}, nil
}

// encrypt seals the plaintext and packages nonce||ciphertext as base64
func (b *cipherBox) encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce generation error: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// decrypt unpacks base64(nonce||ciphertext) and opens it. Any tampering
// with the ciphertext or the wrong master secret yields ErrDecryptFailed.
func (b *cipherBox) decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", types.ErrDecryptFailed
	}
	if len(sealed) < b.aead.NonceSize() {
		return "", types.ErrDecryptFailed
	}

	nonce, ciphertext := sealed[:b.aead.NonceSize()], sealed[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", types.ErrDecryptFailed
	}
	return string(plaintext), nil
}
