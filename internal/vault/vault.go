// Package vault encrypts password material for the credential store.
// Keys are derived from a configured seed via Argon2id; ciphertext uses
// XChaCha20-Poly1305 with the nonce prepended.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/askfredo/memo-backend/internal/core"
)

// keySalt is fixed so the same seed always derives the same key. The seed
// itself is the secret; rotating it orphans existing ciphertext.
var keySalt = []byte("memo-backend-vault-v1")

// Vault encrypts and decrypts credential passwords
type Vault struct {
	key []byte
}

// New derives the vault key from the configured seed.
func New(seed string) (*Vault, error) {
	if seed == "" {
		return nil, core.ErrVaultNotReady
	}
	key := argon2.IDKey([]byte(seed), keySalt, 3, 64*1024, 4, chacha20poly1305.KeySize)
	return &Vault{key: key}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (v *Vault) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. A wrong key or tampered ciphertext yields
// ErrDecryptionFailed, never garbage plaintext.
func (v *Vault) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", core.ErrDecryptionFailed
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	if len(sealed) < aead.NonceSize() {
		return "", core.ErrDecryptionFailed
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", core.ErrDecryptionFailed
	}

	return string(plaintext), nil
}
