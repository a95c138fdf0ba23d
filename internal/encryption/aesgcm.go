package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"vaul-go/internal/vault"
)

const keySize = 32 // AES-256

// AESGCMCipher implements vault.Cipher using AES-256-GCM under a single
// process-wide key. Each Encrypt draws a fresh random nonce, so identical
// plaintexts produce different tokens. A token is
// base64(nonce || ciphertext || tag).
//
// The key is read-only after construction; the cipher is safe for
// concurrent use without coordination.
type AESGCMCipher struct {
	aead cipher.AEAD
}

var _ vault.Cipher = (*AESGCMCipher)(nil)

// NewAESGCMCipher builds a cipher from a base64-encoded 32-byte key, the
// form the key takes in configuration. An absent or malformed key is a
// construction error; callers treat it as fatal at startup.
func NewAESGCMCipher(encodedKey string) (*AESGCMCipher, error) {
	if encodedKey == "" {
		return nil, fmt.Errorf("cipher key is not configured")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding cipher key: %w", err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("cipher key must be %d bytes, got %d", keySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing GCM: %w", err)
	}
	return &AESGCMCipher{aead: aead}, nil
}

// GenerateKey produces a new random key in the encoded form NewAESGCMCipher
// accepts. Used by `vaul config init`.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generating cipher key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *AESGCMCipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	// Seal appends ciphertext to nonce, producing nonce || ciphertext || tag.
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token. Any malformed, truncated, tampered, or wrong-key
// token fails with an error wrapping vault.ErrDecryption.
func (c *AESGCMCipher) Decrypt(token string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decoding token: %w", vault.ErrDecryption)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("token too short: %w", vault.ErrDecryption)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("opening token: %w", vault.ErrDecryption)
	}
	return plaintext, nil
}
