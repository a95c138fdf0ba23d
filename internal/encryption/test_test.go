package encryption

import (
	"errors"
	"testing"

	"vaul-go/internal/config"
	"vaul-go/internal/vault"
)

func TestTestCipher_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewTestCipher()
	token, err := c.Encrypt([]byte("plain"))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if token == "plain" {
		t.Error("token is identical to plaintext")
	}

	plaintext, err := c.Decrypt(token)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(plaintext) != "plain" {
		t.Errorf("round-trip = %q, want %q", plaintext, "plain")
	}
}

func TestTestCipher_RejectsForeignTokens(t *testing.T) {
	t.Parallel()

	c := NewTestCipher()
	if _, err := c.Decrypt("no-prefix-here"); !errors.Is(err, vault.ErrDecryption) {
		t.Errorf("Decrypt() error = %v, want ErrDecryption", err)
	}
}

func TestNewCipherFromConfig(t *testing.T) {
	t.Parallel()

	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}

	tests := []struct {
		name    string
		cfg     config.CipherConfig
		wantErr bool
	}{
		{name: "default type is aesgcm", cfg: config.CipherConfig{Key: key}},
		{name: "explicit aesgcm", cfg: config.CipherConfig{Type: "aesgcm", Key: key}},
		{name: "test cipher needs no key", cfg: config.CipherConfig{Type: "test"}},
		{name: "aesgcm without key fails", cfg: config.CipherConfig{Type: "aesgcm"}, wantErr: true},
		{name: "unknown type fails", cfg: config.CipherConfig{Type: "rot13", Key: key}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewCipherFromConfig(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCipherFromConfig() error = %v", err)
			}
			if c == nil {
				t.Error("NewCipherFromConfig() returned nil cipher")
			}
		})
	}
}
