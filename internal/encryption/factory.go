package encryption

import (
	"fmt"

	"vaul-go/internal/config"
	"vaul-go/internal/vault"
)

// NewCipherFromConfig creates a Cipher based on the configuration type.
func NewCipherFromConfig(cfg config.CipherConfig) (vault.Cipher, error) {
	switch cfg.Type {
	case "aesgcm", "":
		return NewAESGCMCipher(cfg.Key)
	case "test":
		return NewTestCipher(), nil
	default:
		return nil, fmt.Errorf("unknown cipher type: %q", cfg.Type)
	}
}
