package encryption

import (
	"fmt"
	"strings"

	"vaul-go/internal/vault"
)

// testPrefix marks tokens produced by TestCipher.
const testPrefix = "VAULENC:"

// TestCipher is a trivially reversible cipher for tests. It prepends a fixed
// prefix so tokens are clearly different from plaintext while requiring no
// crypto and no key material. It is deterministic, which real ciphers must
// not be; tests that assert non-determinism use the real cipher.
type TestCipher struct{}

var _ vault.Cipher = (*TestCipher)(nil)

// NewTestCipher creates a new TestCipher.
func NewTestCipher() *TestCipher {
	return &TestCipher{}
}

func (*TestCipher) Encrypt(plaintext []byte) (string, error) {
	return testPrefix + string(plaintext), nil
}

func (*TestCipher) Decrypt(token string) ([]byte, error) {
	rest, ok := strings.CutPrefix(token, testPrefix)
	if !ok {
		return nil, fmt.Errorf("missing test token prefix: %w", vault.ErrDecryption)
	}
	return []byte(rest), nil
}
