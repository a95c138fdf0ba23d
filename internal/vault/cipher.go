package vault

// Cipher performs authenticated symmetric encryption of secret strings under
// one process-wide key loaded at startup. The scheme must be non-deterministic:
// encrypting identical plaintext twice yields different tokens, so ciphertext
// equality cannot leak plaintext equality.
//
// Decrypt fails with an error wrapping ErrDecryption when the token is
// malformed, was produced under a different key, or fails its integrity
// check. It never panics on bad input.
type Cipher interface {
	Encrypt(plaintext []byte) (token string, err error)
	Decrypt(token string) (plaintext []byte, err error)
}
