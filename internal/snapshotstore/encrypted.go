package snapshotstore

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"
)

// EncryptedStore wraps another Store and encrypts documents with an age
// scrypt passphrase before they leave the process. Exported snapshots
// contain plaintext secrets, so anything written to a shared destination
// should go through this wrapper.
type EncryptedStore struct {
	inner      Store
	passphrase string
}

var _ Store = (*EncryptedStore)(nil)

// NewEncryptedStore wraps inner with passphrase encryption.
func NewEncryptedStore(inner Store, passphrase string) (*EncryptedStore, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("snapshot passphrase must not be empty")
	}
	return &EncryptedStore{inner: inner, passphrase: passphrase}, nil
}

func (s *EncryptedStore) Put(name string, r io.Reader) error {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}

	return s.inner.Put(name, &buf)
}

func (s *EncryptedStore) Get(name string, w io.Writer) error {
	var buf bytes.Buffer
	if err := s.inner.Get(name, &buf); err != nil {
		return err
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt identity: %w", err)
	}

	dec, err := age.Decrypt(&buf, identity)
	if err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if _, err := io.Copy(w, dec); err != nil {
		return fmt.Errorf("reading decrypted snapshot: %w", err)
	}
	return nil
}
