// Package snapshotstore provides destinations for exported snapshot
// documents. Snapshots carry plaintext secrets, so stores can be wrapped
// with passphrase encryption (see EncryptedStore).
package snapshotstore

import "io"

// Store persists snapshot documents by name.
type Store interface {
	// Put stores the document read from r under the given name,
	// overwriting any previous document with that name.
	Put(name string, r io.Reader) error

	// Get retrieves the named document and writes it to w.
	Get(name string, w io.Writer) error
}
