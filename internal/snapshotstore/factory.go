package snapshotstore

import (
	"context"
	"fmt"

	"vaul-go/internal/config"
)

// NewStoreFromConfig creates a Store based on the snapshot store config
// type. When passphrase is non-empty the store is wrapped so documents are
// encrypted at rest.
func NewStoreFromConfig(cfg config.SnapshotStoreConfig, passphrase string) (Store, error) {
	var store Store
	var err error

	switch cfg.Type {
	case "memory":
		store = NewMemoryStore()
	case "filesystem", "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem snapshot store requires dir to be set")
		}
		store, err = NewFileSystemStore(cfg.Dir)
	case "s3":
		store, err = NewS3Store(context.Background(), cfg)
	default:
		return nil, fmt.Errorf("unknown snapshot store type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if passphrase != "" {
		return NewEncryptedStore(store, passphrase)
	}
	return store, nil
}
