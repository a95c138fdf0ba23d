package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"vaul-go/internal/config"
	"vaul-go/internal/database"
	"vaul-go/internal/encryption"
	"vaul-go/internal/model"
	"vaul-go/internal/snapshotstore"
	"vaul-go/internal/vault"
)

// VaulApp is the application layer between the CLI and the vault Service.
// It constructs all dependencies from config, binds every operation to the
// configured owner identity, and manages the DB lifecycle on Close.
//
// The CLI is the authentication boundary here: whoever can read the config
// file (and the cipher key inside it) is the owner it names.
type VaulApp struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	cipher  vault.Cipher
	service *vault.Service
	logFile *os.File
}

// NewVaulApp creates a fully wired VaulApp from the given config.
// operation identifies the CLI command being run (e.g. "Add", "Reveal").
// A missing or malformed cipher key fails here, before any operation runs.
// The caller must call Close when done.
func NewVaulApp(cfg *config.Config, operation string) (*VaulApp, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run `vaul db migrate`): %w", err)
	}

	cipher, err := encryption.NewCipherFromConfig(cfg.Cipher)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("op", operation)

	svc := vault.NewService(db, cipher, &slogAdapter{l: logger}, vault.RealClock{}, vault.UUIDGenerator{})

	return &VaulApp{
		cfg:     cfg,
		db:      db,
		cipher:  cipher,
		service: svc,
		logFile: logFile,
	}, nil
}

// Close releases the database and the log file.
func (a *VaulApp) Close() error {
	var firstErr error
	if err := a.db.Close(); err != nil {
		firstErr = err
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OwnerName returns the configured display name, falling back to the owner id.
func (a *VaulApp) OwnerName() string {
	if a.cfg.OwnerName != "" {
		return a.cfg.OwnerName
	}
	return a.cfg.OwnerID
}

// Add validates and stores a new credential for the configured owner.
func (a *VaulApp) Add(in vault.CredentialInput) (string, error) {
	return a.service.Create(a.cfg.OwnerID, in)
}

// Get returns one of the owner's credentials with the secret still encrypted.
func (a *VaulApp) Get(id string) (*model.Credential, error) {
	return a.service.Get(id, a.cfg.OwnerID)
}

// Update overwrites the supplied non-empty fields of the owner's credential.
func (a *VaulApp) Update(id string, in vault.UpdateInput) error {
	return a.service.Update(id, a.cfg.OwnerID, in)
}

// Delete removes the owner's credential.
func (a *VaulApp) Delete(id string) error {
	return a.service.Delete(id, a.cfg.OwnerID)
}

// List returns one page of the owner's credentials. rawPage follows the
// listing normalization rules: junk becomes page 1, past-the-end becomes the
// last page.
func (a *VaulApp) List(query, category, rawPage string) (*vault.Page, error) {
	filter := vault.Filter{
		Query:    query,
		Category: model.Category(category),
	}
	if category != "" && !filter.Category.Valid() {
		return nil, &vault.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}
	return a.service.List(a.cfg.OwnerID, filter, rawPage)
}

// Reveal decrypts one secret for display, recording a disclosure event.
func (a *VaulApp) Reveal(id, sourceIP, clientAgent string) (string, error) {
	return a.service.Reveal(id, a.cfg.OwnerID, sourceIP, clientAgent)
}

// Scan analyzes the owner's secrets for weak and reused values.
func (a *VaulApp) Scan() (*vault.ScanReport, error) {
	return a.service.Scan(a.cfg.OwnerID)
}

// QueryAuditLog returns the owner's disclosure history, newest first.
func (a *VaulApp) QueryAuditLog(startDate, endDate string) ([]*model.Disclosure, error) {
	return a.service.QueryAuditLog(a.cfg.OwnerID, startDate, endDate)
}

// ExportAuditLog writes the owner's disclosure history to w as CSV.
func (a *VaulApp) ExportAuditLog(w io.Writer, startDate, endDate string) error {
	events, err := a.service.QueryAuditLog(a.cfg.OwnerID, startDate, endDate)
	if err != nil {
		return err
	}
	return a.service.ExportAuditLog(w, a.OwnerName(), events)
}

// ExportSnapshot builds a decrypted snapshot of the owner's credentials and
// pushes it to the configured snapshot store. When passphrase is non-empty
// the stored document is age-encrypted. Returns the stored document name.
func (a *VaulApp) ExportSnapshot(passphrase string) (string, error) {
	snap, err := a.service.Export(a.cfg.OwnerID)
	if err != nil {
		return "", err
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	store, err := snapshotstore.NewStoreFromConfig(a.cfg.SnapshotStore, passphrase)
	if err != nil {
		return "", fmt.Errorf("creating snapshot store: %w", err)
	}

	name := fmt.Sprintf("vaul-%s.json", snap.ExportedAt.UTC().Format("20060102T150405Z"))
	if passphrase != "" {
		name += ".age"
	}
	if err := store.Put(name, bytes.NewReader(payload)); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}
	return name, nil
}

// WriteSnapshot builds a decrypted snapshot and writes it to w as JSON.
// Used by `vaul export --output -` and file output.
func (a *VaulApp) WriteSnapshot(w io.Writer) error {
	snap, err := a.service.Export(a.cfg.OwnerID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return nil
}

// ImportSnapshot fetches a named snapshot from the configured store and
// merges it into the owner's records.
func (a *VaulApp) ImportSnapshot(name, passphrase string) (vault.ImportResult, error) {
	store, err := snapshotstore.NewStoreFromConfig(a.cfg.SnapshotStore, passphrase)
	if err != nil {
		return vault.ImportResult{}, fmt.Errorf("creating snapshot store: %w", err)
	}

	var buf bytes.Buffer
	if err := store.Get(name, &buf); err != nil {
		return vault.ImportResult{}, fmt.Errorf("fetching snapshot: %w", err)
	}
	return a.service.Import(a.cfg.OwnerID, buf.Bytes())
}

// ImportPayload merges a raw snapshot payload (e.g. a local file) into the
// owner's records.
func (a *VaulApp) ImportPayload(payload []byte) (vault.ImportResult, error) {
	return a.service.Import(a.cfg.OwnerID, payload)
}
