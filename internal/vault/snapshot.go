package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vaul-go/internal/model"
)

// Snapshot is a portable, decrypted representation of an owner's credential
// set, used for export and import. Entries are ordered by creation time
// descending.
type Snapshot struct {
	ExportedAt   time.Time       `json:"export_timestamp"`
	TotalEntries int             `json:"total_entries"`
	Entries      []SnapshotEntry `json:"entries"`
}

// SnapshotEntry is one credential in a snapshot, secret in plaintext.
type SnapshotEntry struct {
	SiteName  string    `json:"site_name"`
	SiteURL   string    `json:"site_url"`
	Username  string    `json:"username"`
	Secret    string    `json:"secret_plaintext"`
	Category  string    `json:"category,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ImportResult reports the outcome of an import: how many entries were
// created and how many were skipped.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Export builds a snapshot of the owner's credentials with secrets
// decrypted. A record whose token fails to decrypt is silently omitted
// rather than failing the whole export.
func (s *Service) Export(ownerID string) (*Snapshot, error) {
	creds, err := s.db.AllCredentials(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing credentials for export: %w", err)
	}

	snap := &Snapshot{
		ExportedAt: s.clock.Now(),
		Entries:    make([]SnapshotEntry, 0, len(creds)),
	}
	omitted := 0

	for _, cred := range creds {
		plaintext, err := s.cipher.Decrypt(cred.Ciphertext)
		if err != nil {
			if errors.Is(err, ErrDecryption) {
				omitted++
				continue
			}
			return nil, fmt.Errorf("exporting credential %s: %w", cred.ID, err)
		}
		snap.Entries = append(snap.Entries, SnapshotEntry{
			SiteName:  cred.SiteName,
			SiteURL:   cred.SiteURL,
			Username:  cred.Username,
			Secret:    string(plaintext),
			Category:  string(cred.Category),
			Notes:     cred.Notes,
			CreatedAt: cred.CreatedAt,
		})
	}

	snap.TotalEntries = len(snap.Entries)
	if omitted > 0 {
		s.logger.Warn("export omitted undecryptable records", "count", omitted)
	}
	s.logger.Info("snapshot exported", "entries", snap.TotalEntries)
	return snap, nil
}

// Import merges a snapshot payload into the owner's store. A payload that
// does not parse, or that lacks an "entries" field, fails the whole call
// with ErrImportFormat before any entry is processed. After that, each
// entry is handled independently: entries with missing required fields and
// entries that duplicate an existing record on (site name, site URL,
// username) are skipped; everything else is encrypted and created. A
// failure on one entry never aborts the rest, and nothing already created
// is rolled back.
func (s *Service) Import(ownerID string, payload []byte) (ImportResult, error) {
	var res ImportResult

	var raw struct {
		Entries *[]SnapshotEntry `json:"entries"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return res, fmt.Errorf("parsing snapshot: %w", ErrImportFormat)
	}
	if raw.Entries == nil {
		return res, fmt.Errorf("snapshot has no entries field: %w", ErrImportFormat)
	}

	for _, entry := range *raw.Entries {
		if s.importOne(ownerID, entry) {
			res.Imported++
		} else {
			res.Skipped++
		}
	}

	s.logger.Info("snapshot imported", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

// importOne processes a single snapshot entry and reports whether a record
// was created. Every failure path counts as a skip.
func (s *Service) importOne(ownerID string, entry SnapshotEntry) bool {
	siteName := strings.TrimSpace(entry.SiteName)
	siteURL := strings.TrimSpace(entry.SiteURL)
	username := strings.TrimSpace(entry.Username)

	if siteName == "" || siteURL == "" || username == "" || entry.Secret == "" {
		return false
	}
	if utf8.RuneCountInString(siteURL) > maxSiteURLLen {
		return false
	}

	existing, err := s.db.FindCredentialByFields(ownerID, siteName, siteURL, username)
	if err != nil {
		s.logger.Warn("import duplicate check failed", "site", siteName, "error", err)
		return false
	}
	if existing != nil {
		return false
	}

	category := model.Category(entry.Category)
	if !category.Valid() {
		category = model.CategoryOther
	}
	notes := truncateRunes(entry.Notes, maxNotesLen)

	token, err := s.cipher.Encrypt([]byte(entry.Secret))
	if err != nil {
		s.logger.Warn("import failed to encrypt entry", "site", siteName, "error", err)
		return false
	}

	now := s.clock.Now()
	cred := &model.Credential{
		ID:         s.idgen.New(),
		OwnerID:    ownerID,
		SiteName:   siteName,
		SiteURL:    siteURL,
		Username:   username,
		Ciphertext: token,
		Category:   category,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.CreateCredential(cred); err != nil {
		s.logger.Warn("import failed to create entry", "site", siteName, "error", err)
		return false
	}
	return true
}
