package vault

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"vaul-go/internal/model"
)

// PageSize is the fixed number of credentials per listing page.
const PageSize = 12

const (
	maxSiteURLLen = 2048
	maxNotesLen   = 500
)

// Service is the orchestration layer for the credential vault. Every
// operation takes a pre-authenticated owner identity; the service enforces
// ownership before any cipher call but never authenticates callers itself.
type Service struct {
	db     Database
	cipher Cipher
	logger Logger
	clock  Clock
	idgen  IDGenerator
}

// NewService creates a Service with the provided dependencies.
func NewService(db Database, cipher Cipher, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		db:     db,
		cipher: cipher,
		logger: logger,
		clock:  clock,
		idgen:  idgen,
	}
}

// CredentialInput carries the caller-supplied fields for a new credential.
type CredentialInput struct {
	SiteName string
	SiteURL  string
	Username string
	Secret   string
	Category model.Category
	Notes    string
}

// Create validates the input, encrypts the secret, and persists a new
// credential owned by ownerID. Returns the new record's id.
func (s *Service) Create(ownerID string, in CredentialInput) (string, error) {
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.SiteURL = strings.TrimSpace(in.SiteURL)
	in.Username = strings.TrimSpace(in.Username)

	if err := validateFields(in.SiteName, in.SiteURL, in.Username, in.Secret, in.Notes); err != nil {
		return "", err
	}

	category := in.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !category.Valid() {
		return "", &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", category)}
	}

	token, err := s.cipher.Encrypt([]byte(in.Secret))
	if err != nil {
		return "", fmt.Errorf("encrypting secret: %w", err)
	}

	now := s.clock.Now()
	cred := &model.Credential{
		ID:         s.idgen.New(),
		OwnerID:    ownerID,
		SiteName:   in.SiteName,
		SiteURL:    in.SiteURL,
		Username:   in.Username,
		Ciphertext: token,
		Category:   category,
		Notes:      in.Notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.CreateCredential(cred); err != nil {
		return "", fmt.Errorf("persisting credential: %w", err)
	}

	s.logger.Info("credential created", "id", cred.ID, "site", cred.SiteName)
	return cred.ID, nil
}

// Get returns the credential with the given id. Fails with ErrNotFound when
// no such record exists and ErrNotAuthorized when it belongs to another
// owner. The secret stays encrypted; use Reveal to obtain plaintext.
func (s *Service) Get(id, ownerID string) (*model.Credential, error) {
	return s.authorized(id, ownerID)
}

// UpdateInput carries replacement fields for an existing credential. Empty
// string fields leave the stored value unchanged; a non-empty Secret is
// re-encrypted.
type UpdateInput struct {
	SiteName string
	SiteURL  string
	Username string
	Secret   string
	Category model.Category
	Notes    string
}

// Update overwrites the supplied non-empty fields of the owner's credential
// and refreshes its updated-at timestamp.
func (s *Service) Update(id, ownerID string, in UpdateInput) error {
	cred, err := s.authorized(id, ownerID)
	if err != nil {
		return err
	}

	if v := strings.TrimSpace(in.SiteName); v != "" {
		cred.SiteName = v
	}
	if v := strings.TrimSpace(in.SiteURL); v != "" {
		if utf8.RuneCountInString(v) > maxSiteURLLen {
			return &ValidationError{Field: "site_url", Reason: fmt.Sprintf("longer than %d characters", maxSiteURLLen)}
		}
		cred.SiteURL = v
	}
	if v := strings.TrimSpace(in.Username); v != "" {
		cred.Username = v
	}
	if in.Category != "" {
		if !in.Category.Valid() {
			return &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", in.Category)}
		}
		cred.Category = in.Category
	}
	if in.Notes != "" {
		if utf8.RuneCountInString(in.Notes) > maxNotesLen {
			return &ValidationError{Field: "notes", Reason: fmt.Sprintf("longer than %d characters", maxNotesLen)}
		}
		cred.Notes = in.Notes
	}
	if in.Secret != "" {
		token, err := s.cipher.Encrypt([]byte(in.Secret))
		if err != nil {
			return fmt.Errorf("encrypting secret: %w", err)
		}
		cred.Ciphertext = token
	}

	cred.UpdatedAt = s.clock.Now()
	if err := s.db.UpdateCredential(cred); err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}

	s.logger.Info("credential updated", "id", cred.ID)
	return nil
}

// Delete removes the owner's credential. Disclosure events referencing it
// are kept: they are permanent audit history.
func (s *Service) Delete(id, ownerID string) error {
	cred, err := s.authorized(id, ownerID)
	if err != nil {
		return err
	}
	if err := s.db.DeleteCredential(cred.ID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	s.logger.Info("credential deleted", "id", cred.ID)
	return nil
}

// Page is one page of a credential listing.
type Page struct {
	Credentials []*model.Credential
	Number      int // 1-based page number actually returned
	TotalPages  int // always >= 1, even when the listing is empty
	TotalCount  int
}

// List returns one page of the owner's credentials matching the filter,
// newest first. rawPage is normalized: a non-numeric or sub-1 value becomes
// page 1, and a page past the end becomes the last page.
func (s *Service) List(ownerID string, filter Filter, rawPage string) (*Page, error) {
	total, err := s.db.CountCredentials(ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("counting credentials: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(PageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	page, err := strconv.Atoi(strings.TrimSpace(rawPage))
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	creds, err := s.db.ListCredentials(ownerID, filter, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}

	return &Page{
		Credentials: creds,
		Number:      page,
		TotalPages:  totalPages,
		TotalCount:  total,
	}, nil
}

// Reveal decrypts the owner's secret for display and appends one disclosure
// event to the audit trail. The ownership check runs before any cipher call;
// a failed decrypt records no event.
func (s *Service) Reveal(id, ownerID, sourceIP, clientAgent string) (string, error) {
	cred, err := s.authorized(id, ownerID)
	if err != nil {
		return "", err
	}

	plaintext, err := s.cipher.Decrypt(cred.Ciphertext)
	if err != nil {
		s.logger.Warn("reveal failed to decrypt", "id", cred.ID)
		return "", fmt.Errorf("revealing credential %s: %w", cred.ID, err)
	}

	event := &model.Disclosure{
		ID:           s.idgen.New(),
		OwnerID:      ownerID,
		CredentialID: cred.ID,
		RevealedAt:   s.clock.Now(),
		SourceIP:     sourceIP,
		ClientAgent:  clientAgent,
	}
	if err := s.db.CreateDisclosure(event); err != nil {
		return "", fmt.Errorf("recording disclosure: %w", err)
	}

	s.logger.Info("secret revealed", "id", cred.ID)
	return string(plaintext), nil
}

// authorized loads a credential and enforces ownership. Existence is checked
// first; a mismatched owner surfaces ErrNotAuthorized rather than masking
// the record's existence. The calling layer decides what to show.
func (s *Service) authorized(id, ownerID string) (*model.Credential, error) {
	cred, err := s.db.GetCredential(id)
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("credential %s: %w", id, ErrNotFound)
	}
	if cred.OwnerID != ownerID {
		return nil, fmt.Errorf("credential %s: %w", id, ErrNotAuthorized)
	}
	return cred, nil
}

func validateFields(siteName, siteURL, username, secret, notes string) error {
	if siteName == "" {
		return &ValidationError{Field: "site_name", Reason: "must not be empty"}
	}
	if siteURL == "" {
		return &ValidationError{Field: "site_url", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(siteURL) > maxSiteURLLen {
		return &ValidationError{Field: "site_url", Reason: fmt.Sprintf("longer than %d characters", maxSiteURLLen)}
	}
	if username == "" {
		return &ValidationError{Field: "username", Reason: "must not be empty"}
	}
	if secret == "" {
		return &ValidationError{Field: "secret", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(notes) > maxNotesLen {
		return &ValidationError{Field: "notes", Reason: fmt.Sprintf("longer than %d characters", maxNotesLen)}
	}
	return nil
}

// truncateRunes shortens s to at most n characters, never splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
