package vault

import (
	"time"

	"vaul-go/internal/model"
)

// Filter restricts a credential listing. A non-empty Query matches as a
// case-insensitive substring against site name, site URL, and username (OR
// semantics); a non-empty Category additionally requires an exact match.
type Filter struct {
	Query    string
	Category model.Category
}

// Database provides metadata storage for credentials and disclosure events.
// All listing methods return records in the store's default order:
// newest first (creation time descending, id descending as tiebreak).
type Database interface {
	// Credential operations

	// CreateCredential persists a new credential record.
	CreateCredential(cred *model.Credential) error

	// GetCredential returns the credential with the given id, or nil if no
	// such record exists. Ownership is not checked here; that is the
	// service's responsibility.
	GetCredential(id string) (*model.Credential, error)

	// UpdateCredential overwrites all mutable fields of the stored record
	// identified by cred.ID. The write is atomic: a reader never observes a
	// partially-updated record.
	UpdateCredential(cred *model.Credential) error

	// DeleteCredential removes the record with the given id.
	DeleteCredential(id string) error

	// ListCredentials returns a page of the owner's credentials matching the
	// filter, in default order.
	ListCredentials(ownerID string, filter Filter, limit, offset int) ([]*model.Credential, error)

	// CountCredentials returns how many of the owner's credentials match the
	// filter.
	CountCredentials(ownerID string, filter Filter) (int, error)

	// AllCredentials returns every credential owned by ownerID, in default
	// order.
	AllCredentials(ownerID string) ([]*model.Credential, error)

	// FindCredentialByFields returns the owner's credential with an exact
	// match on (site name, site URL, username), or nil if none exists.
	FindCredentialByFields(ownerID, siteName, siteURL, username string) (*model.Credential, error)

	// Disclosure operations

	// CreateDisclosure appends one disclosure event. Events are append-only:
	// there are no update or delete operations.
	CreateDisclosure(d *model.Disclosure) error

	// QueryDisclosures returns the owner's disclosure events, most recent
	// first. Nil bounds mean unbounded; non-nil bounds are inclusive.
	QueryDisclosures(ownerID string, start, end *time.Time) ([]*model.Disclosure, error)

	// Close releases the underlying storage.
	Close() error
}
