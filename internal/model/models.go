package model

import "time"

// Category classifies a credential entry. The set is fixed; anything
// unrecognized is normalized to CategoryOther at the edges.
type Category string

const (
	CategoryWork          Category = "work"
	CategoryPersonal      Category = "personal"
	CategorySocial        Category = "social"
	CategoryFinance       Category = "finance"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryWork,
	CategoryPersonal,
	CategorySocial,
	CategoryFinance,
	CategoryShopping,
	CategoryEntertainment,
	CategoryEducation,
	CategoryOther,
}

// Valid reports whether c is one of the fixed category values.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Credential represents one stored secret entry. The secret itself is only
// ever persisted as Ciphertext; plaintext exists transiently in memory
// during encrypt/decrypt/analysis.
type Credential struct {
	ID         string // UUID
	OwnerID    string // Identity of the exclusive owner; immutable
	SiteName   string
	SiteURL    string
	Username   string
	Ciphertext string // Authenticated-encryption token, never plaintext
	Category   Category
	Notes      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Disclosure records one successful decrypt-for-display of a credential.
// Disclosures are append-only audit history: never mutated, never deleted.
type Disclosure struct {
	ID           string // UUID
	OwnerID      string
	CredentialID string
	RevealedAt   time.Time
	SourceIP     string // optional
	ClientAgent  string // optional, free text; truncated only at export
}
