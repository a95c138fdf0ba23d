package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"vaul-go/internal/model"
	"vaul-go/internal/vault"
)

func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	sqlDB, err := OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := sqlDB.Exec(Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	db := NewSQLiteDatabaseFromDB(sqlDB)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func testCredential(id, ownerID string, createdAt time.Time) *model.Credential {
	return &model.Credential{
		ID:         id,
		OwnerID:    ownerID,
		SiteName:   "Example " + id,
		SiteURL:    "https://example.com/" + id,
		Username:   "user-" + id,
		Ciphertext: "token-" + id,
		Category:   model.CategoryOther,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestSQLiteDatabase_CredentialRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	cred := testCredential("c1", "alice", now)
	cred.Notes = "some notes"

	if err := db.CreateCredential(cred); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	got, err := db.GetCredential("c1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetCredential() = nil, want record")
	}
	if got.OwnerID != "alice" || got.SiteName != cred.SiteName || got.Ciphertext != cred.Ciphertext {
		t.Errorf("GetCredential() = %+v, want fields of %+v", got, cred)
	}
	if got.Category != model.CategoryOther {
		t.Errorf("Category = %q, want %q", got.Category, model.CategoryOther)
	}
	if got.Notes != "some notes" {
		t.Errorf("Notes = %q, want %q", got.Notes, "some notes")
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
}

func TestSQLiteDatabase_GetCredential_NotFound(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	got, err := db.GetCredential("missing")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetCredential() = %+v, want nil for missing id", got)
	}
}

func TestSQLiteDatabase_UpdateCredential(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	now := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	cred := testCredential("c1", "alice", now)
	if err := db.CreateCredential(cred); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	cred.SiteName = "Renamed"
	cred.Ciphertext = "new-token"
	cred.UpdatedAt = now.Add(time.Hour)
	if err := db.UpdateCredential(cred); err != nil {
		t.Fatalf("UpdateCredential() error = %v", err)
	}

	got, err := db.GetCredential("c1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if got.SiteName != "Renamed" || got.Ciphertext != "new-token" {
		t.Errorf("after update got %+v", got)
	}
	if !got.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now.Add(time.Hour))
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt changed to %v", got.CreatedAt)
	}
}

func TestSQLiteDatabase_UpdateCredential_NotFound(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	cred := testCredential("missing", "alice", time.Now())
	if err := db.UpdateCredential(cred); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("UpdateCredential() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_DeleteCredential(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	cred := testCredential("c1", "alice", time.Now())
	if err := db.CreateCredential(cred); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	if err := db.DeleteCredential("c1"); err != nil {
		t.Fatalf("DeleteCredential() error = %v", err)
	}
	got, err := db.GetCredential("c1")
	if err != nil {
		t.Fatalf("GetCredential() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetCredential() = %+v after delete, want nil", got)
	}

	if err := db.DeleteCredential("c1"); !errors.Is(err, vault.ErrNotFound) {
		t.Errorf("second DeleteCredential() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_ListCredentials_Ordering(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		cred := testCredential(fmt.Sprintf("c%d", i), "alice", base.Add(time.Duration(i)*time.Minute))
		if err := db.CreateCredential(cred); err != nil {
			t.Fatalf("CreateCredential() error = %v", err)
		}
	}

	got, err := db.ListCredentials("alice", vault.Filter{}, 10, 0)
	if err != nil {
		t.Fatalf("ListCredentials() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, wantID := range []string{"c2", "c1", "c0"} {
		if got[i].ID != wantID {
			t.Errorf("got[%d].ID = %q, want %q (newest first)", i, got[i].ID, wantID)
		}
	}
}

func TestSQLiteDatabase_ListCredentials_LimitOffset(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		cred := testCredential(fmt.Sprintf("c%d", i), "alice", base.Add(time.Duration(i)*time.Minute))
		if err := db.CreateCredential(cred); err != nil {
			t.Fatalf("CreateCredential() error = %v", err)
		}
	}

	got, err := db.ListCredentials("alice", vault.Filter{}, 2, 2)
	if err != nil {
		t.Fatalf("ListCredentials() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "c2" || got[1].ID != "c1" {
		t.Errorf("page = %q, %q; want c2, c1", got[0].ID, got[1].ID)
	}
}

func TestSQLiteDatabase_Filter(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	creds := []*model.Credential{
		{ID: "c1", OwnerID: "alice", SiteName: "GitHub", SiteURL: "https://github.com", Username: "alice-dev", Ciphertext: "t1", Category: model.CategoryWork, CreatedAt: base, UpdatedAt: base},
		{ID: "c2", OwnerID: "alice", SiteName: "Bank", SiteURL: "https://bank.example", Username: "alice", Ciphertext: "t2", Category: model.CategoryFinance, CreatedAt: base, UpdatedAt: base},
		{ID: "c3", OwnerID: "alice", SiteName: "100% Discount", SiteURL: "https://deals.example", Username: "alice", Ciphertext: "t3", Category: model.CategoryShopping, CreatedAt: base, UpdatedAt: base},
		{ID: "c4", OwnerID: "bob", SiteName: "GitHub", SiteURL: "https://github.com", Username: "bob", Ciphertext: "t4", Category: model.CategoryWork, CreatedAt: base, UpdatedAt: base},
	}
	for _, c := range creds {
		if err := db.CreateCredential(c); err != nil {
			t.Fatalf("CreateCredential() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		owner  string
		filter vault.Filter
		want   []string
	}{
		{name: "owner scoped", owner: "alice", filter: vault.Filter{}, want: []string{"c1", "c2", "c3"}},
		{name: "query matches site name case-insensitively", owner: "alice", filter: vault.Filter{Query: "github"}, want: []string{"c1"}},
		{name: "query matches site url", owner: "alice", filter: vault.Filter{Query: "bank.example"}, want: []string{"c2"}},
		{name: "query matches username", owner: "alice", filter: vault.Filter{Query: "alice-dev"}, want: []string{"c1"}},
		{name: "like wildcards are literal", owner: "alice", filter: vault.Filter{Query: "100%"}, want: []string{"c3"}},
		{name: "underscore is literal", owner: "alice", filter: vault.Filter{Query: "a_b"}, want: nil},
		{name: "category filter", owner: "alice", filter: vault.Filter{Category: model.CategoryFinance}, want: []string{"c2"}},
		{name: "query and category combined", owner: "alice", filter: vault.Filter{Query: "github", Category: model.CategoryFinance}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := db.ListCredentials(tt.owner, tt.filter, 100, 0)
			if err != nil {
				t.Fatalf("ListCredentials() error = %v", err)
			}
			ids := make(map[string]bool, len(got))
			for _, c := range got {
				ids[c.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records %v, want ids %v", len(got), ids, tt.want)
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("result %v missing id %q", ids, id)
				}
			}

			count, err := db.CountCredentials(tt.owner, tt.filter)
			if err != nil {
				t.Fatalf("CountCredentials() error = %v", err)
			}
			if count != len(tt.want) {
				t.Errorf("CountCredentials() = %d, want %d", count, len(tt.want))
			}
		})
	}
}

func TestSQLiteDatabase_AllCredentials(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i, owner := range []string{"alice", "alice", "bob"} {
		cred := testCredential(fmt.Sprintf("c%d", i), owner, base.Add(time.Duration(i)*time.Minute))
		if err := db.CreateCredential(cred); err != nil {
			t.Fatalf("CreateCredential() error = %v", err)
		}
	}

	got, err := db.AllCredentials("alice")
	if err != nil {
		t.Fatalf("AllCredentials() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c0" {
		t.Errorf("order = %q, %q; want c1, c0", got[0].ID, got[1].ID)
	}
}

func TestSQLiteDatabase_FindCredentialByFields(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	cred := testCredential("c1", "alice", base)
	if err := db.CreateCredential(cred); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	got, err := db.FindCredentialByFields("alice", cred.SiteName, cred.SiteURL, cred.Username)
	if err != nil {
		t.Fatalf("FindCredentialByFields() error = %v", err)
	}
	if got == nil || got.ID != "c1" {
		t.Errorf("FindCredentialByFields() = %+v, want c1", got)
	}

	// Same fields, different owner: no match.
	got, err = db.FindCredentialByFields("bob", cred.SiteName, cred.SiteURL, cred.Username)
	if err != nil {
		t.Fatalf("FindCredentialByFields() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindCredentialByFields() = %+v for wrong owner, want nil", got)
	}

	// One field off: no match.
	got, err = db.FindCredentialByFields("alice", cred.SiteName, cred.SiteURL, "other-user")
	if err != nil {
		t.Fatalf("FindCredentialByFields() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindCredentialByFields() = %+v for different username, want nil", got)
	}
}

func TestSQLiteDatabase_QueryDisclosures(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	base := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d := &model.Disclosure{
			ID:           fmt.Sprintf("d%d", i),
			OwnerID:      "alice",
			CredentialID: "c1",
			RevealedAt:   base.AddDate(0, 0, i),
			SourceIP:     "198.51.100.1",
			ClientAgent:  "test-agent",
		}
		if err := db.CreateDisclosure(d); err != nil {
			t.Fatalf("CreateDisclosure() error = %v", err)
		}
	}
	other := &model.Disclosure{ID: "dx", OwnerID: "bob", CredentialID: "c2", RevealedAt: base}
	if err := db.CreateDisclosure(other); err != nil {
		t.Fatalf("CreateDisclosure() error = %v", err)
	}

	day := func(offset int) *time.Time {
		ts := base.AddDate(0, 0, offset)
		return &ts
	}

	tests := []struct {
		name  string
		start *time.Time
		end   *time.Time
		want  []string
	}{
		{name: "no bounds", want: []string{"d2", "d1", "d0"}},
		{name: "start bound", start: day(1), want: []string{"d2", "d1"}},
		{name: "end bound", end: day(1), want: []string{"d1", "d0"}},
		{name: "both bounds", start: day(1), end: day(1), want: []string{"d1"}},
		{name: "empty window", start: day(5), end: day(9), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := db.QueryDisclosures("alice", tt.start, tt.end)
			if err != nil {
				t.Fatalf("QueryDisclosures() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, wantID := range tt.want {
				if got[i].ID != wantID {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, wantID)
				}
			}
		})
	}
}

func TestSQLiteDatabase_QueryDisclosures_MixedOffsets(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	// Same instants expressed in different zones must land in the same
	// order and windows as their UTC equivalents.
	est := time.FixedZone("EST", -5*60*60)
	cest := time.FixedZone("CEST", 2*60*60)
	events := []*model.Disclosure{
		{ID: "d0", OwnerID: "alice", CredentialID: "c1", RevealedAt: time.Date(2024, 1, 15, 15, 0, 0, 0, est)},   // 20:00 UTC
		{ID: "d1", OwnerID: "alice", CredentialID: "c1", RevealedAt: time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)},
		{ID: "d2", OwnerID: "alice", CredentialID: "c1", RevealedAt: time.Date(2024, 1, 16, 0, 0, 0, 0, cest)},   // 22:00 UTC
	}
	for _, d := range events {
		if err := db.CreateDisclosure(d); err != nil {
			t.Fatalf("CreateDisclosure() error = %v", err)
		}
	}

	start := time.Date(2024, 1, 15, 20, 30, 0, 0, time.UTC)
	got, err := db.QueryDisclosures("alice", &start, nil)
	if err != nil {
		t.Fatalf("QueryDisclosures() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 events at or after 20:30 UTC", len(got))
	}
	if got[0].ID != "d2" || got[1].ID != "d1" {
		t.Errorf("order = %q, %q; want d2, d1", got[0].ID, got[1].ID)
	}

	// A bound in a non-UTC zone selects the same instants.
	localStart := start.In(est)
	got, err = db.QueryDisclosures("alice", &localStart, nil)
	if err != nil {
		t.Fatalf("QueryDisclosures() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d with EST bound, want 2", len(got))
	}
}

func TestEscapeLike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "100%", want: `100\%`},
		{in: "a_b", want: `a\_b`},
		{in: `c:\dir`, want: `c:\\dir`},
	}

	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
