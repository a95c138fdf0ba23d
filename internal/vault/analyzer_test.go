package vault_test

import (
	"testing"
	"time"

	"vaul-go/internal/model"
)

func sorted(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func TestService_Scan_WeakSecrets(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.SiteName = "Weak"
	in.Secret = "password"
	weakID := mustCreate(t, svc, ownerAlice, in)

	in = validInput()
	in.SiteName = "Strong"
	in.Secret = "abc123!@"
	strongID := mustCreate(t, svc, ownerAlice, in)

	report, err := svc.Scan(ownerAlice)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	weak := sorted(report.WeakIDs)
	if !weak[weakID] {
		t.Errorf("weak set %v does not contain %q", report.WeakIDs, weakID)
	}
	if weak[strongID] {
		t.Errorf("weak set %v wrongly contains %q", report.WeakIDs, strongID)
	}
}

func TestService_Scan_Duplicates(t *testing.T) {
	t.Parallel()
	svc, _, clock := newTestService(t)

	ids := make([]string, 3)
	for i, secret := range []string{"secret-one", "secret-two", "secret-one"} {
		in := validInput()
		in.SiteName = "Site " + secret
		in.SiteURL = "https://example.com/" + secret
		in.Secret = secret
		ids[i] = mustCreate(t, svc, ownerAlice, in)
		clock.Advance(time.Minute)
	}

	report, err := svc.Scan(ownerAlice)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	dup := sorted(report.DuplicateIDs)
	if len(dup) != 2 {
		t.Fatalf("duplicate set = %v, want exactly 2 ids", report.DuplicateIDs)
	}
	if !dup[ids[0]] || !dup[ids[2]] {
		t.Errorf("duplicate set = %v, want ids %q and %q", report.DuplicateIDs, ids[0], ids[2])
	}
	if dup[ids[1]] {
		t.Errorf("duplicate set %v wrongly contains %q", report.DuplicateIDs, ids[1])
	}
}

func TestService_Scan_DuplicatesIdempotent(t *testing.T) {
	t.Parallel()
	svc, _, clock := newTestService(t)

	// Three records sharing one secret: each id appears once in the set.
	for i := 0; i < 3; i++ {
		in := validInput()
		in.SiteURL = "https://example.com/" + string(rune('a'+i))
		in.Secret = "shared-secret"
		mustCreate(t, svc, ownerAlice, in)
		clock.Advance(time.Minute)
	}

	report, err := svc.Scan(ownerAlice)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(report.DuplicateIDs) != 3 {
		t.Errorf("duplicate set = %v, want 3 distinct ids", report.DuplicateIDs)
	}
	if len(sorted(report.DuplicateIDs)) != len(report.DuplicateIDs) {
		t.Errorf("duplicate set %v contains repeated ids", report.DuplicateIDs)
	}
}

func TestService_Scan_SkipsUndecryptableRecords(t *testing.T) {
	t.Parallel()
	svc, db, clock := newTestService(t)

	in := validInput()
	in.Secret = "password" // weak
	goodID := mustCreate(t, svc, ownerAlice, in)

	bad := &model.Credential{
		ID:         "undecryptable",
		OwnerID:    ownerAlice,
		SiteName:   "Broken",
		SiteURL:    "https://broken.example",
		Username:   "alice",
		Ciphertext: "not-a-valid-token",
		Category:   model.CategoryOther,
		CreatedAt:  clock.Now(),
		UpdatedAt:  clock.Now(),
	}
	if err := db.CreateCredential(bad); err != nil {
		t.Fatalf("CreateCredential() error = %v", err)
	}

	report, err := svc.Scan(ownerAlice)
	if err != nil {
		t.Fatalf("Scan() error = %v, want partial failure to be swallowed", err)
	}

	if sorted(report.WeakIDs)["undecryptable"] || sorted(report.DuplicateIDs)["undecryptable"] {
		t.Error("undecryptable record was analyzed instead of skipped")
	}
	if !sorted(report.WeakIDs)[goodID] {
		t.Errorf("weak set %v does not contain %q", report.WeakIDs, goodID)
	}
}

func TestService_Scan_ScopedToOwner(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.Secret = "password"
	mustCreate(t, svc, ownerBob, in)

	report, err := svc.Scan(ownerAlice)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(report.WeakIDs) != 0 || len(report.DuplicateIDs) != 0 {
		t.Errorf("report = %+v, want empty for owner with no records", report)
	}
}
