package vault

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"vaul-go/internal/model"
)

// maxExportAgentLen caps the client agent column in delimited exports.
// Stored events keep the full text; truncation happens only here.
const maxExportAgentLen = 500

const auditDateLayout = "2006-01-02"

// deletedEntryLabel stands in for credentials that were removed after being
// revealed. The disclosure itself is permanent history.
const deletedEntryLabel = "(deleted entry)"

// QueryAuditLog returns the owner's disclosure events, most recent first.
// startDate and endDate are inclusive calendar-day bounds ("2006-01-02")
// interpreted in the reporting time zone; a date that fails to parse is
// treated as no bound, not an error.
func (s *Service) QueryAuditLog(ownerID, startDate, endDate string) ([]*model.Disclosure, error) {
	loc := s.clock.Now().Location()

	var start, end *time.Time
	if t, err := time.ParseInLocation(auditDateLayout, startDate, loc); err == nil {
		dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		start = &dayStart
	}
	if t, err := time.ParseInLocation(auditDateLayout, endDate, loc); err == nil {
		dayEnd := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999000, loc)
		end = &dayEnd
	}

	events, err := s.db.QueryDisclosures(ownerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying disclosures: %w", err)
	}
	return events, nil
}

// ExportAuditLog writes the given disclosure events to w as CSV rows with a
// fixed column order: entry label ("site (username)"), owner display name,
// reveal time as local "2006-01-02 15:04:05", source IP or empty, and client
// agent truncated to 500 characters or empty.
func (s *Service) ExportAuditLog(w io.Writer, ownerName string, events []*model.Disclosure) error {
	cw := csv.NewWriter(w)

	for _, ev := range events {
		label := deletedEntryLabel
		cred, err := s.db.GetCredential(ev.CredentialID)
		if err != nil {
			return fmt.Errorf("resolving credential %s: %w", ev.CredentialID, err)
		}
		if cred != nil {
			label = fmt.Sprintf("%s (%s)", cred.SiteName, cred.Username)
		}

		agent := truncateRunes(ev.ClientAgent, maxExportAgentLen)

		row := []string{
			label,
			ownerName,
			ev.RevealedAt.Local().Format("2006-01-02 15:04:05"),
			ev.SourceIP,
			agent,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing audit row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing audit export: %w", err)
	}
	return nil
}
