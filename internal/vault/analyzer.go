package vault

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// ScanReport lists the ids of problematic credentials found by Scan.
type ScanReport struct {
	WeakIDs      []string
	DuplicateIDs []string
}

// Scan performs a single read-only pass over all of the owner's credentials,
// decrypting each secret in memory, and flags weak and reused secrets.
//
// A secret is weak if it is shorter than 8 characters, consists entirely of
// digits, or consists entirely of letters. Duplicates are found by mapping
// each plaintext to the first record seen with it; on a repeat, both records
// are flagged.
//
// A record whose token fails to decrypt is skipped entirely — a single bad
// record never aborts the scan. Results are recomputed on every call;
// nothing is cached.
func (s *Service) Scan(ownerID string) (*ScanReport, error) {
	creds, err := s.db.AllCredentials(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing credentials for scan: %w", err)
	}

	report := &ScanReport{}
	firstSeen := make(map[string]string) // plaintext -> first record id
	flagged := make(map[string]bool)     // ids already in the duplicate set
	skipped := 0

	for _, cred := range creds {
		plaintext, err := s.cipher.Decrypt(cred.Ciphertext)
		if err != nil {
			if errors.Is(err, ErrDecryption) {
				skipped++
				continue
			}
			return nil, fmt.Errorf("scanning credential %s: %w", cred.ID, err)
		}
		secret := string(plaintext)

		if isWeakSecret(secret) {
			report.WeakIDs = append(report.WeakIDs, cred.ID)
		}

		if firstID, ok := firstSeen[secret]; ok {
			if !flagged[firstID] {
				report.DuplicateIDs = append(report.DuplicateIDs, firstID)
				flagged[firstID] = true
			}
			if !flagged[cred.ID] {
				report.DuplicateIDs = append(report.DuplicateIDs, cred.ID)
				flagged[cred.ID] = true
			}
		} else {
			firstSeen[secret] = cred.ID
		}
	}

	if skipped > 0 {
		s.logger.Warn("scan skipped undecryptable records", "count", skipped)
	}
	s.logger.Info("scan complete",
		"scanned", len(creds)-skipped, "weak", len(report.WeakIDs), "duplicates", len(report.DuplicateIDs))
	return report, nil
}

// isWeakSecret applies the weakness rules: too short, all digits, or all
// letters. Mixed-case alphabetic still counts as weak; mixed alphanumeric of
// length >= 8 does not.
func isWeakSecret(secret string) bool {
	if utf8.RuneCountInString(secret) < 8 {
		return true
	}

	allDigits := true
	allLetters := true
	for _, r := range secret {
		if !unicode.IsDigit(r) {
			allDigits = false
		}
		if !unicode.IsLetter(r) {
			allLetters = false
		}
	}
	return allDigits || allLetters
}
