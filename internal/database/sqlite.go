package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"vaul-go/internal/model"
	"vaul-go/internal/vault"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// defaultOrder is the store's default listing order: newest first, with id
// as a stable tiebreak for records created in the same instant.
const defaultOrder = "ORDER BY created_at DESC, id DESC"

// SQLiteDatabase implements the vault.Database interface using SQLite.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

var _ vault.Database = (*SQLiteDatabase)(nil)

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer, and a ":memory:" database exists per
	// connection, so the pool must stay at one connection.
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Credential operations

func (s *SQLiteDatabase) CreateCredential(cred *model.Credential) error {
	const query = `INSERT INTO credentials
		(id, owner_id, site_name, site_url, username, ciphertext, category, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(context.Background(), query,
		cred.ID, cred.OwnerID, cred.SiteName, cred.SiteURL, cred.Username,
		cred.Ciphertext, string(cred.Category), cred.Notes, cred.CreatedAt.UTC(), cred.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) GetCredential(id string) (*model.Credential, error) {
	const query = `SELECT id, owner_id, site_name, site_url, username, ciphertext, category, notes, created_at, updated_at
		FROM credentials WHERE id = ?`
	cred, err := scanCredential(s.db.QueryRowContext(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding credential by id: %w", err)
	}
	return cred, nil
}

func (s *SQLiteDatabase) UpdateCredential(cred *model.Credential) error {
	const query = `UPDATE credentials
		SET site_name = ?, site_url = ?, username = ?, ciphertext = ?, category = ?, notes = ?, updated_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(context.Background(), query,
		cred.SiteName, cred.SiteURL, cred.Username, cred.Ciphertext,
		string(cred.Category), cred.Notes, cred.UpdatedAt.UTC(), cred.ID)
	if err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating credential %s: %w", cred.ID, vault.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) DeleteCredential(id string) error {
	const query = `DELETE FROM credentials WHERE id = ?`
	res, err := s.db.ExecContext(context.Background(), query, id)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting credential %s: %w", id, vault.ErrNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) ListCredentials(ownerID string, filter vault.Filter, limit, offset int) ([]*model.Credential, error) {
	where, args := filterClause(ownerID, filter)
	query := `SELECT id, owner_id, site_name, site_url, username, ciphertext, category, notes, created_at, updated_at
		FROM credentials ` + where + ` ` + defaultOrder + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	return s.queryCredentials(query, args...)
}

func (s *SQLiteDatabase) CountCredentials(ownerID string, filter vault.Filter) (int, error) {
	where, args := filterClause(ownerID, filter)
	query := `SELECT COUNT(*) FROM credentials ` + where

	var count int
	if err := s.db.QueryRowContext(context.Background(), query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting credentials: %w", err)
	}
	return count, nil
}

func (s *SQLiteDatabase) AllCredentials(ownerID string) ([]*model.Credential, error) {
	query := `SELECT id, owner_id, site_name, site_url, username, ciphertext, category, notes, created_at, updated_at
		FROM credentials WHERE owner_id = ? ` + defaultOrder
	return s.queryCredentials(query, ownerID)
}

func (s *SQLiteDatabase) FindCredentialByFields(ownerID, siteName, siteURL, username string) (*model.Credential, error) {
	const query = `SELECT id, owner_id, site_name, site_url, username, ciphertext, category, notes, created_at, updated_at
		FROM credentials
		WHERE owner_id = ? AND site_name = ? AND site_url = ? AND username = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`
	cred, err := scanCredential(s.db.QueryRowContext(context.Background(), query, ownerID, siteName, siteURL, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding credential by fields: %w", err)
	}
	return cred, nil
}

// Disclosure operations

func (s *SQLiteDatabase) CreateDisclosure(d *model.Disclosure) error {
	const query = `INSERT INTO disclosures
		(id, owner_id, credential_id, revealed_at, source_ip, client_agent)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(context.Background(), query,
		d.ID, d.OwnerID, d.CredentialID, d.RevealedAt.UTC(), d.SourceIP, d.ClientAgent)
	if err != nil {
		return fmt.Errorf("inserting disclosure: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) QueryDisclosures(ownerID string, start, end *time.Time) ([]*model.Disclosure, error) {
	query := `SELECT id, owner_id, credential_id, revealed_at, source_ip, client_agent
		FROM disclosures WHERE owner_id = ?`
	args := []any{ownerID}

	// Timestamps are stored and bound in UTC: the driver persists them as
	// strings and SQLite compares those lexicographically, so ordering and
	// range bounds only behave with a uniform offset.
	if start != nil {
		query += ` AND revealed_at >= ?`
		args = append(args, start.UTC())
	}
	if end != nil {
		query += ` AND revealed_at <= ?`
		args = append(args, end.UTC())
	}
	query += ` ORDER BY revealed_at DESC, id DESC`

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying disclosures: %w", err)
	}
	defer rows.Close()

	var events []*model.Disclosure
	for rows.Next() {
		var d model.Disclosure
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.CredentialID, &d.RevealedAt, &d.SourceIP, &d.ClientAgent); err != nil {
			return nil, fmt.Errorf("scanning disclosure: %w", err)
		}
		events = append(events, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating disclosures: %w", err)
	}
	return events, nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// filterClause builds the WHERE clause for a listing filter. A non-empty
// query matches case-insensitively as a substring of site name, site URL, or
// username; a non-empty category is an exact match on top of that.
func filterClause(ownerID string, filter vault.Filter) (string, []any) {
	clause := `WHERE owner_id = ?`
	args := []any{ownerID}

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		clause += ` AND (site_name LIKE ? ESCAPE '\' OR site_url LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}
	if filter.Category != "" {
		clause += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	return clause, args
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*model.Credential, error) {
	var cred model.Credential
	var category string
	err := row.Scan(&cred.ID, &cred.OwnerID, &cred.SiteName, &cred.SiteURL, &cred.Username,
		&cred.Ciphertext, &category, &cred.Notes, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return nil, err
	}
	cred.Category = model.Category(category)
	return &cred, nil
}

func (s *SQLiteDatabase) queryCredentials(query string, args ...any) ([]*model.Credential, error) {
	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer rows.Close()

	var creds []*model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return creds, nil
}
