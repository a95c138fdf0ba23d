package database

// Schema is the complete, current database schema. It must stay in sync with
// the migration files under migrations/files; tests apply it directly to
// in-memory databases instead of running migrations.
//
// disclosures deliberately carries no foreign key to credentials: disclosure
// events are permanent audit history and must survive deletion of the
// credential they reference.
const Schema = `
CREATE TABLE credentials (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    site_name TEXT NOT NULL,
    site_url TEXT NOT NULL,
    username TEXT NOT NULL,
    ciphertext TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT 'other',
    notes TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX idx_credentials_owner_created ON credentials(owner_id, created_at DESC, id DESC);

CREATE TABLE disclosures (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    credential_id TEXT NOT NULL,
    revealed_at TIMESTAMP NOT NULL,
    source_ip TEXT NOT NULL DEFAULT '',
    client_agent TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_disclosures_owner_revealed ON disclosures(owner_id, revealed_at DESC);
`
