package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for vaul.
type Config struct {
	OwnerID       string              `toml:"owner_id"`   // authenticated identity the CLI acts as
	OwnerName     string              `toml:"owner_name"` // display name used on audit exports
	BaseDir       string              `toml:"base_dir"`
	LogDir        string              `toml:"log_dir"`
	Cipher        CipherConfig        `toml:"cipher"`
	Database      DatabaseConfig      `toml:"database"`
	SnapshotStore SnapshotStoreConfig `toml:"snapshot_store"`
}

// CipherConfig holds the process-wide symmetric key. The key is supplied
// once at startup; a missing or malformed key is a fatal startup error.
type CipherConfig struct {
	Type string `toml:"type"` // "aesgcm" (default) or "test"
	Key  string `toml:"key"`  // base64-encoded 32-byte key
}

// DatabaseConfig represents configuration for the credential database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SnapshotStoreConfig represents configuration for where exported snapshots
// are kept. This uses a tagged union pattern - the Type field determines
// which other fields are relevant.
type SnapshotStoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", or "s3"

	// Filesystem-specific fields (only used when Type == "filesystem")
	Dir string `toml:"dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// NewConfig creates a new Config with the provided values and default paths.
func NewConfig(ownerID, ownerName, baseDir string) *Config {
	return &Config{
		OwnerID:   ownerID,
		OwnerName: ownerName,
		BaseDir:   baseDir,
		LogDir:    filepath.Join(baseDir, "log"),
		Cipher:    CipherConfig{Type: "aesgcm"},
		Database:  DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "data")},
		SnapshotStore: SnapshotStoreConfig{
			Type: "filesystem",
			Dir:  filepath.Join(baseDir, "snapshots"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The config holds the cipher key, so keep it owner-readable only.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
