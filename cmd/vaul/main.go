package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"vaul-go/internal/app"
	"vaul-go/internal/config"
	"vaul-go/internal/database"
	"vaul-go/internal/encryption"
	"vaul-go/internal/model"
	"vaul-go/internal/vault"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a VaulApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Add", "Reveal").
func newApp(operation string) (*app.VaulApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewVaulApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readSecret prompts on stderr and reads a line with terminal echo off.
func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(secret), nil
}

var rootCmd = &cobra.Command{
	Use:   "vaul",
	Short: "Personal credential vault",
}

// config command

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var (
	initOwnerName string
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and generate the cipher key",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		ownerID := uuid.New().String()
		cfg := config.NewConfig(ownerID, initOwnerName, defaults["base_dir"])

		key, err := encryption.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate cipher key: %w", err)
		}
		cfg.Cipher.Key = key

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Owner ID: %s\n", ownerID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("A new cipher key was generated. Back up the config file: without the key, secrets are unrecoverable.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Owner ID:   %s\n", cfg.OwnerID)
		fmt.Printf("Owner Name: %s\n", cfg.OwnerName)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		fmt.Printf("Snapshots:  %s\n", cfg.SnapshotStore.Type)
		return nil
	},
}

// db command

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the credential database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		db, err := database.NewDatabaseFromConfig(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

// add command

var (
	addSite     string
	addURL      string
	addUser     string
	addCategory string
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new credential (secret is prompted, never passed as an argument)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Add")
		if err != nil {
			return err
		}
		defer a.Close()

		secret, err := readSecret("Secret: ")
		if err != nil {
			return err
		}

		id, err := a.Add(vault.CredentialInput{
			SiteName: addSite,
			SiteURL:  addURL,
			Username: addUser,
			Secret:   secret,
			Category: model.Category(addCategory),
			Notes:    addNotes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Stored credential %s\n", id)
		return nil
	},
}

// list command

var (
	listQuery    string
	listCategory string
	listPage     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List credentials (secrets stay encrypted)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		page, err := a.List(listQuery, listCategory, listPage)
		if err != nil {
			return err
		}

		for _, cred := range page.Credentials {
			fmt.Printf("%s  %-12s  %s (%s)\n", cred.ID, cred.Category, cred.SiteName, cred.Username)
		}
		fmt.Printf("Page %d of %d (%d credentials)\n", page.Number, page.TotalPages, page.TotalCount)
		return nil
	},
}

// show command

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a credential's fields (secret stays encrypted; use reveal)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Show")
		if err != nil {
			return err
		}
		defer a.Close()

		cred, err := a.Get(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:       %s\n", cred.ID)
		fmt.Printf("Site:     %s\n", cred.SiteName)
		fmt.Printf("URL:      %s\n", cred.SiteURL)
		fmt.Printf("Username: %s\n", cred.Username)
		fmt.Printf("Category: %s\n", cred.Category)
		if cred.Notes != "" {
			fmt.Printf("Notes:    %s\n", cred.Notes)
		}
		fmt.Printf("Created:  %s\n", cred.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:  %s\n", cred.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		return nil
	},
}

// reveal command

var (
	revealIP    string
	revealAgent string
)

var revealCmd = &cobra.Command{
	Use:   "reveal <id>",
	Short: "Decrypt and print a secret (the disclosure is recorded)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Reveal")
		if err != nil {
			return err
		}
		defer a.Close()

		secret, err := a.Reveal(args[0], revealIP, revealAgent)
		if err != nil {
			return err
		}
		fmt.Println(secret)
		return nil
	},
}

// update command

var (
	updateSite      string
	updateURL       string
	updateUser      string
	updateCategory  string
	updateNotes     string
	updateNewSecret bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a credential; omitted fields are left unchanged",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Update")
		if err != nil {
			return err
		}
		defer a.Close()

		var secret string
		if updateNewSecret {
			secret, err = readSecret("New secret: ")
			if err != nil {
				return err
			}
		}

		err = a.Update(args[0], vault.UpdateInput{
			SiteName: updateSite,
			SiteURL:  updateURL,
			Username: updateUser,
			Secret:   secret,
			Category: model.Category(updateCategory),
			Notes:    updateNotes,
		})
		if err != nil {
			return err
		}
		fmt.Println("Credential updated.")
		return nil
	},
}

// delete command

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a credential (its disclosure history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Delete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Delete(args[0]); err != nil {
			return err
		}
		fmt.Println("Credential deleted.")
		return nil
	},
}

// scan command

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze stored secrets for weak and reused values",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Scan()
		if err != nil {
			return err
		}

		printFlagged := func(header string, ids []string) error {
			fmt.Printf("%s: %d\n", header, len(ids))
			for _, id := range ids {
				cred, err := a.Get(id)
				if err != nil {
					return err
				}
				fmt.Printf("  %s  %s (%s)\n", cred.ID, cred.SiteName, cred.Username)
			}
			return nil
		}

		if err := printFlagged("Weak secrets", report.WeakIDs); err != nil {
			return err
		}
		return printFlagged("Reused secrets", report.DuplicateIDs)
	},
}

// export command

var (
	exportOutput  string
	exportEncrypt bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a decrypted snapshot of all credentials",
	Long: `Export writes a JSON snapshot with secrets in plaintext. By default the
snapshot goes to the configured snapshot store; --output writes a local file
("-" for stdout) instead. --encrypt protects the stored document with an age
passphrase.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		if exportOutput != "" {
			if exportOutput == "-" {
				return a.WriteSnapshot(os.Stdout)
			}
			f, err := os.OpenFile(exportOutput, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			if err := a.WriteSnapshot(f); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Snapshot written to %s\n", exportOutput)
			return nil
		}

		var passphrase string
		if exportEncrypt {
			passphrase, err = readSecret("Snapshot passphrase: ")
			if err != nil {
				return err
			}
		}

		name, err := a.ExportSnapshot(passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Snapshot stored as %s\n", name)
		return nil
	},
}

// import command

var (
	importFile    string
	importName    string
	importEncrypt bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge a snapshot into the vault, skipping duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		if (importFile == "") == (importName == "") {
			return errors.New("exactly one of --file or --name is required")
		}

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		var res vault.ImportResult
		if importFile != "" {
			payload, err := os.ReadFile(importFile)
			if err != nil {
				return fmt.Errorf("reading snapshot file: %w", err)
			}
			res, err = a.ImportPayload(payload)
			if err != nil {
				return err
			}
		} else {
			var passphrase string
			if importEncrypt || strings.HasSuffix(importName, ".age") {
				passphrase, err = readSecret("Snapshot passphrase: ")
				if err != nil {
					return err
				}
			}
			res, err = a.ImportSnapshot(importName, passphrase)
			if err != nil {
				return err
			}
		}

		fmt.Printf("Imported %d, skipped %d\n", res.Imported, res.Skipped)
		return nil
	},
}

// audit command

var (
	auditFrom   string
	auditTo     string
	auditOutput string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the disclosure audit trail",
}

var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "List disclosure events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AuditLog")
		if err != nil {
			return err
		}
		defer a.Close()

		events, err := a.QueryAuditLog(auditFrom, auditTo)
		if err != nil {
			return err
		}

		for _, ev := range events {
			line := fmt.Sprintf("%s  %s", ev.RevealedAt.Local().Format("2006-01-02 15:04:05"), ev.CredentialID)
			if ev.SourceIP != "" {
				line += "  " + ev.SourceIP
			}
			fmt.Println(line)
		}
		fmt.Printf("%d disclosure(s)\n", len(events))
		return nil
	},
}

var auditExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export disclosure events as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AuditExport")
		if err != nil {
			return err
		}
		defer a.Close()

		out := os.Stdout
		if auditOutput != "" && auditOutput != "-" {
			f, err := os.Create(auditOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		return a.ExportAuditLog(out, auditFrom, auditTo)
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initOwnerName, "name", "", "owner display name used on audit exports")
	configCmd.AddCommand(configInitCmd, configListCmd)

	dbCmd.AddCommand(dbMigrateCmd)

	addCmd.Flags().StringVar(&addSite, "site", "", "site name (required)")
	addCmd.Flags().StringVar(&addURL, "url", "", "site URL (required)")
	addCmd.Flags().StringVar(&addUser, "user", "", "username (required)")
	addCmd.Flags().StringVar(&addCategory, "category", "", "category (defaults to other)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")

	listCmd.Flags().StringVar(&listQuery, "query", "", "substring match on site name, URL, or username")
	listCmd.Flags().StringVar(&listCategory, "category", "", "exact category match")
	listCmd.Flags().StringVar(&listPage, "page", "1", "page number")

	revealCmd.Flags().StringVar(&revealIP, "ip", "", "source IP to record on the disclosure")
	revealCmd.Flags().StringVar(&revealAgent, "agent", "", "client agent to record on the disclosure")

	updateCmd.Flags().StringVar(&updateSite, "site", "", "new site name")
	updateCmd.Flags().StringVar(&updateURL, "url", "", "new site URL")
	updateCmd.Flags().StringVar(&updateUser, "user", "", "new username")
	updateCmd.Flags().StringVar(&updateCategory, "category", "", "new category")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "new notes")
	updateCmd.Flags().BoolVar(&updateNewSecret, "secret", false, "prompt for a replacement secret")

	exportCmd.Flags().StringVar(&exportOutput, "output", "", "write to a local file instead of the snapshot store (- for stdout)")
	exportCmd.Flags().BoolVar(&exportEncrypt, "encrypt", false, "encrypt the stored snapshot with a passphrase")

	importCmd.Flags().StringVar(&importFile, "file", "", "import from a local snapshot file")
	importCmd.Flags().StringVar(&importName, "name", "", "import a named snapshot from the snapshot store")
	importCmd.Flags().BoolVar(&importEncrypt, "encrypt", false, "the stored snapshot is passphrase-encrypted")

	auditCmd.PersistentFlags().StringVar(&auditFrom, "from", "", "inclusive start date (YYYY-MM-DD)")
	auditCmd.PersistentFlags().StringVar(&auditTo, "to", "", "inclusive end date (YYYY-MM-DD)")
	auditExportCmd.Flags().StringVar(&auditOutput, "output", "", "write CSV to a file (- for stdout)")
	auditCmd.AddCommand(auditLogCmd, auditExportCmd)

	rootCmd.AddCommand(configCmd, dbCmd, addCmd, listCmd, showCmd, revealCmd,
		updateCmd, deleteCmd, scanCmd, exportCmd, importCmd, auditCmd)
}
