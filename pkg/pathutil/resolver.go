// Package pathutil provides centralized path management for the history
// database, ledger files and derived output files.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHomeDir is the home directory name used when none is configured.
const DefaultHomeDir = ".stmtconv"

// PathResolver manages paths for the history database and ledger files.
type PathResolver struct {
	home         string
	databasePath string
	ledgerRoot   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// Home is the working directory of the tool (e.g., ~/.stmtconv)
	Home string
	// DatabasePath is the path to the SQLite conversion history
	DatabasePath string
	// LedgerRoot is the root directory for monthly Beancount files
	LedgerRoot string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {Home}/history.db
// If LedgerRoot is empty, it defaults to {Home}/ledger
func New(config Config) *PathResolver {
	home := config.Home
	if home == "" {
		home = DefaultHome()
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(home, "history.db")
	}

	ledgerRoot := config.LedgerRoot
	if ledgerRoot == "" {
		ledgerRoot = filepath.Join(home, "ledger")
	}

	return &PathResolver{
		home:         home,
		databasePath: dbPath,
		ledgerRoot:   ledgerRoot,
	}
}

// DefaultHome returns ~/.stmtconv, or ./.stmtconv without a user home.
func DefaultHome() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, DefaultHomeDir)
	}
	return DefaultHomeDir
}

// GetHome returns the tool home directory.
func (p *PathResolver) GetHome() string {
	return p.home
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetLedgerRoot returns the ledger root directory.
func (p *PathResolver) GetLedgerRoot() string {
	return p.ledgerRoot
}

// GetYearDir returns the ledger directory path for a year.
// Example: ~/.stmtconv/ledger/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.ledgerRoot, year)
}

// GetMonthFilePath returns the ledger file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ~/.stmtconv/ledger/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	return filepath.Join(p.GetYearDir(parts[0]), yearMonth+".beancount"), nil
}

// OutputPath derives an output file name from an input path by swapping
// the extension. Remote inputs keep only their base name.
// Example: exports/jan.csv + ".xml" -> exports/jan.xml
func (p *PathResolver) OutputPath(inputPath, ext string) string {
	if strings.Contains(inputPath, "://") {
		inputPath = filepath.Base(inputPath)
	}
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
	if base == "" || base == "-" {
		base = "statement"
	}
	return base + ext
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	return p.EnsureDir(filepath.Dir(filePath))
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
