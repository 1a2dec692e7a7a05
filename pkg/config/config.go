// Package config provides configuration management for the statement converter.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Paths      PathsConfig
	Conversion ConversionConfig
	GCS        GCSConfig
	Debug      bool
}

// PathsConfig locates the working directory, history database and ledger.
type PathsConfig struct {
	Home       string
	DBPath     string
	LedgerRoot string
}

// ConversionConfig holds codec defaults.
type ConversionConfig struct {
	BankName      string
	CurrencyTable string
	MappingFile   string
	InputEncoding string
}

// GCSConfig represents Cloud Storage access for gs:// paths.
type GCSConfig struct {
	CredentialsFile string
	Endpoint        string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Paths: PathsConfig{
			Home:       os.Getenv("STMTCONV_HOME"),
			DBPath:     os.Getenv("STMTCONV_DB_PATH"),
			LedgerRoot: os.Getenv("STMTCONV_LEDGER_ROOT"),
		},
		Conversion: ConversionConfig{
			BankName:      os.Getenv("STMTCONV_BANK_NAME"),
			CurrencyTable: os.Getenv("STMTCONV_CURRENCY_TABLE"),
			MappingFile:   os.Getenv("STMTCONV_MAPPING_FILE"),
			InputEncoding: getEnvOrDefault("STMTCONV_INPUT_ENCODING", "utf-8"),
		},
		GCS: GCSConfig{
			CredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
			Endpoint:        os.Getenv("STMTCONV_GCS_ENDPOINT"),
		},
		Debug: strings.EqualFold(os.Getenv("DEBUG"), "true"),
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "paths":
			switch path[1] {
			case "home":
				value = c.Paths.Home
			case "dbPath":
				value = c.Paths.DBPath
			case "ledgerRoot":
				value = c.Paths.LedgerRoot
			}
		case "conversion":
			switch path[1] {
			case "bankName":
				value = c.Conversion.BankName
			case "currencyTable":
				value = c.Conversion.CurrencyTable
			case "mappingFile":
				value = c.Conversion.MappingFile
			case "inputEncoding":
				value = c.Conversion.InputEncoding
			}
		case "gcs":
			switch path[1] {
			case "credentialsFile":
				value = c.GCS.CredentialsFile
			case "endpoint":
				value = c.GCS.Endpoint
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	return strings.Join(path, ".")
}
