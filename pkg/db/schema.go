package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Conversion history table
-- One row per converted statement
CREATE TABLE IF NOT EXISTS conversion_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL UNIQUE,       -- UUID of the conversion run
    input_path TEXT NOT NULL,
    input_format TEXT NOT NULL,
    output_path TEXT NOT NULL,         -- '-' for stdout
    output_format TEXT NOT NULL,
    account_id TEXT NOT NULL,
    transaction_count INTEGER NOT NULL,
    period_from TEXT NOT NULL,         -- YYYY-MM-DD
    period_until TEXT NOT NULL,        -- YYYY-MM-DD
    converted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_conversion_history_account
    ON conversion_history(account_id);

CREATE INDEX IF NOT EXISTS idx_conversion_history_converted
    ON conversion_history(converted_at);

-- Metadata table
-- Stores key-value metadata about conversions
CREATE TABLE IF NOT EXISTS conversion_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
