package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MetadataLastRunID is the metadata key holding the latest run id.
const MetadataLastRunID = "last_run_id"

// ConversionRecord represents a conversion history record.
type ConversionRecord struct {
	ID               int64
	RunID            string
	InputPath        string
	InputFormat      string
	OutputPath       string
	OutputFormat     string
	AccountID        string
	TransactionCount int
	PeriodFrom       string
	PeriodUntil      string
	ConvertedAt      time.Time
}

// ConversionHistory manages conversion history operations.
type ConversionHistory struct {
	conn *Connection
}

// NewConversionHistory creates a new ConversionHistory instance.
func NewConversionHistory(conn *Connection) *ConversionHistory {
	return &ConversionHistory{conn: conn}
}

// RecordConversion stores a conversion and returns its run id.
// A run id is generated when the record carries none.
func (h *ConversionHistory) RecordConversion(record ConversionRecord) (string, error) {
	return recordConversion(h.conn, record)
}

// RecordLatestConversion stores a conversion and points MetadataLastRunID
// at it in one transaction.
func (h *ConversionHistory) RecordLatestConversion(record ConversionRecord) (string, error) {
	var runID string
	err := h.conn.Transaction(func(tx *sql.Tx) error {
		id, err := recordConversion(tx, record)
		if err != nil {
			return err
		}
		if err := setMetadata(tx, MetadataLastRunID, id); err != nil {
			return err
		}
		runID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return runID, nil
}

func recordConversion(ex execer, record ConversionRecord) (string, error) {
	if record.RunID == "" {
		record.RunID = uuid.NewString()
	} else if _, err := uuid.Parse(record.RunID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", record.RunID, err)
	}

	query := `
		INSERT INTO conversion_history (
			run_id, input_path, input_format, output_path, output_format,
			account_id, transaction_count, period_from, period_until
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ex.Exec(query,
		record.RunID,
		record.InputPath,
		record.InputFormat,
		record.OutputPath,
		record.OutputFormat,
		record.AccountID,
		record.TransactionCount,
		record.PeriodFrom,
		record.PeriodUntil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record conversion: %w", err)
	}

	return record.RunID, nil
}

// GetConversion retrieves a record by run id.
// Returns nil when no record exists.
func (h *ConversionHistory) GetConversion(runID string) (*ConversionRecord, error) {
	query := `
		SELECT id, run_id, input_path, input_format, output_path, output_format,
			account_id, transaction_count, period_from, period_until, converted_at
		FROM conversion_history
		WHERE run_id = ?
	`

	record, err := scanRecord(h.conn.QueryRow(query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}
	return record, nil
}

// GetRecentConversions retrieves up to limit records, newest first.
func (h *ConversionHistory) GetRecentConversions(limit int) ([]ConversionRecord, error) {
	query := `
		SELECT id, run_id, input_path, input_format, output_path, output_format,
			account_id, transaction_count, period_from, period_until, converted_at
		FROM conversion_history
		ORDER BY converted_at DESC, id DESC
		LIMIT ?
	`

	rows, err := h.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent conversions: %w", err)
	}
	defer rows.Close()

	var records []ConversionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversion record: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversion records: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*ConversionRecord, error) {
	var record ConversionRecord
	if err := s.Scan(
		&record.ID,
		&record.RunID,
		&record.InputPath,
		&record.InputFormat,
		&record.OutputPath,
		&record.OutputFormat,
		&record.AccountID,
		&record.TransactionCount,
		&record.PeriodFrom,
		&record.PeriodUntil,
		&record.ConvertedAt,
	); err != nil {
		return nil, err
	}
	return &record, nil
}

// Stats represents conversion statistics.
type Stats struct {
	TotalConversions  int
	TotalTransactions int
	Accounts          int
	ByOutputFormat    map[string]int
	LastConversion    sql.NullString
}

// GetStats retrieves conversion statistics.
func (h *ConversionHistory) GetStats() (*Stats, error) {
	stats := Stats{ByOutputFormat: make(map[string]int)}

	err := h.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(transaction_count), 0), COUNT(DISTINCT account_id)
		FROM conversion_history
	`).Scan(&stats.TotalConversions, &stats.TotalTransactions, &stats.Accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion counts: %w", err)
	}

	rows, err := h.conn.Query(`
		SELECT output_format, COUNT(*) FROM conversion_history GROUP BY output_format
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get format counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var format string
		var count int
		if err := rows.Scan(&format, &count); err != nil {
			return nil, fmt.Errorf("failed to scan format count: %w", err)
		}
		stats.ByOutputFormat[format] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate format counts: %w", err)
	}

	// Get last conversion time
	err = h.conn.QueryRow(`SELECT MAX(converted_at) FROM conversion_history`).Scan(&stats.LastConversion)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get last conversion time: %w", err)
	}

	return &stats, nil
}

// GetMetadata retrieves a metadata value.
func (h *ConversionHistory) GetMetadata(key string) (string, error) {
	query := `SELECT value FROM conversion_metadata WHERE key = ?`

	var value string
	err := h.conn.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}

	return value, nil
}

// SetMetadata sets a metadata value.
func (h *ConversionHistory) SetMetadata(key, value string) error {
	return setMetadata(h.conn, key, value)
}

func setMetadata(ex execer, key, value string) error {
	query := `
		INSERT INTO conversion_metadata (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := ex.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}

	return nil
}
