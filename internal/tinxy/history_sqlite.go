package tinxy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteStateHistoryRepository implements StateHistoryRepository using
// SQLite. State snapshots are stored as JSON in the state_history table.
type SQLiteStateHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteStateHistoryRepository creates a new SQLite state history
// repository over an open connection.
func NewSQLiteStateHistoryRepository(db *sql.DB) *SQLiteStateHistoryRepository {
	return &SQLiteStateHistoryRepository{db: db}
}

// RecordStateChange inserts a new state history entry for a device.
func (r *SQLiteStateHistoryRepository) RecordStateChange(ctx context.Context, deviceKey string, state DeviceState, source string) error {
	if deviceKey == "" {
		return fmt.Errorf("device key is required")
	}
	if source == "" {
		source = StateHistorySourcePoll
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO state_history (device_key, state, source) VALUES (?, ?, ?)",
		deviceKey,
		string(stateJSON),
		source,
	)
	if err != nil {
		return fmt.Errorf("inserting state history: %w", err)
	}

	return nil
}

// GetHistory returns recent state history entries for a device, ordered
// newest first. The limit defaults to 50 and is clamped to 200.
func (r *SQLiteStateHistoryRepository) GetHistory(ctx context.Context, deviceKey string, limit int) ([]StateHistoryEntry, error) {
	if deviceKey == "" {
		return nil, fmt.Errorf("device key is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, device_key, state, source, created_at FROM state_history WHERE device_key = ? ORDER BY created_at DESC, id DESC LIMIT ?",
		deviceKey,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	var entries []StateHistoryEntry
	for rows.Next() {
		var (
			entry     StateHistoryEntry
			stateJSON string
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.DeviceKey, &stateJSON, &entry.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state history row: %w", err)
		}

		if err := json.Unmarshal([]byte(stateJSON), &entry.State); err != nil {
			return nil, fmt.Errorf("unmarshalling state: %w", err)
		}

		ts, err := time.Parse("2006-01-02 15:04:05", createdAt)
		if err != nil {
			// SQLite may return RFC3339 depending on how the value was written.
			ts, err = time.Parse(time.RFC3339, createdAt)
			if err != nil {
				return nil, fmt.Errorf("parsing created_at: %w", err)
			}
		}
		entry.CreatedAt = ts.UTC()

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history rows: %w", err)
	}

	return entries, nil
}
