package sqlite

import (
	"context"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/persistence"
)

// ConfigRepository implements persistence.ConfigRepository on SQLite.
type ConfigRepository struct {
	store *Store
}

// NewConfigRepository wires a config repository onto the store.
func NewConfigRepository(store *Store) *ConfigRepository {
	return &ConfigRepository{store: store}
}

// UpsertConfig inserts or replaces one configuration entry.
func (r *ConfigRepository) UpsertConfig(ctx context.Context, entry persistence.ConfigEntry) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO system_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		entry.Key,
		entry.Value,
		formatTime(entry.UpdatedAt),
	)
	return mapError(err)
}

// ListConfig returns every configuration entry ordered by key.
func (r *ConfigRepository) ListConfig(ctx context.Context) ([]persistence.ConfigEntry, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT key, value, updated_at FROM system_config ORDER BY key`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var entries []persistence.ConfigEntry
	for rows.Next() {
		var entry persistence.ConfigEntry
		var updatedAt string
		if err := rows.Scan(&entry.Key, &entry.Value, &updatedAt); err != nil {
			return nil, mapError(err)
		}
		if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
