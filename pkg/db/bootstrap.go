package db

import (
	"context"
	"fmt"
)

// Bootstrap seeds an all-off record for every listed device that has no
// stored state yet. Existing records are left untouched and no change
// listeners fire.
func (db *DB) Bootstrap(ctx context.Context, deviceIDs []string) error {
	for _, id := range deviceIDs {
		_, err := db.ExecContext(ctx, `
			INSERT INTO device_states (device_id) VALUES (?)
			ON CONFLICT(device_id) DO NOTHING
		`, id)
		if err != nil {
			return fmt.Errorf("failed to seed state of %s: %w", id, err)
		}
	}
	return nil
}

// NeedsBootstrap returns true if no device state has been stored yet.
func (db *DB) NeedsBootstrap(ctx context.Context) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM device_states`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
