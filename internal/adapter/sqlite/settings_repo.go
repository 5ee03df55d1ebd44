package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"weighttracker/internal/domain"
)

// GetPreference returns the stored value for key.
func (d *DB) GetPreference(ctx context.Context, key domain.PreferenceKey) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key=?;", string(key)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// SetPreference stores value under key, replacing any previous value.
func (d *DB) SetPreference(ctx context.Context, key domain.PreferenceKey, value string) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO preferences(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value;",
		string(key), value,
	)
	return err
}
