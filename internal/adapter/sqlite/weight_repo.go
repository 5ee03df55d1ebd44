package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttracker/internal/domain"
)

// AddWeightRecord inserts a new weight record.
func (d *DB) AddWeightRecord(ctx context.Context, value float64, recordedAt time.Time) (int64, error) {
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO weight_records(weight_value, recorded_at) VALUES(?, ?);",
		value, recordedAt.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteWeightRecord removes a weight record by ID.
func (d *DB) DeleteWeightRecord(ctx context.Context, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx, "DELETE FROM weight_records WHERE id=?;", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListWeightRecords returns weight records newest-first, up to limit when limit > 0.
func (d *DB) ListWeightRecords(ctx context.Context, limit int) ([]domain.WeightRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, weight_value, recorded_at FROM weight_records ORDER BY recorded_at DESC, id DESC LIMIT ?;", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.WeightRecord
	for rows.Next() {
		var (
			e  domain.WeightRecord
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Value, &ms); err != nil {
			return nil, err
		}
		e.RecordedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestWeightForLocalDay returns the most recent weight record for a local calendar day.
func (d *DB) LatestWeightForLocalDay(ctx context.Context, localDay string) (*domain.WeightRecord, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", localDay, time.Local)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	row := d.sql.QueryRowContext(ctx,
		"SELECT id, weight_value, recorded_at FROM weight_records WHERE recorded_at >= ? AND recorded_at < ? ORDER BY recorded_at DESC, id DESC LIMIT 1;",
		dayStart.UnixMilli(), dayEnd.UnixMilli(),
	)

	var (
		e  domain.WeightRecord
		ms int64
	)
	if err := row.Scan(&e.ID, &e.Value, &ms); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.RecordedAt = time.UnixMilli(ms)
	return &e, nil
}
