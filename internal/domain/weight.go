// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// WeightRecord represents a single weight measurement in kilograms.
type WeightRecord struct {
	ID         int64     `json:"id"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

// WeightRepository is the port for weight persistence.
//
// ListWeightRecords returns records newest-first by RecordedAt; records that
// share a timestamp are ordered by descending ID. A limit <= 0 means no limit.
// DeleteWeightRecord reports whether a row was removed.
type WeightRepository interface {
	AddWeightRecord(ctx context.Context, value float64, recordedAt time.Time) (int64, error)
	DeleteWeightRecord(ctx context.Context, id int64) (bool, error)
	ListWeightRecords(ctx context.Context, limit int) ([]WeightRecord, error)
	LatestWeightForLocalDay(ctx context.Context, localDay string) (*WeightRecord, error)
}

// Millis truncates t to millisecond precision, the resolution records are
// persisted at.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
