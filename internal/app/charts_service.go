package app

import (
	"context"
	"time"

	"weighttracker/internal/domain"
)

// MaxChartDays bounds the daily series length.
const MaxChartDays = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	weightRepo domain.WeightRepository
	now        func() time.Time
}

// NewChartsService creates a ChartsService backed by the given repository.
func NewChartsService(wr domain.WeightRepository) *ChartsService {
	return &ChartsService{weightRepo: wr, now: time.Now}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day    string       `json:"day"`
	Weight *WeightPoint `json:"weight"`
}

// WeightPoint is the optional weight value within a DayPoint.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// GetDaily returns the latest weight of each of the last days local days,
// oldest first, converted to the requested unit.
func (s *ChartsService) GetDaily(ctx context.Context, days int, unit string) ([]DayPoint, error) {
	if !domain.ValidUnit(unit) {
		return nil, domain.ErrInvalidUnit
	}
	if days > MaxChartDays {
		days = MaxChartDays
	}
	if days < 1 {
		days = 1
	}

	today := s.now().In(time.Local)
	points := make([]DayPoint, 0, days)

	for i := days - 1; i >= 0; i-- {
		dayStr := LocalDay(today.AddDate(0, 0, -i))

		entry, err := s.weightRepo.LatestWeightForLocalDay(ctx, dayStr)
		if err != nil {
			return nil, storageErr("latest weight for day", err)
		}

		var wp *WeightPoint
		if entry != nil {
			wp = &WeightPoint{Value: domain.ConvertWeight(entry.Value, domain.UnitKg, unit), Unit: unit}
		}

		points = append(points, DayPoint{Day: dayStr, Weight: wp})
	}
	return points, nil
}

// LocalDay formats t as a local calendar day.
func LocalDay(t time.Time) string {
	return t.In(time.Local).Format("2006-01-02")
}
