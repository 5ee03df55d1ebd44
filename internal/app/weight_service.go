package app

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"weighttracker/internal/domain"
	"weighttracker/internal/live"
)

// WeightService encapsulates weight-tracking use cases and owns the live
// history stream.
//
// Mutations are serialised with the reload that follows them, so snapshots
// are published in commit order and no observer sees a half-applied change.
type WeightService struct {
	repo domain.WeightRepository
	log  *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	loaded   bool
	snapshot *live.Value[[]domain.WeightRecord]
}

// NewWeightService creates a WeightService backed by the given repository.
func NewWeightService(repo domain.WeightRepository, log *zap.Logger) *WeightService {
	return &WeightService{
		repo:     repo,
		log:      log,
		now:      time.Now,
		snapshot: live.NewClonedValue[[]domain.WeightRecord](nil, slices.Clone),
	}
}

// Append validates and stores a new weight measurement in kilograms. A zero
// recordedAt means now.
func (s *WeightService) Append(ctx context.Context, value float64, recordedAt time.Time) (*domain.WeightRecord, error) {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, domain.ErrInvalidWeight
	}
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	recordedAt = domain.Millis(recordedAt)

	// A write that has started is allowed to finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.AddWeightRecord(ctx, value, recordedAt)
	if err != nil {
		return nil, storageErr("append weight", err)
	}
	s.publishLocked(ctx)

	s.log.Debug("weight recorded", zap.Int64("id", id), zap.Float64("value", value))
	return &domain.WeightRecord{ID: id, Value: value, RecordedAt: recordedAt}, nil
}

// Delete removes the record with the given id. It returns domain.ErrNotFound
// when no such record exists.
func (s *WeightService) Delete(ctx context.Context, id int64) error {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	deleted, err := s.repo.DeleteWeightRecord(ctx, id)
	if err != nil {
		return storageErr("delete weight", err)
	}
	if !deleted {
		return fmt.Errorf("weight record %d: %w", id, domain.ErrNotFound)
	}
	s.publishLocked(ctx)

	s.log.Debug("weight deleted", zap.Int64("id", id))
	return nil
}

// UndoLast deletes the most recent weight record and returns it, or nil when
// the history is empty.
func (s *WeightService) UndoLast(ctx context.Context) (*domain.WeightRecord, error) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.repo.ListWeightRecords(ctx, 1)
	if err != nil {
		return nil, storageErr("list weights", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	last := items[0]
	if _, err := s.repo.DeleteWeightRecord(ctx, last.ID); err != nil {
		return nil, storageErr("delete weight", err)
	}
	s.publishLocked(ctx)
	return &last, nil
}

// List returns the full history newest-first.
func (s *WeightService) List(ctx context.Context) ([]domain.WeightRecord, error) {
	items, err := s.repo.ListWeightRecords(ctx, 0)
	if err != nil {
		return nil, storageErr("list weights", err)
	}
	return items, nil
}

// History returns the full history with trend deltas.
func (s *WeightService) History(ctx context.Context) ([]domain.TrendPoint, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeTrend(items), nil
}

// Latest returns the newest record, or nil when there is none.
func (s *WeightService) Latest(ctx context.Context) (*domain.WeightRecord, error) {
	items, err := s.repo.ListWeightRecords(ctx, 1)
	if err != nil {
		return nil, storageErr("latest weight", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// ObserveAll streams full newest-first snapshots. The current snapshot is
// delivered first, then one per successful append or delete. The channel is
// closed when ctx is done or the service is closed.
func (s *WeightService) ObserveAll(ctx context.Context) (<-chan []domain.WeightRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		items, err := s.repo.ListWeightRecords(ctx, 0)
		if err != nil {
			return nil, storageErr("list weights", err)
		}
		s.snapshot.Set(items)
		s.loaded = true
	}
	ch, _ := s.snapshot.Subscribe(ctx)
	return ch, nil
}

// ObserveTrend is ObserveAll with trend deltas computed for every snapshot.
func (s *WeightService) ObserveTrend(ctx context.Context) (<-chan []domain.TrendPoint, error) {
	in, err := s.ObserveAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan []domain.TrendPoint)
	go func() {
		defer close(out)
		for snap := range in {
			select {
			case out <- domain.ComputeTrend(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Observers returns the number of active snapshot observers.
func (s *WeightService) Observers() int {
	return s.snapshot.Len()
}

// Close ends every observation stream.
func (s *WeightService) Close() {
	s.snapshot.Close()
}

// publishLocked reloads the table and publishes it. A failed reload leaves the
// stream stale until the next successful mutation or observation.
func (s *WeightService) publishLocked(ctx context.Context) {
	if !s.loaded && s.snapshot.Len() == 0 {
		return
	}
	items, err := s.repo.ListWeightRecords(ctx, 0)
	if err != nil {
		s.loaded = false
		s.log.Error("reload weight history", zap.Error(err))
		return
	}
	s.snapshot.Set(items)
	s.loaded = true
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
}
