package badger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/timshannon/badgerhold/v4"

	"github.com/nickeldime/wealthos/internal/common"
	"github.com/nickeldime/wealthos/internal/interfaces"
	"github.com/nickeldime/wealthos/internal/models"
)

// maxHistoryRecords caps the history at ~10 years of daily records.
const maxHistoryRecords = 3650

// maxDailyDeviation rejects net-worth swings above 10% against the prior
// close. A bad valuation (a chunk of the portfolio unpriced) must not
// poison the history.
var maxDailyDeviation = decimal.NewFromFloat(0.1)

type historyStorage struct {
	store  *Store
	logger *common.Logger

	mu sync.Mutex // serializes read-merge-write on the day record
}

// NewHistoryStorage creates a new HistoryStorage backed by BadgerHold.
func NewHistoryStorage(store *Store, logger *common.Logger) *historyStorage {
	return &historyStorage{store: store, logger: logger}
}

func (s *historyStorage) Append(ctx context.Context, rec *models.NetWorthRecord) error {
	if rec == nil || rec.Date == "" {
		return fmt.Errorf("cannot append history record without a date")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	latest, err := s.latestLocked()
	if err != nil {
		return err
	}
	if latest != nil && latest.Date != rec.Date && implausibleMove(latest.Close, rec.Close) {
		s.logger.Warn().
			Str("date", rec.Date).
			Str("previous_close", latest.Close.String()).
			Str("new_close", rec.Close.String()).
			Msg("Rejected history record: implausible net-worth move")
		return nil
	}

	var existing models.NetWorthRecord
	err = s.store.db.Get(rec.Date, &existing)
	switch {
	case err == badgerhold.ErrNotFound:
		day := *rec
		day.Open = rec.Close
		day.High = rec.Close
		day.Low = rec.Close
		day.LastUpdate = time.Now()
		if err := s.store.db.Upsert(day.Date, &day); err != nil {
			return fmt.Errorf("failed to create history record for %s: %w", day.Date, err)
		}
		s.logger.Debug().Str("date", day.Date).Msg("History record created")
		return s.pruneLocked()
	case err != nil:
		return fmt.Errorf("failed to read history record for %s: %w", rec.Date, err)
	}

	// Intraday refresh: merge OHLC, keep the day's open.
	merged := *rec
	merged.Open = existing.Open
	merged.High = decimal.Max(existing.High, rec.Close)
	merged.Low = decimal.Min(existing.Low, rec.Close)
	merged.LastUpdate = time.Now()
	if err := s.store.db.Upsert(merged.Date, &merged); err != nil {
		return fmt.Errorf("failed to update history record for %s: %w", merged.Date, err)
	}
	s.logger.Debug().Str("date", merged.Date).Msg("History record updated")
	return nil
}

func (s *historyStorage) List(_ context.Context) ([]*models.NetWorthRecord, error) {
	var records []models.NetWorthRecord
	if err := s.store.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	out := make([]*models.NetWorthRecord, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

func (s *historyStorage) Latest(_ context.Context) (*models.NetWorthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestLocked()
}

func (s *historyStorage) latestLocked() (*models.NetWorthRecord, error) {
	var records []models.NetWorthRecord
	if err := s.store.db.Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	latest := &records[0]
	for i := range records {
		if records[i].Date > latest.Date {
			latest = &records[i]
		}
	}
	return latest, nil
}

// pruneLocked drops the oldest records beyond the retention cap.
func (s *historyStorage) pruneLocked() error {
	var records []models.NetWorthRecord
	if err := s.store.db.Find(&records, nil); err != nil {
		return fmt.Errorf("failed to read history for pruning: %w", err)
	}
	if len(records) <= maxHistoryRecords {
		return nil
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
	for _, rec := range records[:len(records)-maxHistoryRecords] {
		if err := s.store.db.Delete(rec.Date, models.NetWorthRecord{}); err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to prune history record %s: %w", rec.Date, err)
		}
	}
	s.logger.Debug().Int("pruned", len(records)-maxHistoryRecords).Msg("History pruned to retention cap")
	return nil
}

// implausibleMove reports whether the new close deviates from the previous
// close by more than the allowed daily fraction.
func implausibleMove(prev, next decimal.Decimal) bool {
	if prev.IsZero() {
		return false
	}
	diff := next.Sub(prev).Abs()
	return diff.GreaterThan(prev.Abs().Mul(maxDailyDeviation))
}

// Ensure interface compliance
var _ interfaces.HistoryStorage = (*historyStorage)(nil)
