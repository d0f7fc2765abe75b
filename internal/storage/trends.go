package storage

import (
	"context"
	"fmt"

	"fx-rate-alerts/internal/domain"
)

// TrendStore caches generated trend snapshots, one document per period.
type TrendStore struct {
	kv KV
}

// NewTrendStore binds the cache to its KV.
func NewTrendStore(kv KV) *TrendStore {
	return &TrendStore{kv: kv}
}

func trendKey(days int) string {
	return fmt.Sprintf("%s%dd", keyTrendPrefix, days)
}

// Save overwrites the cached snapshot for the snapshot's period.
func (s *TrendStore) Save(ctx context.Context, snap domain.TrendSnapshot) error {
	data, err := marshalDocument(snap)
	if err != nil {
		return fmt.Errorf("save trend snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, trendKey(snap.PeriodDays), data); err != nil {
		return fmt.Errorf("save trend snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot for a period when present.
func (s *TrendStore) Load(ctx context.Context, days int) (domain.TrendSnapshot, bool, error) {
	data, ok, err := s.kv.Get(ctx, trendKey(days))
	if err != nil {
		return domain.TrendSnapshot{}, false, fmt.Errorf("load trend snapshot: %w", err)
	}
	if !ok {
		return domain.TrendSnapshot{}, false, nil
	}

	var snap domain.TrendSnapshot
	if err := unmarshalDocument(data, &snap); err != nil {
		return domain.TrendSnapshot{}, false, fmt.Errorf("load trend snapshot: %w", err)
	}
	return snap, true, nil
}
