package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fx-rate-alerts/internal/domain"
)

// AlertHistoryStore owns the append-only fired-alert log, bounded to a
// maximum entry count with oldest-first eviction.
type AlertHistoryStore struct {
	kv       KV
	capacity int

	mu      sync.Mutex
	loaded  bool
	entries []domain.AlertHistoryEntry
}

// NewAlertHistoryStore binds the log to its KV. capacity of zero disables
// the count bound.
func NewAlertHistoryStore(kv KV, capacity int) *AlertHistoryStore {
	return &AlertHistoryStore{kv: kv, capacity: capacity}
}

func (s *AlertHistoryStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	data, ok, err := s.kv.Get(ctx, keyAlertHistory)
	if err != nil {
		return fmt.Errorf("load alert history: %w", err)
	}
	if ok {
		if err := unmarshalDocument(data, &s.entries); err != nil {
			return fmt.Errorf("load alert history: %w", err)
		}
	}
	s.loaded = true
	return nil
}

func (s *AlertHistoryStore) persist(ctx context.Context) error {
	data, err := marshalDocument(s.entries)
	if err != nil {
		return fmt.Errorf("save alert history: %w", err)
	}
	if err := s.kv.Set(ctx, keyAlertHistory, data); err != nil {
		return fmt.Errorf("save alert history: %w", err)
	}
	return nil
}

// Append records a fired alert, dropping the oldest entries past capacity.
func (s *AlertHistoryStore) Append(ctx context.Context, entry domain.AlertHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	s.entries = append(s.entries, entry)
	if s.capacity > 0 && len(s.entries) > s.capacity {
		trimmed := make([]domain.AlertHistoryEntry, s.capacity)
		copy(trimmed, s.entries[len(s.entries)-s.capacity:])
		s.entries = trimmed
	}
	return s.persist(ctx)
}

// Query returns entries most-recent-first. limit of zero means no limit.
func (s *AlertHistoryStore) Query(ctx context.Context, limit int) ([]domain.AlertHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]domain.AlertHistoryEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Snapshot returns the whole log in append order. The notification gate
// counts against it when enforcing the daily cap.
func (s *AlertHistoryStore) Snapshot(ctx context.Context) ([]domain.AlertHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.AlertHistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// PruneOlderThan drops entries triggered before cutoff and reports how many
// were removed.
func (s *AlertHistoryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	kept := make([]domain.AlertHistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.TriggeredAt.Before(cutoff) {
			continue
		}
		kept = append(kept, e)
	}

	removed := len(s.entries) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	s.entries = kept
	if err := s.persist(ctx); err != nil {
		return 0, err
	}
	return removed, nil
}
