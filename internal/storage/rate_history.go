package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fx-rate-alerts/internal/domain"
)

// RateHistoryStore owns the append-only sampled-rate log, bounded to a
// maximum entry count with oldest-first eviction.
type RateHistoryStore struct {
	kv       KV
	capacity int

	mu      sync.Mutex
	loaded  bool
	entries []domain.RateHistoryEntry
}

// NewRateHistoryStore binds the log to its KV. capacity of zero disables
// the count bound.
func NewRateHistoryStore(kv KV, capacity int) *RateHistoryStore {
	return &RateHistoryStore{kv: kv, capacity: capacity}
}

func (s *RateHistoryStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	data, ok, err := s.kv.Get(ctx, keyRateHistory)
	if err != nil {
		return fmt.Errorf("load rate history: %w", err)
	}
	if ok {
		if err := unmarshalDocument(data, &s.entries); err != nil {
			return fmt.Errorf("load rate history: %w", err)
		}
	}
	s.loaded = true
	return nil
}

func (s *RateHistoryStore) persist(ctx context.Context) error {
	data, err := marshalDocument(s.entries)
	if err != nil {
		return fmt.Errorf("save rate history: %w", err)
	}
	if err := s.kv.Set(ctx, keyRateHistory, data); err != nil {
		return fmt.Errorf("save rate history: %w", err)
	}
	return nil
}

// Append records a sample, dropping the oldest entries past capacity.
func (s *RateHistoryStore) Append(ctx context.Context, entry domain.RateHistoryEntry) error {
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
		trimmed := make([]domain.RateHistoryEntry, s.capacity)
		copy(trimmed, s.entries[len(s.entries)-s.capacity:])
		s.entries = trimmed
	}
	return s.persist(ctx)
}

// Query returns entries most-recent-first, optionally filtered by either
// side of the pair. limit of zero means no limit.
func (s *RateHistoryStore) Query(ctx context.Context, from, to string, limit int) ([]domain.RateHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	out := make([]domain.RateHistoryEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if from != "" && e.Pair.From != from {
			continue
		}
		if to != "" && e.Pair.To != to {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Snapshot returns the whole log in append order for analysis.
func (s *RateHistoryStore) Snapshot(ctx context.Context) ([]domain.RateHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.RateHistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// PruneOlderThan drops entries sampled before cutoff and reports how many
// were removed.
func (s *RateHistoryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	kept := make([]domain.RateHistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Timestamp.Before(cutoff) {
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
