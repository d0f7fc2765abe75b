package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fx-rate-alerts/internal/domain"
)

// AlertStore owns the alert collection. It hydrates from the KV on first
// use, caches for the process lifetime, and writes the full collection back
// on every mutation. Alerts keep creation order, which is also the
// evaluation order within a tick.
type AlertStore struct {
	kv        KV
	maxAlerts int

	mu     sync.Mutex
	loaded bool
	alerts []domain.Alert
}

// NewAlertStore binds the store to its KV. maxAlerts of zero disables the
// cap.
func NewAlertStore(kv KV, maxAlerts int) *AlertStore {
	return &AlertStore{kv: kv, maxAlerts: maxAlerts}
}

func (s *AlertStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	data, ok, err := s.kv.Get(ctx, keyAlerts)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}
	if ok {
		if err := unmarshalDocument(data, &s.alerts); err != nil {
			return fmt.Errorf("load alerts: %w", err)
		}
	}
	s.loaded = true
	return nil
}

func (s *AlertStore) persist(ctx context.Context) error {
	data, err := marshalDocument(s.alerts)
	if err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	if err := s.kv.Set(ctx, keyAlerts, data); err != nil {
		return fmt.Errorf("save alerts: %w", err)
	}
	return nil
}

func (s *AlertStore) indexOf(id string) int {
	for i, a := range s.alerts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Create validates the spec and appends the new alert.
func (s *AlertStore) Create(ctx context.Context, spec domain.AlertSpec, now time.Time) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Alert{}, err
	}
	if s.maxAlerts > 0 && len(s.alerts) >= s.maxAlerts {
		return domain.Alert{}, domain.ErrAlertLimit
	}

	alert, err := domain.NewAlert(uuid.NewString(), spec, now)
	if err != nil {
		return domain.Alert{}, err
	}

	s.alerts = append(s.alerts, alert)
	if err := s.persist(ctx); err != nil {
		return domain.Alert{}, err
	}
	return alert, nil
}

// Update applies the patch to an existing alert.
func (s *AlertStore) Update(ctx context.Context, id string, patch domain.AlertPatch, now time.Time) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Alert{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Alert{}, domain.ErrAlertNotFound
	}

	patched, err := s.alerts[idx].ApplyPatch(patch, now)
	if err != nil {
		return domain.Alert{}, err
	}

	s.alerts[idx] = patched
	if err := s.persist(ctx); err != nil {
		return domain.Alert{}, err
	}
	return patched, nil
}

// Delete removes the alert and returns the removed record.
func (s *AlertStore) Delete(ctx context.Context, id string) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Alert{}, err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Alert{}, domain.ErrAlertNotFound
	}

	removed := s.alerts[idx]
	s.alerts = append(s.alerts[:idx], s.alerts[idx+1:]...)
	if err := s.persist(ctx); err != nil {
		return domain.Alert{}, err
	}
	return removed, nil
}

// List returns all alerts in creation order.
func (s *AlertStore) List(ctx context.Context) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

// ListEnabled returns only enabled alerts, creation order preserved.
func (s *AlertStore) ListEnabled(ctx context.Context) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if a.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}

// SaveBatch writes back alerts mutated during a tick. An id that no longer
// exists is skipped: a concurrent delete wins and the alert is never
// resurrected.
func (s *AlertStore) SaveBatch(ctx context.Context, updated []domain.Alert) error {
	if len(updated) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	for _, u := range updated {
		if idx := s.indexOf(u.ID); idx >= 0 {
			s.alerts[idx] = u
		}
	}
	return s.persist(ctx)
}
