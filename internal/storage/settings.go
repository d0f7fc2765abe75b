package storage

import (
	"context"
	"fmt"
	"sync"

	"fx-rate-alerts/internal/domain"
)

// SettingsStore owns the single process-wide settings document. Defaults are
// seeded and persisted on first load.
type SettingsStore struct {
	kv KV

	mu      sync.Mutex
	loaded  bool
	current domain.Settings
}

// NewSettingsStore binds the store to its KV.
func NewSettingsStore(kv KV) *SettingsStore {
	return &SettingsStore{kv: kv}
}

// Load returns the stored settings, seeding defaults when absent.
func (s *SettingsStore) Load(ctx context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.current, nil
	}

	data, ok, err := s.kv.Get(ctx, keySettings)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		s.current = domain.DefaultSettings()
		if err := s.persist(ctx); err != nil {
			return domain.Settings{}, err
		}
		s.loaded = true
		return s.current, nil
	}

	if err := unmarshalDocument(data, &s.current); err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s.loaded = true
	return s.current, nil
}

// Save validates and persists new settings.
func (s *SettingsStore) Save(ctx context.Context, settings domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = settings
	s.loaded = true
	return s.persist(ctx)
}

func (s *SettingsStore) persist(ctx context.Context) error {
	data, err := marshalDocument(s.current)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := s.kv.Set(ctx, keySettings, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
