// Package storage persists monitoring state as versioned JSON documents
// behind a small key/value contract with memory, Redis and PostgreSQL
// backends. Each collection lives under its own key and is written back
// whole on mutation.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured indicates the backing client was not initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
	// ErrSchemaVersion indicates a stored document written by an
	// incompatible build.
	ErrSchemaVersion = errors.New("storage: unsupported document version")
)

// Document keys.
const (
	keyAlerts       = "alerts"
	keyRateHistory  = "rate_history"
	keyAlertHistory = "alert_history"
	keySettings     = "settings"
	keyTrendPrefix  = "trend:"
)

// KV is the persistence contract shared by all backends.
type KV interface {
	// Get returns the document stored under key, or ok=false when absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
