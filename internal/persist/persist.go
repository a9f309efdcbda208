// Package persist snapshots the applied filter specification to
// session-scoped storage and restores it on startup.
//
// Persistence is best effort. Writes never block the caller and failures are
// logged, counted and otherwise ignored. A missing or corrupt snapshot
// restores as the default specification.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/localscout/internal/filter"
)

var (
	// ErrNotFound is returned by Storage.Get when key holds nothing.
	ErrNotFound = errors.New("persist: key not found")

	// ErrUnsupportedVersion is returned by Decode for snapshots written by
	// an incompatible build.
	ErrUnsupportedVersion = errors.New("persist: unsupported snapshot version")
)

// Storage is a key-value store scoped to one session.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

const snapshotVersion = 1

type envelope struct {
	Version int         `json:"v"`
	SavedAt time.Time   `json:"saved_at"`
	Spec    filter.Spec `json:"spec"`
}

// Encode serializes spec into a versioned snapshot.
func Encode(spec filter.Spec) ([]byte, error) {
	data, err := json.Marshal(envelope{
		Version: snapshotVersion,
		SavedAt: time.Now(),
		Spec:    spec,
	})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot. Fields absent from the snapshot keep their
// default values.
func Decode(data []byte) (filter.Spec, error) {
	env := envelope{Spec: filter.Default()}
	if err := json.Unmarshal(data, &env); err != nil {
		return filter.Default(), fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != snapshotVersion {
		return filter.Default(), fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return env.Spec, nil
}

// MemoryStorage is an in-process Storage. Safe for concurrent use.
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of data under key.
func (m *MemoryStorage) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}
