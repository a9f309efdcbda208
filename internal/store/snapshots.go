package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/localscout/internal/persist"
)

// PutSnapshot stores data under (sessionID, key), replacing any previous
// value.
func (s *Store) PutSnapshot(ctx context.Context, sessionID, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO filter_snapshots (session_id, key, data, updated_at)
		VALUES (?, ?, ?, ?)
	`, sessionID, key, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put snapshot %s/%s: %w", sessionID, key, err)
	}
	return nil
}

// GetSnapshot returns the value stored under (sessionID, key), or
// persist.ErrNotFound.
func (s *Store) GetSnapshot(ctx context.Context, sessionID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM filter_snapshots WHERE session_id = ? AND key = ?`,
		sessionID, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s/%s: %w", sessionID, key, err)
	}
	return data, nil
}

// PruneSnapshots deletes snapshots not written since cutoff and returns how
// many were removed.
func (s *Store) PruneSnapshots(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM filter_snapshots WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// SnapshotStorage returns a persist.Storage whose keys live in sessionID's
// namespace.
func (s *Store) SnapshotStorage(sessionID string) persist.Storage {
	return &sessionStorage{store: s, session: sessionID}
}

type sessionStorage struct {
	store   *Store
	session string
}

func (ss *sessionStorage) Get(ctx context.Context, key string) ([]byte, error) {
	return ss.store.GetSnapshot(ctx, ss.session, key)
}

func (ss *sessionStorage) Put(ctx context.Context, key string, data []byte) error {
	return ss.store.PutSnapshot(ctx, ss.session, key, data)
}
