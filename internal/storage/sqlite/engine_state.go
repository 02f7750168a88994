package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

var _ storage.EngineStateStore = (*Store)(nil)

// LoadEngineState reads the persisted dream-scheduling counters, resolving
// the open question of write-threshold persistence across restarts
// (SPEC_FULL §3/§4). Missing keys default to a zero EngineState.
func (s *Store) LoadEngineState(ctx context.Context) (storage.EngineState, error) {
	var st storage.EngineState

	var writesStr string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM engine_state WHERE key = 'writes_since_last_dream'`).Scan(&writesStr)
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(writesStr); convErr == nil {
			st.WritesSinceLastDream = n
		}
	case err == sql.ErrNoRows:
	default:
		return st, verrors.Wrap(verrors.KindStorageError, err, "loading writes_since_last_dream")
	}

	var lastDreamStr string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM engine_state WHERE key = 'last_dream_at'`).Scan(&lastDreamStr)
	switch {
	case err == nil:
		if t, convErr := time.Parse(time.RFC3339Nano, lastDreamStr); convErr == nil {
			st.LastDreamAt = t
		}
	case err == sql.ErrNoRows:
	default:
		return st, verrors.Wrap(verrors.KindStorageError, err, "loading last_dream_at")
	}

	return st, nil
}

func (s *Store) SaveEngineState(ctx context.Context, st storage.EngineState) error {
	if err := s.upsertEngineState(ctx, "writes_since_last_dream", strconv.Itoa(st.WritesSinceLastDream)); err != nil {
		return err
	}
	if !st.LastDreamAt.IsZero() {
		if err := s.upsertEngineState(ctx, "last_dream_at", st.LastDreamAt.Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) upsertEngineState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "saving engine state")
	}
	return nil
}
