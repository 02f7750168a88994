package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

var _ storage.SynapticTagStore = (*Store)(nil)

func (s *Store) CreateSynapticTag(ctx context.Context, tag types.SynapticTag) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO synaptic_tags (memory_id, created_at, tag_strength, decay_function, expires_at, swept)
		VALUES (?,?,?,?,?,0)
	`, tag.MemoryID, tag.CreatedAt, tag.TagStrength, string(tag.DecayFunction), tag.ExpiresAt)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "creating synaptic tag")
	}
	return nil
}

func (s *Store) ActiveTagsInWindow(ctx context.Context, from, to time.Time) ([]types.SynapticTag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT memory_id, created_at, tag_strength, decay_function, expires_at
		FROM synaptic_tags
		WHERE swept = 0 AND created_at BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing active synaptic tags")
	}
	defer rows.Close()
	return scanTags(rows)
}

func (s *Store) ConsumeSynapticTag(ctx context.Context, memoryID string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE synaptic_tags SET swept = 1 WHERE memory_id = ? AND created_at = ?
	`, memoryID, createdAt)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "consuming synaptic tag")
	}
	return nil
}

// UnsweptTags returns tags whose expires_at has already passed but which
// were never swept — these are the crash-recovery candidates (spec
// SPEC_FULL §3: a process restart re-sweeps any tag orphaned mid-sweep).
func (s *Store) UnsweptTags(ctx context.Context) ([]types.SynapticTag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT memory_id, created_at, tag_strength, decay_function, expires_at
		FROM synaptic_tags
		WHERE swept = 0 AND expires_at < ?
	`, time.Now())
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing unswept synaptic tags")
	}
	defer rows.Close()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]types.SynapticTag, error) {
	var out []types.SynapticTag
	for rows.Next() {
		var t types.SynapticTag
		var decay string
		if err := rows.Scan(&t.MemoryID, &t.CreatedAt, &t.TagStrength, &decay, &t.ExpiresAt); err != nil {
			continue
		}
		t.DecayFunction = types.DecayFn(decay)
		out = append(out, t)
	}
	return out, rows.Err()
}
