package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

var _ storage.IntentionStore = (*Store)(nil)

func (s *Store) CreateIntention(ctx context.Context, in types.Intention) error {
	triggerJSON, err := json.Marshal(in.Trigger)
	if err != nil {
		return verrors.Wrap(verrors.KindInvalidInput, err, "encoding intention trigger")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO intentions (id, description, trigger_kind, trigger_json, priority, status, recurring, created_at, fulfilled_at)
		VALUES (?,?,?,?,?,?,?,?,?)
	`, in.ID, in.Description, string(in.Trigger.Kind), string(triggerJSON), in.Priority, string(in.Status),
		boolToInt(in.Recurring), in.CreatedAt, nullableTime(in.FulfilledAt))
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "creating intention")
	}
	return nil
}

func (s *Store) GetIntention(ctx context.Context, id string) (*types.Intention, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, trigger_json, priority, status, recurring, created_at, fulfilled_at
		FROM intentions WHERE id = ?
	`, id)
	in, err := scanIntention(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.New(verrors.KindNotFound, fmt.Sprintf("intention %q not found", id))
		}
		return nil, verrors.Wrap(verrors.KindStorageError, err, "getting intention")
	}
	return in, nil
}

func (s *Store) UpdateIntentionStatus(ctx context.Context, id string, status types.IntentionStatus, fulfilledAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE intentions SET status = ?, fulfilled_at = ? WHERE id = ?
	`, string(status), nullableTime(fulfilledAt), id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "updating intention status")
	}
	return requireRowAffected(res, id)
}

func (s *Store) ListIntentions(ctx context.Context, status types.IntentionStatus) ([]types.Intention, error) {
	query := `SELECT id, description, trigger_json, priority, status, recurring, created_at, fulfilled_at FROM intentions`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY priority DESC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing intentions")
	}
	defer rows.Close()

	var out []types.Intention
	for rows.Next() {
		in, err := scanIntention(rows)
		if err != nil {
			continue
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

func scanIntention(row rowScanner) (*types.Intention, error) {
	var in types.Intention
	var triggerJSON, status string
	var recurring int
	var fulfilledAt sql.NullTime

	err := row.Scan(&in.ID, &in.Description, &triggerJSON, &in.Priority, &status, &recurring, &in.CreatedAt, &fulfilledAt)
	if err != nil {
		return nil, err
	}
	in.Status = types.IntentionStatus(status)
	in.Recurring = recurring != 0
	if fulfilledAt.Valid {
		in.FulfilledAt = fulfilledAt.Time
	}
	_ = json.Unmarshal([]byte(triggerJSON), &in.Trigger)
	return &in, nil
}
