package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

var _ storage.ConnectionStore = (*Store)(nil)

func (s *Store) UpsertConnection(ctx context.Context, c types.Connection) error {
	a, b := types.CanonicalPair(c.MemoryA, c.MemoryB)
	if a == b {
		return verrors.New(verrors.KindInvalidInput, "a connection must join two distinct memories")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connection_edges (memory_a, memory_b, weight, type, discovered_at)
		VALUES (?,?,?,?,?)
		ON CONFLICT(memory_a, memory_b) DO UPDATE SET weight=excluded.weight, type=excluded.type
	`, a, b, c.Weight, string(c.Type), c.DiscoveredAt)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "upserting connection")
	}
	return nil
}

func (s *Store) GetConnection(ctx context.Context, x, y string) (*types.Connection, error) {
	a, b := types.CanonicalPair(x, y)
	row := s.db.QueryRowContext(ctx, `
		SELECT memory_a, memory_b, weight, type, discovered_at
		FROM connection_edges WHERE memory_a = ? AND memory_b = ?
	`, a, b)
	c, err := scanConnection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.New(verrors.KindNotFound, fmt.Sprintf("no connection between %q and %q", x, y))
		}
		return nil, verrors.Wrap(verrors.KindStorageError, err, "getting connection")
	}
	return c, nil
}

func (s *Store) Neighbors(ctx context.Context, memoryID string) ([]types.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT memory_a, memory_b, weight, type, discovered_at
		FROM connection_edges WHERE memory_a = ? OR memory_b = ?
	`, memoryID, memoryID)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing neighbors")
	}
	defer rows.Close()

	var out []types.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			continue
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) AllConnections(ctx context.Context) ([]types.Connection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT memory_a, memory_b, weight, type, discovered_at FROM connection_edges`)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing all connections")
	}
	defer rows.Close()

	var out []types.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			continue
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DecayAllConnections multiplies every edge weight by factor and deletes
// edges that fall below dropBelow, implementing DreamCycle phase 4 (prune).
func (s *Store) DecayAllConnections(ctx context.Context, factor float64, dropBelow float64) (int, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE connection_edges SET weight = weight * ?`, factor); err != nil {
		return 0, verrors.Wrap(verrors.KindStorageError, err, "decaying connections")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM connection_edges WHERE weight < ?`, dropBelow)
	if err != nil {
		return 0, verrors.Wrap(verrors.KindStorageError, err, "pruning connections")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) DeleteConnectionsFor(ctx context.Context, memoryID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM connection_edges WHERE memory_a = ? OR memory_b = ?`, memoryID, memoryID)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "deleting connections")
	}
	return nil
}

func scanConnection(row rowScanner) (*types.Connection, error) {
	var c types.Connection
	var typ string
	if err := row.Scan(&c.MemoryA, &c.MemoryB, &c.Weight, &typ, &c.DiscoveredAt); err != nil {
		return nil, err
	}
	c.Type = types.ConnectionType(typ)
	return &c, nil
}
