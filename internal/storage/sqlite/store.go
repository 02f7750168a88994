// Package sqlite implements storage.Store on top of modernc.org/sqlite, a
// pure-Go (no cgo) SQLite driver. It is sized for the spec's target scale
// (under ten thousand memories, not millions): vector search is an
// in-process cosine scan rather than an indexed ANN structure.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// Store implements storage.Store using SQLite in WAL mode with a single
// connection. The pool is capped to one open connection, so reads and writes
// alike are serialized through it.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) a SQLite database at dsn, configures
// WAL mode, and ensures the schema exists.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "opening database")
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, verrors.Wrap(verrors.KindStorageError, err, fmt.Sprintf("applying %q", pragma))
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, verrors.Wrap(verrors.KindStorageError, err, "creating schema")
	}

	log.Printf("sqlite: opened store at %s", dsn)
	return &Store{db: db, path: dsn}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ storage.MemoryStore = (*Store)(nil)

func (s *Store) Store(ctx context.Context, m *types.Memory) error {
	if m == nil || m.ID == "" || m.Content == "" {
		return verrors.New(verrors.KindInvalidInput, "memory id and content are required")
	}
	if m.ContentHash == "" {
		m.ContentHash = fmt.Sprintf("%x", sha256.Sum256([]byte(m.Content)))
	}
	if !types.IsValidNodeType(m.Type) {
		return verrors.New(verrors.KindInvalidInput, fmt.Sprintf("invalid node type %q", m.Type))
	}

	tagsJSON, err := json.Marshal(m.Tags)
	if err != nil {
		return verrors.Wrap(verrors.KindInvalidInput, err, "encoding tags")
	}
	historyJSON, err := json.Marshal(m.AccessHistory)
	if err != nil {
		return verrors.Wrap(verrors.KindInvalidInput, err, "encoding access history")
	}
	ctxJSON, err := json.Marshal(m.EncodingContext)
	if err != nil {
		return verrors.Wrap(verrors.KindInvalidInput, err, "encoding encoding_context")
	}
	embBlob := encodeEmbedding(m.Embedding)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (
			id, content, node_type, tags, embedding, embedding_dimension, embedding_version,
			created_at, updated_at, last_accessed_at,
			stability, difficulty, storage_strength, retrieval_strength, review_count, access_history,
			source, encoding_context, state, state_updated_at, unavailable, deleted_at,
			supersedes_id, content_hash
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
			content=excluded.content, node_type=excluded.node_type, tags=excluded.tags,
			embedding=excluded.embedding, embedding_dimension=excluded.embedding_dimension,
			embedding_version=excluded.embedding_version,
			updated_at=excluded.updated_at, last_accessed_at=excluded.last_accessed_at,
			stability=excluded.stability, difficulty=excluded.difficulty,
			storage_strength=excluded.storage_strength, retrieval_strength=excluded.retrieval_strength,
			review_count=excluded.review_count, access_history=excluded.access_history,
			source=excluded.source, encoding_context=excluded.encoding_context,
			state=excluded.state, state_updated_at=excluded.state_updated_at,
			unavailable=excluded.unavailable, deleted_at=excluded.deleted_at,
			supersedes_id=excluded.supersedes_id, content_hash=excluded.content_hash
	`,
		m.ID, m.Content, string(m.Type), string(tagsJSON), embBlob, m.EmbeddingDimension, m.EmbeddingVersion,
		m.CreatedAt, m.UpdatedAt, m.LastAccessedAt,
		m.Stability, m.Difficulty, m.StorageStrength, m.RetrievalStrength, m.ReviewCount, string(historyJSON),
		m.Source, string(ctxJSON), string(m.State), nullableTime(m.StateUpdatedAt), boolToInt(m.Unavailable), nullableTime(m.DeletedAt),
		nullableString(m.SupersedesID), m.ContentHash,
	)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "storing memory")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string, includeDeleted bool) (*types.Memory, error) {
	row := s.db.QueryRowContext(ctx, selectMemorySQL+" WHERE id = ?", id)
	m, err := scanMemory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.New(verrors.KindNotFound, fmt.Sprintf("memory %q not found", id))
		}
		return nil, verrors.Wrap(verrors.KindStorageError, err, "getting memory")
	}
	if m.Unavailable && !includeDeleted {
		return nil, verrors.New(verrors.KindNotFound, fmt.Sprintf("memory %q not found", id))
	}
	return m, nil
}

func (s *Store) GetByContentHash(ctx context.Context, hash string) (*types.Memory, error) {
	row := s.db.QueryRowContext(ctx, selectMemorySQL+" WHERE content_hash = ? AND unavailable = 0 LIMIT 1", hash)
	m, err := scanMemory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, verrors.New(verrors.KindNotFound, "no memory with that content hash")
		}
		return nil, verrors.Wrap(verrors.KindStorageError, err, "getting memory by content hash")
	}
	return m, nil
}

func (s *Store) List(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Memory], error) {
	opts.Normalize()

	where := "WHERE 1=1"
	var args []any
	if !opts.IncludeDeleted {
		where += " AND unavailable = 0"
	}
	if opts.OnlyDeleted {
		where += " AND unavailable = 1"
	}
	if opts.NodeType != "" {
		where += " AND node_type = ?"
		args = append(args, string(opts.NodeType))
	}
	if opts.State != "" {
		where += " AND state = ?"
		args = append(args, string(opts.State))
	}
	if opts.Tag != "" {
		where += " AND tags LIKE ?"
		args = append(args, "%\""+opts.Tag+"\"%")
	}
	if !opts.CreatedAfter.IsZero() {
		where += " AND created_at > ?"
		args = append(args, opts.CreatedAfter)
	}
	if !opts.CreatedBefore.IsZero() {
		where += " AND created_at < ?"
		args = append(args, opts.CreatedBefore)
	}

	countSQL := "SELECT COUNT(*) FROM memories " + where
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "counting memories")
	}

	querySQL := selectMemorySQL + " " + where + fmt.Sprintf(" ORDER BY %s %s LIMIT ? OFFSET ?", opts.SortBy, opts.SortOrder)
	args = append(args, opts.Limit, opts.Offset())

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing memories")
	}
	defer rows.Close()

	items, err := scanMemories(rows)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "scanning memories")
	}

	return &storage.PaginatedResult[types.Memory]{
		Items:    items,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(items) < total,
	}, nil
}

func (s *Store) Update(ctx context.Context, m *types.Memory) error {
	if _, err := s.Get(ctx, m.ID, true); err != nil {
		return err
	}
	return s.Store(ctx, m)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE memories SET unavailable = 1, deleted_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "deleting memory")
	}
	return requireRowAffected(res, id)
}

func (s *Store) Restore(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE memories SET unavailable = 0, deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "restoring memory")
	}
	return requireRowAffected(res, id)
}

func (s *Store) Purge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "purging memory")
	}
	if err := requireRowAffected(res, id); err != nil {
		return err
	}
	if err := s.DeleteConnectionsFor(ctx, id); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM synaptic_tags WHERE memory_id = ?`, id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "purging synaptic tags")
	}
	return nil
}

func (s *Store) GetEvolutionChain(ctx context.Context, memoryID string) ([]*types.Memory, error) {
	const maxHops = 50

	// Walk backward via supersedes_id to find the oldest ancestor.
	current, err := s.Get(ctx, memoryID, true)
	if err != nil {
		return nil, err
	}
	oldest := current
	for i := 0; i < maxHops && oldest.SupersedesID != ""; i++ {
		prev, err := s.Get(ctx, oldest.SupersedesID, true)
		if err != nil {
			break
		}
		oldest = prev
	}

	chain := []*types.Memory{oldest}
	seen := map[string]bool{oldest.ID: true}
	for i := 0; i < maxHops; i++ {
		row := s.db.QueryRowContext(ctx, selectMemorySQL+" WHERE supersedes_id = ? LIMIT 1", chain[len(chain)-1].ID)
		next, err := scanMemory(row)
		if err != nil {
			break
		}
		if seen[next.ID] {
			break
		}
		chain = append(chain, next)
		seen[next.ID] = true
	}
	return chain, nil
}

func (s *Store) RecordAccess(ctx context.Context, id string, at time.Time) error {
	m, err := s.Get(ctx, id, true)
	if err != nil {
		return err
	}
	m.RecordAccess(at)
	return s.Store(ctx, m)
}

func (s *Store) RecordStateTransition(ctx context.Context, t storage.StateTransition) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO state_transitions (memory_id, from_state, to_state, reason, timestamp)
		VALUES (?,?,?,?,?)
	`, t.MemoryID, string(t.From), string(t.To), t.Reason, t.Timestamp)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "recording state transition")
	}
	return nil
}

func (s *Store) UpdateRetentionFields(ctx context.Context, id string, stability, difficulty, storageStrength, retrievalStrength float64, state types.MemoryState) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE memories SET stability=?, difficulty=?, storage_strength=?, retrieval_strength=?,
			state=?, state_updated_at=?
		WHERE id=?
	`, stability, difficulty, storageStrength, retrievalStrength, string(state), time.Now(), id)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "updating retention fields")
	}
	return requireRowAffected(res, id)
}

func (s *Store) AllActive(ctx context.Context) ([]*types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, selectMemorySQL+" WHERE unavailable = 0 ORDER BY created_at DESC")
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing active memories")
	}
	defer rows.Close()
	items, err := scanMemories(rows)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "scanning memories")
	}
	out := make([]*types.Memory, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

func requireRowAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "checking rows affected")
	}
	if n == 0 {
		return verrors.New(verrors.KindNotFound, fmt.Sprintf("memory %q not found", id))
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
