package storage

import (
	"context"
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// Store is the full persistence surface the cognitive engine depends on.
// It composes the narrower interfaces below; the sqlite backend implements
// all of them on a single *sql.DB, but keeping them separate lets the
// engine's collaborators (scheduler, retrieval pipeline, dream cycle) each
// depend on only the slice of Store they actually call.
type Store interface {
	MemoryStore
	ConnectionStore
	SynapticTagStore
	IntentionStore
	KeywordSearcher
	VectorSearcher
	EngineStateStore
	BackupRestorer

	Close() error
}

// MemoryStore provides CRUD, soft-delete/restore/purge, and access
// bookkeeping for memories.
type MemoryStore interface {
	// Store creates or updates a memory (upsert semantics, matched on ID).
	Store(ctx context.Context, memory *types.Memory) error

	// Get retrieves a memory by ID. Returns an error satisfying
	// verrors.IsNotFound if absent or tombstoned and includeDeleted is false.
	Get(ctx context.Context, id string, includeDeleted bool) (*types.Memory, error)

	// GetByContentHash looks up a memory by exact content hash, for
	// duplicate detection prior to embedding comparison. Returns a not-found
	// error if no match exists.
	GetByContentHash(ctx context.Context, hash string) (*types.Memory, error)

	// List retrieves memories with pagination and filtering.
	List(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Memory], error)

	// Update persists changes to an existing memory. Returns a not-found
	// error if the memory doesn't exist.
	Update(ctx context.Context, memory *types.Memory) error

	// Delete soft-deletes a memory (tombstone: sets Unavailable + DeletedAt).
	Delete(ctx context.Context, id string) error

	// Restore clears a soft-delete tombstone, undoing Delete.
	Restore(ctx context.Context, id string) error

	// Purge permanently removes a memory and its edges/tags. No engine
	// operation calls it; find_duplicates only reports clusters.
	Purge(ctx context.Context, id string) error

	// GetEvolutionChain walks supersedes_id back-links, returning versions
	// oldest-first (original at index 0, latest last). Capped at 50 hops.
	GetEvolutionChain(ctx context.Context, memoryID string) ([]*types.Memory, error)

	// RecordAccess appends an access timestamp (capped history) and bumps
	// review_count + last_accessed_at for the given memory.
	RecordAccess(ctx context.Context, id string, at time.Time) error

	// RecordStateTransition persists a MemoryState crossing for audit.
	RecordStateTransition(ctx context.Context, t StateTransition) error

	// UpdateRetentionFields writes the scheduler's derived fields (stability,
	// difficulty, storage/retrieval strength, state) back to a memory without
	// requiring the caller to round-trip the full Memory struct.
	UpdateRetentionFields(ctx context.Context, id string, stability, difficulty, storageStrength, retrievalStrength float64, state types.MemoryState) error

	// AllActive returns every non-tombstoned memory, for consolidate()'s
	// bulk decay pass and the dream cycle's replay-set selection.
	AllActive(ctx context.Context) ([]*types.Memory, error)
}

// KeywordSearcher performs FTS-backed full-text search.
type KeywordSearcher interface {
	KeywordSearch(ctx context.Context, opts SearchOptions) ([]Scored, error)
}

// VectorSearcher performs embedding-similarity search.
type VectorSearcher interface {
	VectorSearch(ctx context.Context, opts SearchOptions) ([]Scored, error)
}

// ConnectionStore manages the undirected Connection edge graph that backs
// spreading activation, explore(), and the dream cycle.
type ConnectionStore interface {
	UpsertConnection(ctx context.Context, c types.Connection) error
	GetConnection(ctx context.Context, a, b string) (*types.Connection, error)
	Neighbors(ctx context.Context, memoryID string) ([]types.Connection, error)
	DecayAllConnections(ctx context.Context, factor float64, dropBelow float64) (pruned int, err error)
	AllConnections(ctx context.Context) ([]types.Connection, error)
	DeleteConnectionsFor(ctx context.Context, memoryID string) error
}

// SynapticTagStore tracks retroactive-importance tags.
type SynapticTagStore interface {
	CreateSynapticTag(ctx context.Context, tag types.SynapticTag) error
	ActiveTagsInWindow(ctx context.Context, from, to time.Time) ([]types.SynapticTag, error)
	ConsumeSynapticTag(ctx context.Context, memoryID string, createdAt time.Time) error
	// UnsweptTags returns tags from a prior process lifetime whose capture
	// sweep never completed (crash recovery, SPEC_FULL §3).
	UnsweptTags(ctx context.Context) ([]types.SynapticTag, error)
}

// IntentionStore manages prospective-memory triggers.
type IntentionStore interface {
	CreateIntention(ctx context.Context, in types.Intention) error
	GetIntention(ctx context.Context, id string) (*types.Intention, error)
	UpdateIntentionStatus(ctx context.Context, id string, status types.IntentionStatus, fulfilledAt time.Time) error
	ListIntentions(ctx context.Context, status types.IntentionStatus) ([]types.Intention, error)
}

// EngineStateStore persists small cross-restart counters (dream scheduling).
type EngineStateStore interface {
	LoadEngineState(ctx context.Context) (EngineState, error)
	SaveEngineState(ctx context.Context, s EngineState) error
}

// BackupRestorer provides whole-database backup/restore/export, grounded on
// the teacher's three-way delete split and backup tooling (SPEC_FULL §3).
type BackupRestorer interface {
	Backup(ctx context.Context, path string) error
	RestoreFrom(ctx context.Context, path string) error
	Export(ctx context.Context, path string, format string) error
}
