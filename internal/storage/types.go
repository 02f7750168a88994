// Package storage defines the persistence interfaces the cognitive engine
// depends on, and (in the sqlite subpackage) a pure-Go backing
// implementation. The store is the single source of truth: it owns its own
// reader/writer discipline so the engine never needs to coordinate
// concurrent access itself beyond its coarse lock.
package storage

import (
	"time"

	"github.com/zeroaltitude/vestige/pkg/types"
)

// PaginatedResult represents a paginated result set with type safety using generics.
type PaginatedResult[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
	HasMore  bool
}

// ListOptions provides pagination and filtering options for List.
type ListOptions struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string

	NodeType       types.NodeType
	Tag            string
	IncludeDeleted bool
	OnlyDeleted    bool
	State          types.MemoryState
	CreatedAfter   time.Time
	CreatedBefore  time.Time
}

// Normalize applies defaults and validates the ListOptions.
func (o *ListOptions) Normalize() {
	allowedSortFields := map[string]bool{
		"created_at": true, "updated_at": true, "last_accessed_at": true,
		"retrieval_strength": true, "stability": true,
	}
	if !allowedSortFields[o.SortBy] {
		o.SortBy = "created_at"
	}
	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 200 {
		o.Limit = 200
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// SearchOptions configures a keyword or vector search call.
type SearchOptions struct {
	Query         string
	Vector        []float32
	Limit         int
	Offset        int
	IncludeState  []types.MemoryState // not read by the sqlite KeywordSearch/VectorSearch, which exclude only tombstoned memories
	FuzzyFallback bool
}

// Normalize applies defaults and validates the SearchOptions.
func (o *SearchOptions) Normalize() {
	if o.Limit < 1 {
		o.Limit = 10
	}
	if o.Limit > 500 {
		o.Limit = 500
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// Scored pairs a memory with the raw score its search stage assigned it
// (BM25 rank or cosine similarity), before pipeline fusion rescales it.
type Scored struct {
	Memory *types.Memory
	Score  float64
}

// GraphBounds prevents combinatorial explosion during graph traversal
// (explore() and spreading activation).
type GraphBounds struct {
	MaxHops  int
	MaxNodes int
	Timeout  time.Duration
}

// Normalize applies defaults and caps to GraphBounds.
func (g *GraphBounds) Normalize() {
	if g.MaxHops < 1 {
		g.MaxHops = 2
	}
	if g.MaxHops > 6 {
		g.MaxHops = 6
	}
	if g.MaxNodes < 1 {
		g.MaxNodes = 100
	}
	if g.MaxNodes > 1000 {
		g.MaxNodes = 1000
	}
	if g.Timeout == 0 {
		g.Timeout = 10 * time.Second
	}
}

// TraversalResult is a memory reached via Connection-edge graph traversal,
// annotated with how it was reached.
type TraversalResult struct {
	Memory      *types.Memory
	HopDistance int
	Activation  float64 // cumulative edge-weight product along the path taken
	Path        []string
}

// StateTransition records a MemoryState crossing, for audit and for the
// retrieval pipeline's competition-stage bookkeeping.
type StateTransition struct {
	MemoryID  string
	From      types.MemoryState
	To        types.MemoryState
	Reason    string
	Timestamp time.Time
}

// EngineState holds small persisted counters/timestamps that must survive a
// process restart but aren't themselves memories (spec §3 "Supplemented
// features": dream write-threshold persistence).
type EngineState struct {
	WritesSinceLastDream int
	LastDreamAt          time.Time
}
