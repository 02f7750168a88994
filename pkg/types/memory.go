package types

import "time"

// NodeType tags the kind of thing a Memory represents.
type NodeType string

const (
	NodeFact     NodeType = "fact"
	NodeConcept  NodeType = "concept"
	NodeDecision NodeType = "decision"
	NodePattern  NodeType = "pattern"
	NodeEvent    NodeType = "event"
	NodePerson   NodeType = "person"
	NodePlace    NodeType = "place"
	NodeNote     NodeType = "note"
)

// ValidNodeTypes lists every recognized NodeType value.
var ValidNodeTypes = []NodeType{
	NodeFact, NodeConcept, NodeDecision, NodePattern,
	NodeEvent, NodePerson, NodePlace, NodeNote,
}

// IsValidNodeType reports whether t is a recognized NodeType. Empty is valid
// and defaults to NodeNote at ingest time.
func IsValidNodeType(t NodeType) bool {
	if t == "" {
		return true
	}
	for _, v := range ValidNodeTypes {
		if v == t {
			return true
		}
	}
	return false
}

// maxAccessHistory bounds the access_history slice (spec §3: cap last N).
const maxAccessHistory = 128

// EncodingContext captures the context present when a memory was created,
// consulted later by the retrieval pipeline's context-match stage (see
// GLOSSARY: encoding specificity).
type EncodingContext struct {
	TimeOfDayBucket string   `json:"time_of_day_bucket,omitempty"` // "morning", "afternoon", "evening", "night"
	Tags            []string `json:"tags,omitempty"`
	Project         string   `json:"project,omitempty"`
}

// Memory is the atomic unit of storage in Vestige: textual content plus its
// FSRS-6 retention state, embedding, and bookkeeping for the cognitive
// pipelines that read and write it.
type Memory struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Type    NodeType `json:"node_type"`
	Tags    []string `json:"tags,omitempty"`

	Embedding          []float32 `json:"embedding,omitempty"`
	EmbeddingDimension int       `json:"embedding_dimension,omitempty"`
	EmbeddingVersion   int       `json:"embedding_version,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// FSRS-6 retention model state (§4.2).
	Stability         float64 `json:"stability"`
	Difficulty        float64 `json:"difficulty"`
	StorageStrength   float64 `json:"storage_strength"`
	RetrievalStrength float64 `json:"retrieval_strength"`
	ReviewCount       int     `json:"review_count"`

	// AccessHistory is capped at maxAccessHistory entries, oldest dropped first.
	AccessHistory []time.Time `json:"access_history,omitempty"`

	Source          string          `json:"source,omitempty"`
	EncodingContext EncodingContext `json:"encoding_context"`

	// State is the derived accessibility classification (active/dormant/silent/unavailable).
	State          MemoryState `json:"state"`
	StateUpdatedAt time.Time   `json:"state_updated_at,omitempty"`

	// Unavailable marks a soft-deleted tombstone (spec §3: "unavailable" + zero retrieval_strength).
	Unavailable bool      `json:"unavailable"`
	DeletedAt   time.Time `json:"deleted_at,omitempty"`

	// SupersedesID back-links a Supersede-created memory to the memory it replaced.
	SupersedesID string `json:"supersedes_id,omitempty"`

	// ContentHash supports exact-duplicate detection prior to embedding comparison.
	ContentHash string `json:"content_hash,omitempty"`
}

// RecordAccess appends ts to AccessHistory, capping it at maxAccessHistory by
// dropping the oldest entries, and bumps ReviewCount and LastAccessedAt.
func (m *Memory) RecordAccess(ts time.Time) {
	m.AccessHistory = append(m.AccessHistory, ts)
	if len(m.AccessHistory) > maxAccessHistory {
		m.AccessHistory = m.AccessHistory[len(m.AccessHistory)-maxAccessHistory:]
	}
	m.ReviewCount++
	m.LastAccessedAt = ts
}

// ConnectionType classifies why a Connection edge was discovered.
type ConnectionType string

const (
	ConnSemantic      ConnectionType = "semantic"
	ConnSharedConcept ConnectionType = "shared_concept"
	ConnTemporal      ConnectionType = "temporal"
	ConnComplementary ConnectionType = "complementary"
	ConnCausalChain   ConnectionType = "causal_chain"

	// ConnImportanceCluster is not one of spec.md's five dream cross-reference
	// classifications (those describe DreamCycle's own discovery phase): it
	// gives synaptic tagging's capture-sweep "importance_cluster" (spec §4.5
	// step 3) a persistent backing by linking every memory a sweep captured
	// together as a mutually connected edge set.
	ConnImportanceCluster ConnectionType = "importance_cluster"
)

// Connection is an undirected edge between two memories, canonicalized so
// MemoryA < MemoryB lexically (spec §3).
type Connection struct {
	MemoryA      string         `json:"memory_a"`
	MemoryB      string         `json:"memory_b"`
	Weight       float64        `json:"weight"`
	DiscoveredAt time.Time      `json:"discovered_at"`
	Type         ConnectionType `json:"type"`
}

// CanonicalPair returns (a, b) ordered so a <= b, matching the Connection
// edge-key convention used throughout storage and the dream cycle.
func CanonicalPair(x, y string) (string, string) {
	if x <= y {
		return x, y
	}
	return y, x
}

// DecayFn is one of the capture-probability decay shapes a sweep can apply
// (spec §4.5 step 2). Which shape applies is chosen by the sweep's
// triggering ImportanceEventKind via DecayFunctionFor, not by the tag.
type DecayFn string

const (
	DecayExp    DecayFn = "exp"
	DecayLinear DecayFn = "linear"
	DecayPower  DecayFn = "power"
	DecayLog    DecayFn = "log"
)

// SynapticTag marks a memory as eligible for retroactive importance capture
// until it expires (spec §4.5). DecayFunction records the shape in effect
// when the tag was created; the shape actually used to score a capture
// sweep is re-derived from that sweep's own event kind, since a tag can
// outlive the event that created it and sit in the window of a later,
// differently-kinded one.
type SynapticTag struct {
	MemoryID      string    `json:"memory_id"`
	CreatedAt     time.Time `json:"created_at"`
	TagStrength   float64   `json:"tag_strength"`
	DecayFunction DecayFn   `json:"decay_function"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IntentionStatus is the lifecycle state of an Intention.
type IntentionStatus string

const (
	IntentionActive    IntentionStatus = "active"
	IntentionFulfilled IntentionStatus = "fulfilled"
	IntentionSnoozed   IntentionStatus = "snoozed"
	IntentionCancelled IntentionStatus = "cancelled"
)

// TriggerKind tags the variant of an IntentionTrigger.
type TriggerKind string

const (
	TriggerTime    TriggerKind = "time"
	TriggerContext TriggerKind = "context"
	TriggerEvent   TriggerKind = "event"
)

// IntentionTrigger is a tagged union over the three trigger kinds spec §3
// describes. Only the fields relevant to Kind are populated.
type IntentionTrigger struct {
	Kind TriggerKind `json:"kind"`

	// TriggerTime
	At time.Time `json:"at,omitempty"`

	// TriggerContext
	TagPattern []string `json:"tag_pattern,omitempty"`
	Project    string   `json:"project,omitempty"`

	// TriggerEvent: matched against an EventVariant name (exact, or "*" wildcard).
	EventPredicate string `json:"event_predicate,omitempty"`
}

// Intention is a prospective-memory trigger (spec §4.7).
type Intention struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Trigger     IntentionTrigger `json:"trigger"`
	Priority    int              `json:"priority"`
	Status      IntentionStatus  `json:"status"`
	Recurring   bool             `json:"recurring"`
	CreatedAt   time.Time        `json:"created_at"`
	FulfilledAt time.Time        `json:"fulfilled_at,omitempty"`
}
