// Package types defines the core data structures for the Vestige memory
// substrate: memories, their retention state, connections, synaptic tags,
// intentions, and the tagged unions the cognitive pipelines pass between
// each other.
package types

import "time"

// GateDecision is the tagged-union result of IngestGate's prediction-error
// gating algorithm (spec §4.3).
type GateDecision string

const (
	DecisionCreate    GateDecision = "create"
	DecisionReinforce GateDecision = "reinforce"
	DecisionUpdate    GateDecision = "update"
	DecisionSupersede GateDecision = "supersede"
)

// ValidGateDecisions lists every recognized GateDecision value.
var ValidGateDecisions = []GateDecision{
	DecisionCreate, DecisionReinforce, DecisionUpdate, DecisionSupersede,
}

// IsValidGateDecision reports whether d is a recognized GateDecision.
func IsValidGateDecision(d GateDecision) bool {
	for _, v := range ValidGateDecisions {
		if v == d {
			return true
		}
	}
	return false
}

// ImportanceChannels is the four-channel breakdown IngestGate computes for
// every Create/Update decision (spec §4.3 step 6).
type ImportanceChannels struct {
	Novelty   float64 `json:"novelty"`   // 1 - s1, similarity to the nearest prior memory
	Arousal   float64 `json:"arousal"`   // sentiment-lexicon magnitude
	Reward    float64 `json:"reward"`    // tag-set / source-reliability signal
	Attention float64 `json:"attention"` // recency of other writes
}

// Composite is the weighted-average importance score driving SynapticTag
// emission (>= 0.60 per spec §4.3 step 6 and §4.5).
func (c ImportanceChannels) Composite() float64 {
	return (c.Novelty + c.Arousal + c.Reward + c.Attention) / 4.0
}

// ImportanceEventKind tags the explicit importance events that trigger a
// synaptic-tag capture sweep (spec §4.5).
type ImportanceEventKind string

const (
	EventUserFlag       ImportanceEventKind = "user_flag"
	EventNoveltySpike   ImportanceEventKind = "novelty_spike"
	EventEmotional      ImportanceEventKind = "emotional"
	EventRepeatedAccess ImportanceEventKind = "repeated_access"
	EventCrossReference ImportanceEventKind = "cross_reference"
)

// BaseStrength is the fixed per-event-type base_strength table from spec §4.5.
var BaseStrength = map[ImportanceEventKind]float64{
	EventUserFlag:       1.0,
	EventNoveltySpike:   0.9,
	EventEmotional:      0.8,
	EventRepeatedAccess: 0.6,
	EventCrossReference: 0.7,
}

// RadiusFactor is the per-event-type capture-window radius scaling from
// spec §4.5 step 2 (novelty_spike narrows the window, emotional widens it).
var RadiusFactor = map[ImportanceEventKind]float64{
	EventUserFlag:       1.0,
	EventNoveltySpike:   0.7,
	EventEmotional:      1.5,
	EventRepeatedAccess: 1.0,
	EventCrossReference: 1.1,
}

// DecayFunctionFor is the per-event-type decay shape table backing "decay ∈
// {exp, linear, power, log} selectable per event type" (spec §4.5 step 2).
// A capture sweep looks this up by its own triggering event kind, not by
// anything recorded on the tag: user_flag is a sharp, deliberate signal
// (exp); novelty_spike already narrows its window, so it also cuts off hard
// (linear); emotional already widens its window, so it keeps the longest
// tail (log); cross_reference sits between the two (power); repeated_access
// keeps the same shape IngestGate used to hardcode (exp).
var DecayFunctionFor = map[ImportanceEventKind]DecayFn{
	EventUserFlag:       DecayExp,
	EventNoveltySpike:   DecayLinear,
	EventEmotional:      DecayLog,
	EventRepeatedAccess: DecayExp,
	EventCrossReference: DecayPower,
}

// InsightKind classifies a DreamCycle transfer-phase insight (spec §4.6 step 5).
type InsightKind string

const (
	InsightHiddenConnection InsightKind = "hidden_connection"
	InsightRecurringPattern InsightKind = "recurring_pattern"
	InsightGeneralization   InsightKind = "generalization"
	InsightContradiction    InsightKind = "contradiction"
	InsightKnowledgeGap     InsightKind = "knowledge_gap"
	InsightTemporalTrend    InsightKind = "temporal_trend"
	InsightSynthesis        InsightKind = "synthesis"
)

// ValidInsightKinds lists every recognized InsightKind value.
var ValidInsightKinds = []InsightKind{
	InsightHiddenConnection, InsightRecurringPattern, InsightGeneralization,
	InsightContradiction, InsightKnowledgeGap, InsightTemporalTrend, InsightSynthesis,
}

// Insight is a DreamCycle transfer-phase output: a cluster of mutually
// connected memories sharing an implicit commonality, surfaced to the caller
// and also persisted as a Memory(node_type=concept).
type Insight struct {
	Kind        InsightKind `json:"kind"`
	MemoryIDs   []string    `json:"memory_ids"`
	SummaryText string      `json:"summary_text"`
}

// EventVariant tags the kind of cognitive event published to the EventSink
// (spec §4.8).
type EventVariant string

const (
	EvMemoryCreated          EventVariant = "memory_created"
	EvMemoryUpdated          EventVariant = "memory_updated"
	EvMemoryDeleted          EventVariant = "memory_deleted"
	EvMemoryPromoted         EventVariant = "memory_promoted"
	EvMemoryDemoted          EventVariant = "memory_demoted"
	EvSearchPerformed        EventVariant = "search_performed"
	EvDreamStarted           EventVariant = "dream_started"
	EvDreamProgress          EventVariant = "dream_progress"
	EvDreamCompleted         EventVariant = "dream_completed"
	EvConsolidationStarted   EventVariant = "consolidation_started"
	EvConsolidationCompleted EventVariant = "consolidation_completed"
	EvRetentionDecayed       EventVariant = "retention_decayed"
	EvConnectionDiscovered   EventVariant = "connection_discovered"
	EvActivationSpread       EventVariant = "activation_spread"
	EvImportanceScored       EventVariant = "importance_scored"
	EvHeartbeat              EventVariant = "heartbeat"

	// EvInvariantViolation is not in spec.md's fixed variant list: it is a
	// diagnostic-only addition published when an engine operation detects a
	// consistency problem (a scheduler review that would lower
	// storage_strength). The operation that found it still fails with the
	// error, except RecoverUnswept, which skips that one tag and continues.
	EvInvariantViolation EventVariant = "invariant_violation"
)

// Event is the envelope published on the EventSink. Payload fields unrelated
// to Variant are left zero; consumers switch on Variant.
type Event struct {
	Variant   EventVariant `json:"variant"`
	Timestamp time.Time    `json:"timestamp"`
	MemoryID  string       `json:"memory_id,omitempty"`
	MemoryIDs []string     `json:"memory_ids,omitempty"`
	Query     string       `json:"query,omitempty"`
	Decision  GateDecision `json:"decision,omitempty"`
	FromState MemoryState  `json:"from_state,omitempty"`
	ToState   MemoryState  `json:"to_state,omitempty"`
	Detail    string       `json:"detail,omitempty"`
}
