package engine

import (
	"context"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// ModuleHealth reports one collaborator's circuit-breaker state, omitted
// entirely when the collaborator isn't wrapped in a breaker (e.g. the
// dependency-free hash embedder has nothing to report).
type ModuleHealth struct {
	Name                 string
	State                string
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
}

// SystemStatus is system_status()'s report (spec §6 system_status tool row).
type SystemStatus struct {
	TotalMemories        int
	ByState              map[types.MemoryState]int
	AverageRetention     float64
	WritesSinceLastDream int
	LastDreamAt          string
	ModuleHealth         []ModuleHealth
	Recommendations      []string
}

// SystemStatus reports memory counts by state, average retrievability,
// dream scheduling, and embedder/reranker circuit-breaker health, plus a
// short list of operator-facing recommendations derived from the above.
func (e *Engine) SystemStatus(ctx context.Context) (SystemStatus, error) {
	if err := e.checkStarted(); err != nil {
		return SystemStatus{}, err
	}

	memories, err := e.store.AllActive(ctx)
	if err != nil {
		return SystemStatus{}, verrors.Wrap(verrors.KindStorageError, err, "listing active memories")
	}

	status := SystemStatus{
		TotalMemories: len(memories),
		ByState:       make(map[types.MemoryState]int),
	}
	var retentionSum float64
	for _, mem := range memories {
		status.ByState[mem.State]++
		retentionSum += mem.RetrievalStrength
	}
	if len(memories) > 0 {
		status.AverageRetention = retentionSum / float64(len(memories))
	}

	state := e.engineState()
	status.WritesSinceLastDream = state.WritesSinceLastDream
	if !state.LastDreamAt.IsZero() {
		status.LastDreamAt = state.LastDreamAt.Format("2006-01-02T15:04:05Z07:00")
	}

	if e.embedHealth != nil {
		status.ModuleHealth = append(status.ModuleHealth, moduleHealth("embedder", e.embedHealth))
	}
	if e.rerankHealth != nil {
		status.ModuleHealth = append(status.ModuleHealth, moduleHealth("reranker", e.rerankHealth))
	}

	status.Recommendations = recommendations(status)
	return status, nil
}

func moduleHealth(name string, h breakerHealth) ModuleHealth {
	m := h.Metrics()
	return ModuleHealth{Name: name, State: h.State(), ConsecutiveFailures: m.ConsecutiveFailures, ConsecutiveSuccesses: m.ConsecutiveSuccesses}
}

func recommendations(s SystemStatus) []string {
	var out []string
	if s.ByState[types.StateUnavailable] > s.TotalMemories/4 && s.TotalMemories > 0 {
		out = append(out, "a large share of memories are unavailable; consider running consolidate()")
	}
	if s.WritesSinceLastDream >= 50 {
		out = append(out, "write count since last dream is high; a dream cycle is due")
	}
	for _, m := range s.ModuleHealth {
		if m.State != "closed" {
			out = append(out, m.Name+" circuit breaker is "+m.State)
		}
	}
	return out
}
