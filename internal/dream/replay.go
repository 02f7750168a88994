package dream

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/zeroaltitude/vestige/internal/scheduler"
	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/zeroaltitude/vestige/pkg/types"
)

// replay selects the N most recently created/accessed memories and issues a
// pseudo-access at quality=Good against each, per spec §4.6 phase 1.
func (c *Cycle) replay(ctx context.Context, now time.Time) ([]*types.Memory, error) {
	all, err := c.store.AllActive(ctx)
	if err != nil {
		return nil, verrors.Wrap(verrors.KindStorageError, err, "listing active memories for replay")
	}

	sort.Slice(all, func(i, j int) bool {
		return lastTouched(all[i]).After(lastTouched(all[j]))
	})

	n := c.replaySize
	if n > len(all) {
		n = len(all)
	}
	set := all[:n]

	for i, mem := range set {
		if _, err := c.scheduler.Review(mem, scheduler.Good, now); err != nil {
			c.publish(types.Event{Variant: types.EvInvariantViolation, Timestamp: now, MemoryID: mem.ID})
			return nil, err
		}
		if err := c.store.Update(ctx, mem); err != nil {
			return nil, verrors.Wrap(verrors.KindStorageError, err, "recording replay access")
		}
		if err := c.store.RecordAccess(ctx, mem.ID, now); err != nil {
			return nil, verrors.Wrap(verrors.KindStorageError, err, "recording replay access history")
		}
		c.publish(types.Event{
			Variant: types.EvDreamProgress, Timestamp: now, MemoryID: mem.ID,
			Detail: progressDetail(i+1, n),
		})
	}
	return set, nil
}

func lastTouched(m *types.Memory) time.Time {
	if m.LastAccessedAt.After(m.CreatedAt) {
		return m.LastAccessedAt
	}
	return m.CreatedAt
}

func progressDetail(done, total int) string {
	return "replaying memory " + strconv.Itoa(done) + " of " + strconv.Itoa(total)
}
