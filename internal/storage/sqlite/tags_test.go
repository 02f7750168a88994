package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroaltitude/vestige/pkg/types"
)

func TestCreateSynapticTag_AndActiveTagsInWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, sampleMemory("tag-1")))

	now := time.Now()
	tag := types.SynapticTag{
		MemoryID:      "tag-1",
		CreatedAt:     now,
		TagStrength:   0.8,
		DecayFunction: types.DecayExp,
		ExpiresAt:     now.Add(9 * time.Hour),
	}
	require.NoError(t, s.CreateSynapticTag(ctx, tag))

	tags, err := s.ActiveTagsInWindow(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "tag-1", tags[0].MemoryID)
	assert.Equal(t, types.DecayExp, tags[0].DecayFunction)
}

func TestActiveTagsInWindow_ExcludesOutOfRangeTags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, sampleMemory("tag-2")))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.CreateSynapticTag(ctx, types.SynapticTag{
		MemoryID: "tag-2", CreatedAt: old, TagStrength: 0.5, ExpiresAt: old.Add(9 * time.Hour),
	}))

	tags, err := s.ActiveTagsInWindow(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestConsumeSynapticTag_MarksSweptAndExcludesFromWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, sampleMemory("tag-3")))

	now := time.Now()
	require.NoError(t, s.CreateSynapticTag(ctx, types.SynapticTag{
		MemoryID: "tag-3", CreatedAt: now, TagStrength: 0.5, ExpiresAt: now.Add(9 * time.Hour),
	}))
	require.NoError(t, s.ConsumeSynapticTag(ctx, "tag-3", now))

	tags, err := s.ActiveTagsInWindow(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestUnsweptTags_ReturnsOnlyExpiredUnconsumed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Store(ctx, sampleMemory("tag-4")))
	require.NoError(t, s.Store(ctx, sampleMemory("tag-5")))

	expired := time.Now().Add(-10 * time.Hour)
	require.NoError(t, s.CreateSynapticTag(ctx, types.SynapticTag{
		MemoryID: "tag-4", CreatedAt: expired, TagStrength: 0.5, ExpiresAt: expired.Add(time.Hour),
	}))

	future := time.Now().Add(time.Hour)
	require.NoError(t, s.CreateSynapticTag(ctx, types.SynapticTag{
		MemoryID: "tag-5", CreatedAt: time.Now(), TagStrength: 0.5, ExpiresAt: future,
	}))

	unswept, err := s.UnsweptTags(ctx)
	require.NoError(t, err)
	require.Len(t, unswept, 1)
	assert.Equal(t, "tag-4", unswept[0].MemoryID)
}
