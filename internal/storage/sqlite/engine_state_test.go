package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeroaltitude/vestige/internal/storage"
)

func TestLoadEngineState_DefaultsWhenUnset(t *testing.T) {
	s := openTestStore(t)
	st, err := s.LoadEngineState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, st.WritesSinceLastDream)
	assert.True(t, st.LastDreamAt.IsZero())
}

func TestSaveAndLoadEngineState_RoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, s.SaveEngineState(ctx, storage.EngineState{
		WritesSinceLastDream: 37,
		LastDreamAt:          now,
	}))

	got, err := s.LoadEngineState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 37, got.WritesSinceLastDream)
	assert.WithinDuration(t, now, got.LastDreamAt, time.Second)
}

func TestSaveEngineState_OverwritesPreviousValue(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEngineState(ctx, storage.EngineState{WritesSinceLastDream: 10}))
	require.NoError(t, s.SaveEngineState(ctx, storage.EngineState{WritesSinceLastDream: 20}))

	got, err := s.LoadEngineState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, got.WritesSinceLastDream)
}
