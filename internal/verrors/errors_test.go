package verrors_test

import (
	"errors"
	"testing"

	"github.com/zeroaltitude/vestige/internal/verrors"
	"github.com/stretchr/testify/assert"
)

func TestWrap_PreservesKindAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := verrors.Wrap(verrors.KindStorageError, cause, "writing memory")

	assert.Equal(t, verrors.KindStorageError, verrors.KindOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, verrors.IsStorageError(err))
}

func TestNew_MatchesSentinelByKind(t *testing.T) {
	err := verrors.New(verrors.KindNotFound, "memory mem_1 not found")

	assert.True(t, verrors.IsNotFound(err))
	assert.False(t, verrors.IsInvalidInput(err))
}

func TestKindOf_DefaultsToStorageErrorForUnclassified(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, verrors.KindStorageError, verrors.KindOf(plain))
}

func TestError_IncludesCauseInMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := verrors.Wrap(verrors.KindDependencyUnavailable, cause, "embedding call")

	assert.Contains(t, err.Error(), "connection reset")
	assert.Contains(t, err.Error(), "dependency_unavailable")
}
