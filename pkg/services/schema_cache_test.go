package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/apperrors"
)

func TestSchemaCache_LazyFetchAndReuse(t *testing.T) {
	reg := newFakeRegistry()
	reg.seed("HCM", "PER_ALL_PEOPLE_F")
	cache := NewSchemaCache(reg, zap.NewNop())

	ctx := context.Background()

	first, err := cache.GetTables(ctx, "HCM")
	require.NoError(t, err)
	assert.Contains(t, first, "PER_ALL_PEOPLE_F")
	assert.Equal(t, 1, reg.listCalls)

	// Second lookup is served from the cache.
	second, err := cache.GetTables(ctx, "hcm")
	require.NoError(t, err)
	assert.Contains(t, second, "PER_ALL_PEOPLE_F")
	assert.Equal(t, 1, reg.listCalls)
}

func TestSchemaCache_UnknownSchemaIsEmptyNotError(t *testing.T) {
	cache := NewSchemaCache(newFakeRegistry(), zap.NewNop())

	set, err := cache.GetTables(context.Background(), "NOWHERE")
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestSchemaCache_InvalidateForcesRefetch(t *testing.T) {
	reg := newFakeRegistry()
	reg.seed("HCM", "PER_ALL_PEOPLE_F")
	cache := NewSchemaCache(reg, zap.NewNop())
	ctx := context.Background()

	_, err := cache.GetTables(ctx, "HCM")
	require.NoError(t, err)

	reg.seed("HCM", "PER_ALL_ASSIGNMENTS_F")
	cache.Invalidate("HCM")

	set, err := cache.GetTables(ctx, "HCM")
	require.NoError(t, err)
	assert.Contains(t, set, "PER_ALL_ASSIGNMENTS_F")
	assert.Equal(t, 2, reg.listCalls)
}

func TestSchemaCache_RegistryErrorSurfaces(t *testing.T) {
	reg := newFakeRegistry()
	reg.listErr = errors.New("connection refused")
	cache := NewSchemaCache(reg, zap.NewNop())

	_, err := cache.GetTables(context.Background(), "HCM")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRegistryUnavailable)
	assert.ErrorContains(t, err, "connection refused")
}

// A fetch that started before an invalidation must not install its result;
// the next lookup re-fetches and observes the write.
func TestSchemaCache_FetchRacingInvalidationIsNotCached(t *testing.T) {
	reg := newFakeRegistry()
	reg.seed("HCM", "OLD_TABLE")
	cache := NewSchemaCache(reg, zap.NewNop())
	ctx := context.Background()

	fetchStarted := make(chan struct{})
	release := make(chan struct{})
	reg.listHook = func(call int) {
		if call == 1 {
			close(fetchStarted)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := cache.GetTables(ctx, "HCM")
		done <- err
	}()

	<-fetchStarted
	reg.seed("HCM", "NEW_TABLE")
	cache.Invalidate("HCM")
	close(release)
	require.NoError(t, <-done)

	// The stale fetch must not have been installed.
	set, err := cache.GetTables(ctx, "HCM")
	require.NoError(t, err)
	assert.Contains(t, set, "NEW_TABLE")
	assert.Equal(t, 2, reg.listCalls)
}

func TestSchemaCache_ClearDropsEverything(t *testing.T) {
	reg := newFakeRegistry()
	reg.seed("A", "T1")
	reg.seed("B", "T2")
	cache := NewSchemaCache(reg, zap.NewNop())
	ctx := context.Background()

	_, err := cache.GetTables(ctx, "A")
	require.NoError(t, err)
	_, err = cache.GetTables(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, 2, reg.listCalls)

	cache.Clear()

	_, err = cache.GetTables(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, reg.listCalls)
}
