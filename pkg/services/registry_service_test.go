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

func TestRegisterTables_AddsAndCounts(t *testing.T) {
	reg := newFakeRegistry()
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())

	result, err := svc.RegisterTables(context.Background(), "hcm",
		[]string{"per_all_people_f", "per_all_assignments_f"})
	require.NoError(t, err)

	assert.Equal(t, "HCM", result.SchemaName)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, result.Total)
}

func TestRegisterTables_Idempotent(t *testing.T) {
	reg := newFakeRegistry()
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())
	ctx := context.Background()

	first, err := svc.RegisterTables(ctx, "HCM", []string{"T1", "T2"})
	require.NoError(t, err)
	require.Equal(t, 2, first.Count)

	second, err := svc.RegisterTables(ctx, "HCM", []string{"T1", "T2"})
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Equal(t, first.Total, second.Total)
}

func TestRegisterTables_DuplicateAndEmptyInputCollapsed(t *testing.T) {
	reg := newFakeRegistry()
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())

	result, err := svc.RegisterTables(context.Background(), "HCM",
		[]string{"t1", "T1", "", "  ", "t2"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, result.Total)
}

func TestRegisterTables_EmptySchemaRejected(t *testing.T) {
	reg := newFakeRegistry()
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())

	_, err := svc.RegisterTables(context.Background(), "  ", []string{"T1"})
	assert.ErrorIs(t, err, apperrors.ErrEmptySchemaName)
	assert.Equal(t, 0, reg.addCalls)
}

func TestRegisterTables_WriteFailureSurfaces(t *testing.T) {
	reg := newFakeRegistry()
	reg.addErr = errors.New("deadlock detected")
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())

	_, err := svc.RegisterTables(context.Background(), "HCM", []string{"T1"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "deadlock detected")
}

// After registration returns, a validation against the same schema must see
// the new tables even if the schema was cached beforehand.
func TestRegisterTables_InvalidatesCacheBeforeReturning(t *testing.T) {
	reg := newFakeRegistry()
	cache := NewSchemaCache(reg, zap.NewNop())
	svc := NewRegistryService(reg, cache, zap.NewNop())
	validator := NewValidationService(cache, zap.NewNop())
	ctx := context.Background()

	// Warm the cache with an empty schema view.
	result, err := validator.Validate(ctx, "HCM", "SELECT * FROM T1")
	require.NoError(t, err)
	require.False(t, result.Valid)

	_, err = svc.RegisterTables(ctx, "HCM", []string{"T1"})
	require.NoError(t, err)

	result, err = validator.Validate(ctx, "HCM", "SELECT * FROM T1")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}
