package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/apperrors"
	"github.com/reportgrid/sqlagent/pkg/models"
	"github.com/reportgrid/sqlagent/pkg/repositories"
)

// RegistryService registers tables into the registry and keeps the schema
// cache coherent with writes.
type RegistryService interface {
	// RegisterTables adds names under a schema. Registration is idempotent:
	// names already present are skipped and do not count toward Count.
	RegisterTables(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error)
}

type registryService struct {
	repo   repositories.TableRegistryRepository
	cache  *SchemaCache
	logger *zap.Logger
}

// NewRegistryService creates a RegistryService.
func NewRegistryService(repo repositories.TableRegistryRepository, cache *SchemaCache, logger *zap.Logger) RegistryService {
	return &registryService{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("registry"),
	}
}

var _ RegistryService = (*registryService)(nil)

func (s *registryService) RegisterTables(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error) {
	schema = models.NormalizeIdentifier(schema)
	if schema == "" {
		return nil, apperrors.ErrEmptySchemaName
	}

	normalized := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		n := models.NormalizeIdentifier(name)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		normalized = append(normalized, n)
	}

	count, err := s.repo.AddTables(ctx, schema, normalized)
	if err != nil {
		return nil, fmt.Errorf("register tables for schema %s: %w", schema, err)
	}

	// The cache entry must be gone before control returns to the caller so
	// the next lookup reflects this write.
	s.cache.Invalidate(schema)

	tables, err := s.repo.ListTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("count tables for schema %s: %w", schema, err)
	}

	s.logger.Info("Registered tables",
		zap.String("schema", schema),
		zap.Int("added", count),
		zap.Int("total", len(tables)))

	return &models.RegistrationResult{
		SchemaName: schema,
		Count:      count,
		Total:      len(tables),
	}, nil
}
