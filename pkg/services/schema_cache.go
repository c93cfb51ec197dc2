// Package services contains the validation, registration, and generation
// orchestration around the table registry.
package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/apperrors"
	"github.com/reportgrid/sqlagent/pkg/models"
	"github.com/reportgrid/sqlagent/pkg/repositories"
)

// SchemaCache holds a lazily populated, per-schema set of known table names.
// Entries never expire on a timer; every mutating path must call Invalidate.
//
// Entries are version-stamped: a fetch that started before an Invalidate
// observes a version mismatch and does not install its (possibly stale)
// result, so an invalidate-then-refetch sequence cannot pin a stale set.
type SchemaCache struct {
	mu       sync.RWMutex
	entries  map[string]map[string]struct{}
	versions map[string]uint64

	registry repositories.TableRegistryRepository
	logger   *zap.Logger
}

// NewSchemaCache creates an empty cache over the given registry.
func NewSchemaCache(registry repositories.TableRegistryRepository, logger *zap.Logger) *SchemaCache {
	return &SchemaCache{
		entries:  make(map[string]map[string]struct{}),
		versions: make(map[string]uint64),
		registry: registry,
		logger:   logger.Named("schema_cache"),
	}
}

// GetTables returns the known table set for a schema, fetching from the
// registry on a miss. Concurrent callers for the same uncached schema may
// each fetch; they converge on a consistent final set. A registry failure is
// returned as an error, never as a silently empty set.
//
// The returned map is shared; callers must not mutate it.
func (c *SchemaCache) GetTables(ctx context.Context, schema string) (map[string]struct{}, error) {
	schema = models.NormalizeIdentifier(schema)

	c.mu.RLock()
	if set, ok := c.entries[schema]; ok {
		c.mu.RUnlock()
		return set, nil
	}
	version := c.versions[schema]
	c.mu.RUnlock()

	tables, err := c.registry.ListTables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch tables for schema %s: %w", apperrors.ErrRegistryUnavailable, schema, err)
	}

	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[models.NormalizeIdentifier(t)] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[schema] != version {
		// Invalidated while we were fetching. Serve this call from what we
		// fetched but leave the cache empty so the next call re-fetches.
		c.logger.Debug("Discarding fetch that raced an invalidation",
			zap.String("schema", schema))
		return set, nil
	}

	if existing, ok := c.entries[schema]; ok {
		// Another fetch won the race; converge on the installed set.
		return existing, nil
	}
	c.entries[schema] = set

	return set, nil
}

// Invalidate removes a schema's cached entry. The next GetTables re-fetches
// from the registry.
func (c *SchemaCache) Invalidate(schema string) {
	schema = models.NormalizeIdentifier(schema)

	c.mu.Lock()
	delete(c.entries, schema)
	c.versions[schema]++
	c.mu.Unlock()

	c.logger.Debug("Invalidated schema cache entry", zap.String("schema", schema))
}

// Clear drops every cached entry and fences off in-flight fetches. Intended
// for lifecycle teardown and tests.
func (c *SchemaCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for schema := range c.entries {
		if _, ok := c.versions[schema]; !ok {
			c.versions[schema] = 0
		}
	}
	for schema := range c.versions {
		c.versions[schema]++
	}
	c.entries = make(map[string]map[string]struct{})
}
