// Package repositories provides data access for the table registry.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/reportgrid/sqlagent/pkg/database"
	"github.com/reportgrid/sqlagent/pkg/models"
)

// TableRegistryRepository is the persistence boundary for schema/table
// existence. ListTables returns an empty set for an unknown schema rather
// than an error; AddTables is all-or-nothing.
type TableRegistryRepository interface {
	// ListTables returns the table names registered for a schema, sorted.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// AddTables registers names under a schema in a single transaction and
	// returns how many were newly inserted. Names already present are
	// skipped and do not count.
	AddTables(ctx context.Context, schema string, names []string) (int, error)
}

type tableRegistryRepository struct {
	db *database.DB
}

// NewTableRegistryRepository creates a TableRegistryRepository backed by
// PostgreSQL.
func NewTableRegistryRepository(db *database.DB) TableRegistryRepository {
	return &tableRegistryRepository{db: db}
}

var _ TableRegistryRepository = (*tableRegistryRepository)(nil)

func (r *tableRegistryRepository) ListTables(ctx context.Context, schema string) ([]string, error) {
	schema = models.NormalizeIdentifier(schema)

	rows, err := r.db.Query(ctx,
		`SELECT table_name FROM engine_table_registry WHERE schema_name = $1 ORDER BY table_name`,
		schema)
	if err != nil {
		return nil, fmt.Errorf("query tables for schema %s: %w", schema, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

func (r *tableRegistryRepository) AddTables(ctx context.Context, schema string, names []string) (int, error) {
	schema = models.NormalizeIdentifier(schema)
	if len(names) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	inserted := 0
	for _, name := range names {
		tag, err := tx.Exec(ctx,
			`INSERT INTO engine_table_registry (schema_name, table_name, created_at, updated_at)
			 VALUES ($1, $2, $3, $3)
			 ON CONFLICT (schema_name, table_name) DO NOTHING`,
			schema, models.NormalizeIdentifier(name), now)
		if err != nil {
			return 0, fmt.Errorf("insert table %s.%s: %w", schema, name, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}
