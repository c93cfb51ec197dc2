package services

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/models"
	sqlutil "github.com/reportgrid/sqlagent/pkg/sql"
)

// ValidationService checks SQL table references against the registry for a
// schema and suggests corrections for unknown names.
type ValidationService interface {
	// Validate reports which referenced tables are unknown in the schema.
	// Input anomalies (empty schema, empty SQL) yield a valid verdict, not
	// an error; only registry failures return an error.
	Validate(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error)
}

type validationService struct {
	cache  *SchemaCache
	ranker *sqlutil.SuggestionRanker
	logger *zap.Logger
}

// NewValidationService creates a ValidationService over the given cache.
func NewValidationService(cache *SchemaCache, logger *zap.Logger) ValidationService {
	return &validationService{
		cache:  cache,
		ranker: sqlutil.NewSuggestionRanker(),
		logger: logger.Named("validation"),
	}
}

var _ ValidationService = (*validationService)(nil)

func (s *validationService) Validate(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error) {
	result := &models.ValidationResult{
		Valid:          true,
		MissingObjects: []string{},
		Suggestions:    map[string][]string{},
	}

	schema = models.NormalizeIdentifier(schema)
	if schema == "" || strings.TrimSpace(sqlText) == "" {
		// Nothing to check is a defined verdict, not an error.
		return result, nil
	}

	identifiers := sqlutil.ExtractTableIdentifiers(sqlText)
	if len(identifiers) == 0 {
		return result, nil
	}

	known, err := s.cache.GetTables(ctx, schema)
	if err != nil {
		// A silently empty set here would produce false missing verdicts.
		return nil, err
	}

	for _, id := range identifiers {
		if _, ok := known[id]; !ok {
			result.MissingObjects = append(result.MissingObjects, id)
		}
	}
	result.Valid = len(result.MissingObjects) == 0

	if !result.Valid && len(known) > 0 {
		candidates := make([]string, 0, len(known))
		for name := range known {
			candidates = append(candidates, name)
		}
		sort.Strings(candidates)

		for _, missing := range result.MissingObjects {
			result.Suggestions[missing] = s.ranker.Rank(missing, candidates)
		}
	}

	if !result.Valid {
		s.logger.Debug("SQL references unknown tables",
			zap.String("schema", schema),
			zap.Strings("missing", result.MissingObjects))
	}

	return result, nil
}
