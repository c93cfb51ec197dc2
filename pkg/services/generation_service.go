package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/audit"
	"github.com/reportgrid/sqlagent/pkg/llm"
	"github.com/reportgrid/sqlagent/pkg/models"
	sqlutil "github.com/reportgrid/sqlagent/pkg/sql"
)

// Default tables for deterministic generation, Oracle HCM flavored.
const (
	defaultTable     = "PER_ALL_PEOPLE_F"
	peopleTable      = "PER_ALL_PEOPLE_F"
	assignmentsTable = "PER_ALL_ASSIGNMENTS_F"

	// rowLimit bounds deterministic SELECT output.
	rowLimit = 100
)

// defaultBackendTimeout bounds the generative backend call.
const defaultBackendTimeout = 10 * time.Second

const generationSystemPrompt = "You are a SQL assistant for an Oracle HCM reporting database. " +
	"Answer with a single SQL SELECT statement and nothing else. " +
	"Only reference tables you were given."

// Keyword groups for deterministic classification, checked in priority order.
var (
	countKeywords  = []string{"count", "how many", "number of"}
	selectKeywords = []string{"show", "list", "get", "find"}

	// Secondary keywords route to a table. Words are singularized before
	// matching so "employees" and "employee" behave alike.
	peopleKeywords     = map[string]struct{}{"person": {}, "employee": {}, "worker": {}}
	assignmentKeywords = map[string]struct{}{"assignment": {}, "job": {}, "position": {}}
)

// GenerationService turns a natural-language request into a validated SQL
// statement. When a generative backend is configured it is tried first; any
// backend failure falls back to deterministic keyword rules for that call
// without surfacing an error.
type GenerationService interface {
	GenerateAndValidate(ctx context.Context, schema, request string) (*models.GenerationOutcome, error)
}

type generationService struct {
	validator ValidationService
	cache     *SchemaCache
	backend   llm.Client // nil when no generative backend is configured
	auditor   *audit.QueryAuditor
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGenerationService creates a GenerationService. Pass a nil backend to
// run deterministic-only. A non-positive timeout uses the 10s default.
func NewGenerationService(
	validator ValidationService,
	cache *SchemaCache,
	backend llm.Client,
	auditor *audit.QueryAuditor,
	timeout time.Duration,
	logger *zap.Logger,
) GenerationService {
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}
	return &generationService{
		validator: validator,
		cache:     cache,
		backend:   backend,
		auditor:   auditor,
		timeout:   timeout,
		logger:    logger.Named("generation"),
	}
}

var _ GenerationService = (*generationService)(nil)

func (s *generationService) GenerateAndValidate(ctx context.Context, schema, request string) (*models.GenerationOutcome, error) {
	schema = models.NormalizeIdentifier(schema)
	start := time.Now()

	var (
		sqlText string
		method  = models.GenerationMethodDeterministic
	)

	if s.backend != nil {
		if hit := sqlutil.CheckRequestForInjection(request); hit != nil {
			// Never feed a request carrying SQL fragments to the backend.
			s.auditor.LogInjectionAttempt(schema, request, hit.Fingerprint)
		} else {
			generated, err := s.generateWithBackend(ctx, schema, request)
			if err != nil {
				if isRegistryFailure(err) {
					return nil, err
				}
				s.logger.Warn("Generative backend failed, falling back to deterministic rules",
					zap.String("schema", schema),
					zap.Error(err))
			} else {
				sqlText = generated
				method = models.GenerationMethodGenerative
			}
		}
	}

	if sqlText == "" {
		sqlText = deterministicSQL(request)
		method = models.GenerationMethodDeterministic
	}

	validation, err := s.validator.Validate(ctx, schema, sqlText)
	if err != nil {
		return nil, fmt.Errorf("validate generated SQL: %w", err)
	}

	s.auditor.LogGeneratedSQL(schema, sqlText, method, validation.Valid, time.Since(start))

	return &models.GenerationOutcome{
		SQL:        sqlText,
		Validation: validation,
		Method:     method,
	}, nil
}

// registryError marks an error that must surface to the caller instead of
// triggering the deterministic fallback.
type registryError struct{ err error }

func (e *registryError) Error() string { return e.err.Error() }
func (e *registryError) Unwrap() error { return e.err }

func isRegistryFailure(err error) bool {
	_, ok := err.(*registryError)
	return ok
}

func (s *generationService) generateWithBackend(ctx context.Context, schema, request string) (string, error) {
	// The prompt embeds the known-table list so the backend is constrained
	// to real tables. A registry failure here is a persistence error, not a
	// backend failure.
	known, err := s.cache.GetTables(ctx, schema)
	if err != nil {
		return "", &registryError{err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.backend.Complete(ctx, buildPrompt(schema, request, known), generationSystemPrompt)
	if err != nil {
		return "", err
	}

	sqlText := sqlutil.StripCodeFence(raw)
	if sqlText == "" {
		return "", fmt.Errorf("backend returned no SQL")
	}

	return sqlText, nil
}

func buildPrompt(schema, request string, known map[string]struct{}) string {
	tables := make([]string, 0, len(known))
	for name := range known {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Schema: %s\n", schema)
	if len(tables) > 0 {
		sb.WriteString("Known tables:\n")
		for _, t := range tables {
			fmt.Fprintf(&sb, "- %s\n", t)
		}
	} else {
		sb.WriteString("No tables are registered for this schema.\n")
	}
	fmt.Fprintf(&sb, "\nRequest: %s\n", request)

	return sb.String()
}

// deterministicSQL synthesizes SQL from keyword classification. It is total:
// every request maps to some statement, which makes it a safe universal
// fallback.
func deterministicSQL(request string) string {
	req := strings.ToLower(request)

	switch {
	case containsAny(req, countKeywords):
		return fmt.Sprintf("SELECT COUNT(*) FROM %s", routeTable(req))
	case containsAny(req, selectKeywords):
		return fmt.Sprintf("SELECT * FROM %s FETCH FIRST %d ROWS ONLY", routeTable(req), rowLimit)
	default:
		return fmt.Sprintf("SELECT * FROM %s FETCH FIRST %d ROWS ONLY", defaultTable, rowLimit)
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// routeTable picks the target table from the request's subject words.
func routeTable(request string) string {
	for _, word := range strings.FieldsFunc(request, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		singular := inflection.Singular(word)
		if _, ok := peopleKeywords[singular]; ok {
			return peopleTable
		}
		if _, ok := assignmentKeywords[singular]; ok {
			return assignmentsTable
		}
	}
	return defaultTable
}
