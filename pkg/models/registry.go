package models

import (
	"strings"
	"time"
)

// GenerationMethod identifies which strategy produced a SQL statement.
type GenerationMethod string

const (
	// GenerationMethodGenerative means the SQL came from the generative backend.
	GenerationMethodGenerative GenerationMethod = "Generative"
	// GenerationMethodDeterministic means the SQL came from keyword rules,
	// either because no backend is configured or as a fallback after a
	// backend failure.
	GenerationMethodDeterministic GenerationMethod = "Deterministic"
)

// TableRegistryEntry is one (schema, table) pair known to the registry.
// Names are stored uppercase; the pair is unique within the registry.
type TableRegistryEntry struct {
	SchemaName string    `json:"schema_name"`
	TableName  string    `json:"table_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ValidationResult is the verdict for one SQL statement against one schema.
//
// Valid is true exactly when MissingObjects is empty. MissingObjects keeps
// the order identifiers first appear in the SQL text, deduplicated.
// Suggestions has an entry only for names present in MissingObjects, and
// only when the schema has at least one known table to rank against.
type ValidationResult struct {
	Valid          bool                `json:"valid"`
	MissingObjects []string            `json:"missingObjects"`
	Suggestions    map[string][]string `json:"suggestions"`
}

// RegistrationResult reports the effect of a table registration.
// Count is the number of names newly inserted (re-registering an existing
// pair is a no-op); Total is the schema's table count after the write.
type RegistrationResult struct {
	SchemaName string `json:"schemaName"`
	Count      int    `json:"count"`
	Total      int    `json:"total"`
}

// GenerationOutcome packages a synthesized SQL statement with its validation
// verdict and the strategy that actually produced the final text.
type GenerationOutcome struct {
	SQL        string            `json:"sql"`
	Validation *ValidationResult `json:"validation"`
	Method     GenerationMethod  `json:"generationMethod"`
}

// NormalizeIdentifier uppercases and trims a schema or table identifier.
// All internal comparisons and storage keys use this form.
func NormalizeIdentifier(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
