// Package audit provides structured audit logging of SQL generation in
// JSON form suitable for SIEM ingestion.
package audit

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/logging"
	"github.com/reportgrid/sqlagent/pkg/models"
)

// EventType categorizes audit events for filtering and alerting.
type EventType string

const (
	// EventSQLGenerated is logged once for every generated statement.
	EventSQLGenerated EventType = "sql_generated"
	// EventInjectionAttempt is logged when libinjection flags a
	// natural-language request as carrying SQL injection patterns.
	EventInjectionAttempt EventType = "sql_injection_attempt"
)

// QueryAuditor records generation activity on a dedicated logger namespace
// so audit lines can be filtered out of the application log stream.
type QueryAuditor struct {
	logger *zap.Logger
}

// NewQueryAuditor creates an auditor logging under the "audit" namespace.
func NewQueryAuditor(logger *zap.Logger) *QueryAuditor {
	return &QueryAuditor{logger: logger.Named("audit")}
}

// LogGeneratedSQL records one generated statement with its outcome.
func (a *QueryAuditor) LogGeneratedSQL(schema, sqlText string, method models.GenerationMethod, valid bool, elapsed time.Duration) {
	a.logger.Info("SQL generated",
		zap.String("event_id", uuid.NewString()),
		zap.String("event_type", string(EventSQLGenerated)),
		zap.String("schema", schema),
		zap.String("sql", logging.SanitizeSQL(sqlText)),
		zap.String("method", string(method)),
		zap.Bool("valid", valid),
		zap.Duration("elapsed", elapsed))
}

// LogInjectionAttempt records a request that libinjection fingerprinted as a
// SQL injection attempt. Logged at WARN with critical severity for alerting.
func (a *QueryAuditor) LogInjectionAttempt(schema, request, fingerprint string) {
	a.logger.Warn("SQL injection pattern in generation request",
		zap.String("event_id", uuid.NewString()),
		zap.String("event_type", string(EventInjectionAttempt)),
		zap.String("schema", schema),
		zap.String("request", logging.SanitizeSQL(request)),
		zap.String("fingerprint", fingerprint),
		zap.String("severity", "critical"))
}
