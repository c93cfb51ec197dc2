package logging

import "regexp"

// RedactedText replaces sensitive values in log output.
const RedactedText = "[REDACTED]"

// maxSQLLogLength bounds how much of a SQL statement is logged.
const maxSQLLogLength = 200

var (
	// password=..., pwd=..., pass=... in keyword/value connection strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL-style connection strings
	credentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// api_key=..., apikey=... query or config values
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey)=[A-Za-z0-9-_]{8,}`)
)

// SanitizeConnectionString redacts credentials from a connection string so it
// can be logged at startup.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	out := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	out = credentialsPattern.ReplaceAllString(out, "://"+RedactedText+"@"+RedactedText)
	return out
}

// SanitizeSQL truncates a SQL statement for logging and redacts anything that
// looks like an embedded credential.
func SanitizeSQL(sqlText string) string {
	if len(sqlText) > maxSQLLogLength {
		sqlText = sqlText[:maxSQLLogLength] + "..."
	}
	sqlText = passwordPattern.ReplaceAllString(sqlText, "${1}="+RedactedText)
	return apiKeyPattern.ReplaceAllString(sqlText, "${1}="+RedactedText)
}
