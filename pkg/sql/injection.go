package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a SQL injection pattern detected in a
// natural-language request.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // the text that was checked
}

// CheckRequestForInjection screens a natural-language generation request for
// embedded SQL injection patterns. Request text is user data, never SQL, so
// anything libinjection fingerprints as SQLi is an attempt to smuggle SQL
// through the generation path.
//
// Returns nil when the request is clean.
func CheckRequestForInjection(request string) *InjectionCheckResult {
	if request == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(request)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		Fingerprint: string(fingerprint),
		Input:       request,
	}
}
