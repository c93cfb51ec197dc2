package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequestForInjection_CleanRequests(t *testing.T) {
	requests := []string{
		"",
		"how many people are there",
		"list assignments for department 10",
		"show me the employee headcount",
	}

	for _, req := range requests {
		assert.Nil(t, CheckRequestForInjection(req), "request %q", req)
	}
}

func TestCheckRequestForInjection_DetectsSQLi(t *testing.T) {
	result := CheckRequestForInjection("'; DROP TABLE users--")

	require.NotNil(t, result)
	assert.NotEmpty(t, result.Fingerprint)
	assert.Equal(t, "'; DROP TABLE users--", result.Input)
}

func TestCheckRequestForInjection_UnionSelect(t *testing.T) {
	result := CheckRequestForInjection("1' UNION SELECT password FROM users--")

	require.NotNil(t, result)
	assert.NotEmpty(t, result.Fingerprint)
}
