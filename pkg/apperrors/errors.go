package apperrors

import "errors"

var (
	ErrEmptySchemaName     = errors.New("schema name must not be empty")
	ErrRegistryUnavailable = errors.New("table registry unavailable")
)
