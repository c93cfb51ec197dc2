package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/apperrors"
	"github.com/reportgrid/sqlagent/pkg/models"
)

type mockValidationService struct {
	validateFunc func(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error)
}

func (m *mockValidationService) Validate(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error) {
	if m.validateFunc != nil {
		return m.validateFunc(ctx, schema, sqlText)
	}
	return &models.ValidationResult{Valid: true, MissingObjects: []string{}, Suggestions: map[string][]string{}}, nil
}

type mockGenerationService struct {
	generateFunc func(ctx context.Context, schema, request string) (*models.GenerationOutcome, error)
}

func (m *mockGenerationService) GenerateAndValidate(ctx context.Context, schema, request string) (*models.GenerationOutcome, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, schema, request)
	}
	return &models.GenerationOutcome{
		SQL:        "SELECT 1",
		Validation: &models.ValidationResult{Valid: true, MissingObjects: []string{}, Suggestions: map[string][]string{}},
		Method:     models.GenerationMethodDeterministic,
	}, nil
}

type mockRegistryService struct {
	registerFunc func(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error)
}

func (m *mockRegistryService) RegisterTables(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, schema, names)
	}
	return &models.RegistrationResult{SchemaName: schema, Count: len(names), Total: len(names)}, nil
}

func newTestMux(v *mockValidationService, g *mockGenerationService, r *mockRegistryService) *http.ServeMux {
	mux := http.NewServeMux()
	NewSQLHandler(v, g, r, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func postJSON(t *testing.T, mux *http.ServeMux, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestValidateSQL_OK(t *testing.T) {
	v := &mockValidationService{
		validateFunc: func(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error) {
			assert.Equal(t, "HCM", schema)
			assert.Equal(t, "SELECT * FROM MISSING", sqlText)
			return &models.ValidationResult{
				Valid:          false,
				MissingObjects: []string{"MISSING"},
				Suggestions:    map[string][]string{"MISSING": {"PER_ALL_PEOPLE_F"}},
			}, nil
		},
	}
	mux := newTestMux(v, &mockGenerationService{}, &mockRegistryService{})

	rec := postJSON(t, mux, "/api/sql/validate", map[string]string{
		"schemaName": "HCM",
		"sql":        "SELECT * FROM MISSING",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Valid)
	assert.Equal(t, []string{"MISSING"}, body.MissingObjects)
	assert.Equal(t, []string{"PER_ALL_PEOPLE_F"}, body.Suggestions["MISSING"])
}

func TestValidateSQL_RegistryErrorIs500(t *testing.T) {
	v := &mockValidationService{
		validateFunc: func(ctx context.Context, schema, sqlText string) (*models.ValidationResult, error) {
			return nil, errors.New("registry down")
		},
	}
	mux := newTestMux(v, &mockGenerationService{}, &mockRegistryService{})

	rec := postJSON(t, mux, "/api/sql/validate", map[string]string{"schemaName": "HCM", "sql": "SELECT 1"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "registry_error", body["error"])
}

func TestValidateSQL_MalformedBodyIs400(t *testing.T) {
	mux := newTestMux(&mockValidationService{}, &mockGenerationService{}, &mockRegistryService{})

	req := httptest.NewRequest(http.MethodPost, "/api/sql/validate", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateSQL_FlattensOutcome(t *testing.T) {
	g := &mockGenerationService{
		generateFunc: func(ctx context.Context, schema, request string) (*models.GenerationOutcome, error) {
			return &models.GenerationOutcome{
				SQL: "SELECT COUNT(*) FROM PER_ALL_PEOPLE_F",
				Validation: &models.ValidationResult{
					Valid:          true,
					MissingObjects: []string{},
					Suggestions:    map[string][]string{},
				},
				Method: models.GenerationMethodGenerative,
			}, nil
		},
	}
	mux := newTestMux(&mockValidationService{}, g, &mockRegistryService{})

	rec := postJSON(t, mux, "/api/sql/generate", map[string]string{
		"schemaName": "HCM",
		"request":    "how many people",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SELECT COUNT(*) FROM PER_ALL_PEOPLE_F", body["sql"])
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "Generative", body["generationMethod"])
}

func TestGenerateSQL_RegistryErrorIs500(t *testing.T) {
	g := &mockGenerationService{
		generateFunc: func(ctx context.Context, schema, request string) (*models.GenerationOutcome, error) {
			return nil, errors.New("registry down")
		},
	}
	mux := newTestMux(&mockValidationService{}, g, &mockRegistryService{})

	rec := postJSON(t, mux, "/api/sql/generate", map[string]string{"schemaName": "HCM", "request": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRegisterTables_OK(t *testing.T) {
	r := &mockRegistryService{
		registerFunc: func(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error) {
			assert.Equal(t, "HCM", schema)
			assert.Equal(t, []string{"PER_ALL_PEOPLE_F"}, names)
			return &models.RegistrationResult{SchemaName: "HCM", Count: 1, Total: 3}, nil
		},
	}
	mux := newTestMux(&mockValidationService{}, &mockGenerationService{}, r)

	rec := postJSON(t, mux, "/api/tables", map[string]any{
		"schemaName": "HCM",
		"tables":     []string{"PER_ALL_PEOPLE_F"},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.RegistrationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 3, body.Total)
}

func TestRegisterTables_EmptySchemaIs400(t *testing.T) {
	r := &mockRegistryService{
		registerFunc: func(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error) {
			return nil, apperrors.ErrEmptySchemaName
		},
	}
	mux := newTestMux(&mockValidationService{}, &mockGenerationService{}, r)

	rec := postJSON(t, mux, "/api/tables", map[string]any{"schemaName": "", "tables": []string{"T"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterTables_WriteFailureIs500(t *testing.T) {
	r := &mockRegistryService{
		registerFunc: func(ctx context.Context, schema string, names []string) (*models.RegistrationResult, error) {
			return nil, errors.New("constraint violated")
		},
	}
	mux := newTestMux(&mockValidationService{}, &mockGenerationService{}, r)

	rec := postJSON(t, mux, "/api/tables", map[string]any{"schemaName": "HCM", "tables": []string{"T"}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
