package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/reportgrid/sqlagent/pkg/apperrors"
	"github.com/reportgrid/sqlagent/pkg/services"
)

// SQLHandler serves the validation, generation, and registration endpoints.
type SQLHandler struct {
	validator services.ValidationService
	generator services.GenerationService
	registry  services.RegistryService
	logger    *zap.Logger
}

// NewSQLHandler creates a SQLHandler.
func NewSQLHandler(
	validator services.ValidationService,
	generator services.GenerationService,
	registry services.RegistryService,
	logger *zap.Logger,
) *SQLHandler {
	return &SQLHandler{
		validator: validator,
		generator: generator,
		registry:  registry,
		logger:    logger.Named("handlers"),
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *SQLHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sql/validate", h.ValidateSQL)
	mux.HandleFunc("POST /api/sql/generate", h.GenerateSQL)
	mux.HandleFunc("POST /api/tables", h.RegisterTables)
}

type validateRequest struct {
	SchemaName string `json:"schemaName"`
	SQL        string `json:"sql"`
}

type generateRequest struct {
	SchemaName string `json:"schemaName"`
	Request    string `json:"request"`
}

type generateResponse struct {
	SQL              string              `json:"sql"`
	Valid            bool                `json:"valid"`
	MissingObjects   []string            `json:"missingObjects"`
	Suggestions      map[string][]string `json:"suggestions"`
	GenerationMethod string              `json:"generationMethod"`
}

type registerRequest struct {
	SchemaName string   `json:"schemaName"`
	Tables     []string `json:"tables"`
}

// ValidateSQL handles POST /api/sql/validate.
// A SQL statement referencing unknown tables is a 200 with valid=false;
// only registry failures are errors.
func (h *SQLHandler) ValidateSQL(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	result, err := h.validator.Validate(r.Context(), req.SchemaName, req.SQL)
	if err != nil {
		h.logger.Error("Validation failed", zap.String("schema", req.SchemaName), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "registry_error", "failed to check tables against the registry")
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

// GenerateSQL handles POST /api/sql/generate.
// A generative backend failure is invisible here beyond generationMethod
// reporting "Deterministic".
func (h *SQLHandler) GenerateSQL(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	outcome, err := h.generator.GenerateAndValidate(r.Context(), req.SchemaName, req.Request)
	if err != nil {
		h.logger.Error("Generation failed", zap.String("schema", req.SchemaName), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "registry_error", "failed to check tables against the registry")
		return
	}

	_ = WriteJSON(w, http.StatusOK, generateResponse{
		SQL:              outcome.SQL,
		Valid:            outcome.Validation.Valid,
		MissingObjects:   outcome.Validation.MissingObjects,
		Suggestions:      outcome.Validation.Suggestions,
		GenerationMethod: string(outcome.Method),
	})
}

// RegisterTables handles POST /api/tables.
func (h *SQLHandler) RegisterTables(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}

	result, err := h.registry.RegisterTables(r.Context(), req.SchemaName, req.Tables)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptySchemaName) {
			_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		h.logger.Error("Registration failed", zap.String("schema", req.SchemaName), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "registry_error", "failed to register tables")
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}
