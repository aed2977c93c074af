// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ericfisherdev/dynabridge/internal/application"
	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// Handler exposes the resolution pipeline over HTTP: entity-name resolution,
// schema lookup, and record queries.
type Handler struct {
	catalog  *application.EntityCatalog
	schemas  *application.SchemaRegistry
	querySvc *application.QueryService
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	catalog *application.EntityCatalog,
	schemas *application.SchemaRegistry,
	querySvc *application.QueryService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog:  catalog,
		schemas:  schemas,
		querySvc: querySvc,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/entities/resolve", h.ResolveEntity)
	mux.HandleFunc("GET /api/v1/entities/{set}/schema", h.GetSchema)
	mux.HandleFunc("POST /api/v1/entities/{name}/query", h.QueryEntity)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ResolveEntity fuzzy-resolves a raw entity name to its canonical entity-set
// name. A miss is a 404, not a server error.
func (h *Handler) ResolveEntity(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}

	canonical, ok := h.catalog.Resolve(r.Context(), name)
	if !ok {
		writeError(w, http.StatusNotFound, "could not resolve entity name")
		return
	}

	writeJSON(w, http.StatusOK, ResolveResponse{
		Name:          name,
		CanonicalName: canonical,
	})
}

// GetSchema returns the field schema for an entity set. The set name is
// fuzzy-resolved through the catalog first so callers can pass loose names.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	set := r.PathValue("set")

	if canonical, ok := h.catalog.Resolve(r.Context(), set); ok {
		set = canonical
	}

	schema, ok := h.schemas.SchemaFor(r.Context(), set)
	if !ok {
		writeError(w, http.StatusNotFound, "no schema for entity set")
		return
	}

	writeJSON(w, http.StatusOK, toSchemaResponse(set, schema))
}

// QueryEntity resolves the named entity, builds a typed filter from the
// request body, and returns matching records.
func (h *Handler) QueryEntity(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	filters := make([]model.Filter, 0, len(req.Filters))
	for _, f := range req.Filters {
		filters = append(filters, model.Filter{Field: f.Field, Value: f.Value})
	}

	result, err := h.querySvc.Query(r.Context(), name, filters, req.Top)
	if err != nil {
		if errors.Is(err, application.ErrEntityNotFound) {
			writeError(w, http.StatusNotFound, "could not resolve entity name")
			return
		}
		var credErr *model.CredentialError
		if errors.As(err, &credErr) {
			h.logger.Error("credential failure during query", "entity", name, "error", err)
			writeError(w, http.StatusBadGateway, "authentication with data service failed")
			return
		}
		h.logger.Error("query failed", "entity", name, "error", err)
		writeError(w, http.StatusBadGateway, "data service query failed")
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		EntitySet: result.EntitySet,
		Filter:    result.Filter,
		Records:   result.Records,
	})
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
