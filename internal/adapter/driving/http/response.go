package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// ResolveResponse is the JSON representation of a resolved entity name.
type ResolveResponse struct {
	Name          string `json:"name"`
	CanonicalName string `json:"canonical_name"`
}

// FieldResponse is the JSON representation of one schema field.
type FieldResponse struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	EnumType string `json:"enum_type,omitempty"`
	IsKey    bool   `json:"is_key"`
}

// SchemaResponse is the JSON representation of an entity type schema.
type SchemaResponse struct {
	EntitySet string          `json:"entity_set"`
	TypeName  string          `json:"type_name"`
	Fields    []FieldResponse `json:"fields"`
}

// FilterRequest is one field/value constraint in a query request body.
type FilterRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// QueryRequest is the JSON body for the entity query endpoint.
type QueryRequest struct {
	Filters []FilterRequest `json:"filters"`
	Top     int             `json:"top"`
}

// QueryResponse is the JSON representation of a query result, echoing the
// resolved entity set and rendered filter alongside the rows.
type QueryResponse struct {
	EntitySet string         `json:"entity_set"`
	Filter    string         `json:"filter"`
	Records   []model.Record `json:"records"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// toSchemaResponse converts a domain schema to its JSON representation.
func toSchemaResponse(entitySet string, schema *model.EntityTypeSchema) SchemaResponse {
	fields := make([]FieldResponse, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		fields = append(fields, FieldResponse{
			Name:     f.Name,
			Kind:     string(f.Type.Kind),
			EnumType: f.Type.Qualified,
			IsKey:    f.IsKey,
		})
	}

	return SchemaResponse{
		EntitySet: entitySet,
		TypeName:  schema.TypeName,
		Fields:    fields,
	}
}
