package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// ErrEntityNotFound is returned when a raw entity name cannot be resolved
// against the catalog. It is a caller-visible miss, not a transport failure.
var ErrEntityNotFound = errors.New("entity could not be resolved")

// QueryService chains the resolution pipeline: raw name -> canonical entity
// set -> field schema -> typed filter expression -> outbound record query.
type QueryService struct {
	catalog    *EntityCatalog
	schemas    *SchemaRegistry
	service    driven.DataService
	logger     *slog.Logger
	defaultTop int
}

// NewQueryService creates a QueryService with all required dependencies.
// defaultTop caps result sizes when a caller does not ask for a limit.
func NewQueryService(
	catalog *EntityCatalog,
	schemas *SchemaRegistry,
	service driven.DataService,
	logger *slog.Logger,
	defaultTop int,
) *QueryService {
	return &QueryService{
		catalog:    catalog,
		schemas:    schemas,
		service:    service,
		logger:     logger,
		defaultTop: defaultTop,
	}
}

// QueryResult carries the resolved query alongside its rows so callers can
// see what was actually sent to the service.
type QueryResult struct {
	EntitySet string
	Filter    string
	Records   []model.Record
}

// Query resolves rawName, builds a typed filter from the given constraints,
// and fetches matching records. Unresolvable names return ErrEntityNotFound.
// When no schema is available for the resolved set, the query degrades to
// unqualified string-literal clauses rather than failing, with a warning.
func (s *QueryService) Query(ctx context.Context, rawName string, filters []model.Filter, top int) (*QueryResult, error) {
	entitySet, ok := s.catalog.Resolve(ctx, rawName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, rawName)
	}

	var filter string
	if schema, ok := s.schemas.SchemaFor(ctx, entitySet); ok {
		expr, fallbacks := BuildFilter(filters, schema)
		for _, field := range fallbacks {
			s.logger.Warn("filter field not in schema, using raw string clause",
				"entity_set", entitySet,
				"field", field,
			)
		}
		filter = expr
	} else if len(filters) > 0 {
		s.logger.Warn("no schema for entity set, building unqualified filter", "entity_set", entitySet)
		filter = unqualifiedFilter(filters)
	}

	if top <= 0 {
		top = s.defaultTop
	}

	records, err := s.service.QueryRecords(ctx, entitySet, filter, top)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", entitySet, err)
	}

	return &QueryResult{
		EntitySet: entitySet,
		Filter:    filter,
		Records:   records,
	}, nil
}

// unqualifiedFilter renders every constraint as a plain quoted string clause.
// Used only when no schema is available to type the literals.
func unqualifiedFilter(filters []model.Filter) string {
	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		clauses = append(clauses, fmt.Sprintf("%s eq '%s'", f.Field, escapeLiteral(f.Value)))
	}
	return strings.Join(clauses, " and ")
}
