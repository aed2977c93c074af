package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// BuildFilter renders user-supplied field/value constraints into a
// service-native boolean filter expression, typing each literal from the
// schema. It returns the empty string when there is nothing to build: no
// filters, or no schema to type them against (the caller decides whether to
// degrade or fail in that case).
//
// Fields are matched case-insensitively. Primitive fields and unknown fields
// render as quoted string literals; enumeration fields carry their full
// qualified type name as the literal prefix. Unknown fields are additionally
// returned in fallbacks so callers can surface a warning, but the clause is
// still emitted, just with lower confidence. Clause order follows the input
// slice so output is deterministic.
func BuildFilter(filters []model.Filter, schema *model.EntityTypeSchema) (string, []string) {
	if len(filters) == 0 || schema == nil {
		return "", nil
	}

	clauses := make([]string, 0, len(filters))
	var fallbacks []string

	for _, f := range filters {
		value := escapeLiteral(f.Value)

		field := schema.FieldNamed(f.Field)
		switch {
		case field == nil:
			fallbacks = append(fallbacks, f.Field)
			clauses = append(clauses, fmt.Sprintf("%s eq '%s'", f.Field, value))
		case field.Type.Kind == model.FieldKindEnumeration:
			clauses = append(clauses, fmt.Sprintf("%s eq %s'%s'", field.Name, field.Type.Qualified, value))
		default:
			clauses = append(clauses, fmt.Sprintf("%s eq '%s'", field.Name, value))
		}
	}

	return strings.Join(clauses, " and "), fallbacks
}

// escapeLiteral doubles single quotes per OData string literal escaping.
func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
