package model

import "strings"

// FieldKind discriminates how a field's declared type renders in filter
// literals. The kind is decided once at metadata parse time so filter
// construction never re-inspects type name strings.
type FieldKind string

const (
	// FieldKindPrimitive covers the service's built-in scalar types
	// (Edm.String, Edm.Int32, ...). Literals are quoted as strings.
	FieldKindPrimitive FieldKind = "primitive"
	// FieldKindEnumeration covers named enumeration types. Literals carry
	// the full qualified type name as a prefix.
	FieldKindEnumeration FieldKind = "enumeration"
)

// edmPrefix marks the service's primitive type namespace in metadata.
const edmPrefix = "Edm."

// FieldType is the parsed declared type of a schema field. Qualified holds
// the full enumeration type name and is empty for primitives.
type FieldType struct {
	Kind      FieldKind
	Qualified string
}

// ParseFieldType classifies a declared type name from the metadata document.
func ParseFieldType(declared string) FieldType {
	if strings.HasPrefix(declared, edmPrefix) {
		return FieldType{Kind: FieldKindPrimitive}
	}
	return FieldType{Kind: FieldKindEnumeration, Qualified: declared}
}

// Field is a single typed property of an entity type.
type Field struct {
	Name  string
	Type  FieldType
	IsKey bool
}

// EntityTypeSchema is the field layout of one entity type, keyed in the
// registry by its fully-qualified type name.
type EntityTypeSchema struct {
	TypeName string
	Fields   []Field
}

// FieldNamed returns the field with the given name, matched
// case-insensitively, or nil when the schema has no such field.
func (s *EntityTypeSchema) FieldNamed(name string) *Field {
	for i := range s.Fields {
		if strings.EqualFold(s.Fields[i].Name, name) {
			return &s.Fields[i]
		}
	}
	return nil
}

// ServiceMetadata is the one-pass parse result of the service's metadata
// document: every entity type's schema keyed by fully-qualified type name,
// and the container's entity-set to type-name index.
type ServiceMetadata struct {
	Types map[string]EntityTypeSchema
	Sets  map[string]string
}
