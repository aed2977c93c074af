package model

// Filter is one user-supplied field/value constraint. Filters arrive as an
// ordered slice rather than a map so the rendered expression is deterministic
// for a given input.
type Filter struct {
	Field string
	Value string
}

// Record is a single entity row returned by the data service. Payload shapes
// vary per entity, so rows stay schemaless at this layer.
type Record map[string]any
