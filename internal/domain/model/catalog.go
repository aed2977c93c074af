package model

// CatalogEntry is one entity set exposed by the data service. LogicalName is
// the human-facing display name ("Customer groups"); CanonicalName is the
// collection name used in request paths ("CustomerGroups"). Entries are
// immutable once fetched.
type CatalogEntry struct {
	LogicalName   string
	CanonicalName string
}
