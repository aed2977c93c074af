package driven

import (
	"context"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
)

// DataService defines the driven port for the OData environment. The two
// fetch methods feed the lazy application-layer caches; QueryRecords executes
// an already-resolved query.
type DataService interface {
	// FetchEntityCatalog returns every entity set the service exposes,
	// with logical and canonical names. Called at most once per process
	// under normal operation; the catalog cache owns retry-on-failure.
	FetchEntityCatalog(ctx context.Context) ([]model.CatalogEntry, error)

	// FetchMetadata downloads and parses the service's type-metadata
	// document in one pass.
	FetchMetadata(ctx context.Context) (*model.ServiceMetadata, error)

	// QueryRecords fetches rows from the given canonical entity set.
	// filter may be empty; top caps the number of rows returned.
	QueryRecords(ctx context.Context, entitySet, filter string, top int) ([]model.Record, error)
}
