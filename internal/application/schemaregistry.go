package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// SchemaRegistry serves per-entity-type field schemas parsed from the
// service's metadata document. The document is fetched and parsed lazily at
// most once; a failed fetch leaves the registry empty so the next call
// retries. Lookups always resolve through the entity-set index first: the
// catalog names entity sets while the metadata names entity types, and the
// two rarely agree.
type SchemaRegistry struct {
	service driven.DataService
	logger  *slog.Logger

	mu   sync.RWMutex
	meta *model.ServiceMetadata

	group singleflight.Group
}

// NewSchemaRegistry creates a registry backed by the given data service.
func NewSchemaRegistry(service driven.DataService, logger *slog.Logger) *SchemaRegistry {
	return &SchemaRegistry{
		service: service,
		logger:  logger,
	}
}

// SchemaFor returns the field schema for the given entity-set name. The set
// name is resolved through the container index (case-insensitively); when
// that misses, a best-effort singularization fallback against type names is
// tried before giving up. The fallback must match exactly one type: an
// ambiguous guess is reported as not-found rather than risking a wrong
// schema.
func (r *SchemaRegistry) SchemaFor(ctx context.Context, entitySet string) (*model.EntityTypeSchema, bool) {
	meta := r.ensureLoaded(ctx)
	if meta == nil {
		return nil, false
	}

	typeName, ok := lookupSet(meta, entitySet)
	if !ok {
		typeName, ok = singularFallback(meta, entitySet)
		if !ok {
			return nil, false
		}
		r.logger.Warn("schema lookup used singularization fallback",
			"entity_set", entitySet,
			"entity_type", typeName,
		)
	}

	schema, ok := meta.Types[typeName]
	if !ok {
		return nil, false
	}
	return &schema, true
}

// Reset discards the cached metadata. Intended for tests.
func (r *SchemaRegistry) Reset() {
	r.mu.Lock()
	r.meta = nil
	r.mu.Unlock()
}

// ensureLoaded returns the parsed metadata, fetching it on first use.
// Concurrent callers during the fetch share one request. A fetch or parse
// failure is absorbed as an empty registry and logged; the next call
// fetches again.
func (r *SchemaRegistry) ensureLoaded(ctx context.Context) *model.ServiceMetadata {
	r.mu.RLock()
	if r.meta != nil {
		meta := r.meta
		r.mu.RUnlock()
		return meta
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("metadata", func() (any, error) {
		r.mu.RLock()
		if r.meta != nil {
			meta := r.meta
			r.mu.RUnlock()
			return meta, nil
		}
		r.mu.RUnlock()

		meta, err := r.service.FetchMetadata(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.meta = meta
		r.mu.Unlock()

		return meta, nil
	})
	if err != nil {
		r.logger.Warn("metadata fetch failed, treating schema registry as empty", "error", err)
		return nil
	}

	return v.(*model.ServiceMetadata)
}

// lookupSet resolves an entity-set name to its qualified type name, first by
// direct map hit, then case-insensitively.
func lookupSet(meta *model.ServiceMetadata, entitySet string) (string, bool) {
	if typeName, ok := meta.Sets[entitySet]; ok {
		return typeName, true
	}
	for name, typeName := range meta.Sets {
		if strings.EqualFold(name, entitySet) {
			return typeName, true
		}
	}
	return "", false
}

// singularFallback tries the set name with a trailing "s" stripped against
// the simple (unqualified) type names. Exactly one match is required.
func singularFallback(meta *model.ServiceMetadata, entitySet string) (string, bool) {
	if len(entitySet) < 2 || !strings.EqualFold(entitySet[len(entitySet)-1:], "s") {
		return "", false
	}
	singular := entitySet[:len(entitySet)-1]

	matched := ""
	for typeName := range meta.Types {
		simple := typeName
		if i := strings.LastIndex(typeName, "."); i >= 0 {
			simple = typeName[i+1:]
		}
		if strings.EqualFold(simple, singular) {
			if matched != "" {
				return "", false
			}
			matched = typeName
		}
	}

	return matched, matched != ""
}
