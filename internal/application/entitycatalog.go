package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/dynabridge/internal/domain/model"
	"github.com/ericfisherdev/dynabridge/internal/domain/port/driven"
)

// matchThreshold is the acceptance bound for fuzzy name resolution. Scores
// are normalized edit distances in [0,1] where 0 is an exact match; a best
// candidate scoring above this is rejected as unrelated.
const matchThreshold = 0.4

// EntityCatalog resolves loosely-typed entity names against the service's
// authoritative entity-set catalog. The catalog is fetched lazily at most
// once; a failed fetch leaves the catalog empty so the next call retries.
type EntityCatalog struct {
	service driven.DataService
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []model.CatalogEntry
	loaded  bool

	group singleflight.Group
}

// NewEntityCatalog creates a catalog backed by the given data service.
func NewEntityCatalog(service driven.DataService, logger *slog.Logger) *EntityCatalog {
	return &EntityCatalog{
		service: service,
		logger:  logger,
	}
}

// Resolve maps a human-typed entity name to the canonical entity-set name.
// The best-scoring candidate across both logical and canonical names wins;
// ties go to the entry seen first in catalog order. A miss is a normal
// outcome, not an error: it covers unrelated names, an empty catalog, and a
// catalog fetch that failed (which the next call retries).
func (c *EntityCatalog) Resolve(ctx context.Context, rawName string) (string, bool) {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return "", false
	}

	entries := c.ensureLoaded(ctx)

	best := ""
	bestScore := matchThreshold + 1
	for _, entry := range entries {
		score := min(
			nameScore(rawName, entry.LogicalName),
			nameScore(rawName, entry.CanonicalName),
		)
		// Strict less keeps the first-seen entry on equal scores.
		if score < bestScore {
			bestScore = score
			best = entry.CanonicalName
		}
	}

	if bestScore > matchThreshold {
		return "", false
	}
	return best, true
}

// Reset discards the cached catalog. Intended for tests.
func (c *EntityCatalog) Reset() {
	c.mu.Lock()
	c.entries = nil
	c.loaded = false
	c.mu.Unlock()
}

// ensureLoaded returns the catalog entries, fetching them on first use.
// Concurrent callers during the fetch share one request. A fetch failure is
// absorbed as an empty catalog and logged; loaded stays false so a later
// call fetches again.
func (c *EntityCatalog) ensureLoaded(ctx context.Context) []model.CatalogEntry {
	c.mu.RLock()
	if c.loaded {
		entries := c.entries
		c.mu.RUnlock()
		return entries
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do("catalog", func() (any, error) {
		c.mu.RLock()
		if c.loaded {
			entries := c.entries
			c.mu.RUnlock()
			return entries, nil
		}
		c.mu.RUnlock()

		entries, err := c.service.FetchEntityCatalog(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries = entries
		c.loaded = true
		c.mu.Unlock()

		return entries, nil
	})
	if err != nil {
		c.logger.Warn("entity catalog fetch failed, treating catalog as empty", "error", err)
		return nil
	}

	return v.([]model.CatalogEntry)
}

// nameScore is the normalized edit distance between a query and a candidate
// name, case-folded, in [0,1] with 0 meaning identical.
func nameScore(query, candidate string) float64 {
	q := strings.ToLower(query)
	cand := strings.ToLower(candidate)
	if q == cand {
		return 0
	}

	longest := max(utf8.RuneCountInString(q), utf8.RuneCountInString(cand))
	if longest == 0 {
		return 0
	}

	return float64(levenshtein.ComputeDistance(q, cand)) / float64(longest)
}
