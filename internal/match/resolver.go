// Package match resolves a normalized track against a destination platform's
// catalog using a tiered strategy: a structured exact query when the catalog
// supports one, an AI disambiguation oracle, and a deterministic fuzzy
// fallback. Each tier runs only when the previous one produced nothing.
package match

import (
	"context"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/charmbracelet/log"
	"github.com/playthelist/playtl/internal/services"
)

const (
	// Fuzzy matches below this similarity are rejected.
	matchThreshold = 0.7

	// Candidate shortlist size requested from the catalog.
	searchLimit = 5
)

// Decision is the outcome of resolving one track: a platform id, or nothing.
type Decision struct {
	PlatformID string
	Resolved   bool
}

// Catalog is the slice of an adapter the resolver consumes. Adapters that
// also implement [services.StructuredSearcher] get the exact-query tier.
type Catalog interface {
	Search(ctx context.Context, title, artist string, limit int) ([]services.Candidate, error)
}

// Resolver picks the best catalog match for a track. Deterministic given its
// inputs except for the oracle tier, whose failures are swallowed.
type Resolver struct {
	oracle Oracle
	logger *log.Logger
}

// NewResolver creates a Resolver. A nil oracle disables the AI tier; the
// fuzzy fallback still runs.
func NewResolver(oracle Oracle, logger *log.Logger) *Resolver {
	return &Resolver{oracle: oracle, logger: logger}
}

// Resolve finds the best match for ref in the catalog.
//
// Tier 1 takes the structured query's top hit directly. Otherwise a
// free-text search builds the candidate shortlist; when it comes back empty
// the catalog is re-queried by title alone, and the oracle and fuzzy tiers
// always disambiguate against the most recent non-empty shortlist. Every
// failure along the way degrades to an unresolved decision, never an error.
func (r *Resolver) Resolve(ctx context.Context, catalog Catalog, ref services.TrackRef) Decision {
	if ss, ok := catalog.(services.StructuredSearcher); ok {
		id, err := ss.SearchStructured(ctx, ref.Title, ref.Artist)
		if err != nil {
			r.logger.Debug("structured search failed", "track", ref.String(), "err", err)
		} else if id != "" {
			return Decision{PlatformID: id, Resolved: true}
		}
	}

	candidates, err := catalog.Search(ctx, ref.Title, ref.Artist, searchLimit)
	if err != nil {
		r.logger.Warn("search failed", "track", ref.String(), "err", err)
	}
	if len(candidates) == 0 {
		candidates, err = catalog.Search(ctx, ref.Title, "", searchLimit)
		if err != nil {
			r.logger.Warn("title-only search failed", "track", ref.String(), "err", err)
		}
	}
	if len(candidates) == 0 {
		return Decision{}
	}

	displays := make([]string, len(candidates))
	for i, c := range candidates {
		displays[i] = c.Display()
	}

	if r.oracle != nil {
		best, err := r.oracle(ctx, ref.Query(), displays)
		if err == nil && best != "" && best != OracleNone {
			// Duplicate display strings: first candidate in platform order wins.
			for i, d := range displays {
				if d == best {
					return Decision{PlatformID: candidates[i].PlatformID, Resolved: true}
				}
			}
			r.logger.Debug("oracle answer matched no candidate", "track", ref.String(), "answer", best)
		}
	}

	if i, score := closestMatch(ref.Query(), displays); i >= 0 && score > matchThreshold {
		return Decision{PlatformID: candidates[i].PlatformID, Resolved: true}
	}

	return Decision{}
}

// closestMatch returns the index and similarity of the display string
// closest to query, or (-1, 0) for an empty list.
func closestMatch(query string, displays []string) (int, float64) {
	params := levenshtein.NewParams()
	q := strings.ToLower(query)

	best := -1
	bestScore := 0.0
	for i, d := range displays {
		if score := levenshtein.Similarity(q, strings.ToLower(d), params); score > bestScore {
			best, bestScore = i, score
		}
	}

	return best, bestScore
}
