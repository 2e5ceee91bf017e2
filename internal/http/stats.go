package http

import (
	"context"
	"fmt"
	"log"

	"github.com/mrlokans/locallibrary/internal/cache"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const catalogCountsKey = "catalog_counts"

// CatalogCounts are the totals shown on the home page and by /api/stats.
type CatalogCounts struct {
	Books              int64 `json:"books"`
	Instances          int64 `json:"instances"`
	InstancesAvailable int64 `json:"instances_available"`
	Authors            int64 `json:"authors"`
	Genres             int64 `json:"genres"`
}

// catalogStats loads CatalogCounts through the optional Redis cache.
type catalogStats struct {
	books   BookStore
	authors AuthorStore
	loans   LoanStore
	cache   *cache.StatsCache
}

func (s catalogStats) counts(ctx context.Context) (CatalogCounts, error) {
	return cache.Remember(ctx, s.cache, catalogCountsKey, s.load)
}

func (s catalogStats) load() (CatalogCounts, error) {
	var counts CatalogCounts
	var err error

	if counts.Books, err = s.books.CountBooks(); err != nil {
		return counts, fmt.Errorf("count books: %w", err)
	}
	if counts.Instances, err = s.loans.CountInstances(); err != nil {
		return counts, fmt.Errorf("count copies: %w", err)
	}
	if counts.InstancesAvailable, err = s.loans.CountInstancesByStatus(entities.LoanStatusAvailable); err != nil {
		return counts, fmt.Errorf("count available copies: %w", err)
	}
	if counts.Authors, err = s.authors.CountAuthors(); err != nil {
		return counts, fmt.Errorf("count authors: %w", err)
	}
	if counts.Genres, err = s.books.CountGenres(); err != nil {
		return counts, fmt.Errorf("count genres: %w", err)
	}
	return counts, nil
}

// invalidate drops cached counts after a catalog write.
func (s catalogStats) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("Stats cache: invalidate failed: %v", err)
	}
}
