package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/brewhaven/internal/cache"
	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/repo"
	"github.com/Skotchmaster/brewhaven/internal/search"
	"github.com/Skotchmaster/brewhaven/internal/util"
)

type CatalogCache interface {
	Get(ctx context.Context, category string) ([]models.CatalogItem, error)
	Set(ctx context.Context, category string, items []models.CatalogItem) error
	Invalidate(ctx context.Context) error
}

type SearchIndex interface {
	Search(ctx context.Context, query string, from, size int) (search.Result, error)
	IndexItems(ctx context.Context, items []models.CatalogItem) error
}

const (
	SourceIndex = "elasticsearch"
	SourceStore = "store"
)

type SearchResult struct {
	Query  string               `json:"query"`
	Total  int64                `json:"total"`
	Page   int                  `json:"page"`
	Size   int                  `json:"size"`
	Source string               `json:"source"`
	Items  []models.CatalogItem `json:"items"`
}

// CatalogService serves catalog reads. Cache and index are optional; a nil
// value, or one that errors, falls back to the store.
type CatalogService struct {
	catalog *repo.CatalogRepo
	cache   CatalogCache
	index   SearchIndex
	group   singleflight.Group
}

func NewCatalogService(catalog *repo.CatalogRepo, c CatalogCache, index SearchIndex) *CatalogService {
	return &CatalogService{catalog: catalog, cache: c, index: index}
}

// ListProducts returns every item, or the items of one category, by id.
func (s *CatalogService) ListProducts(ctx context.Context, category string) ([]models.CatalogItem, error) {
	l := logging.FromContext(ctx).With("service", "catalog")

	if s.cache != nil {
		items, err := s.cache.Get(ctx, category)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("catalog_cache_get_failed", "category", category, "error", err)
		}
	}

	v, err, _ := s.group.Do("products:"+category, func() (interface{}, error) {
		items, err := s.catalog.List(ctx, category)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, category, items); err != nil {
				l.Warn("catalog_cache_set_failed", "category", category, "error", err)
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, persistence("list products", err)
	}
	return v.([]models.CatalogItem), nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]string, error) {
	items, err := s.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, it := range items {
		if _, ok := seen[it.Category]; ok {
			continue
		}
		seen[it.Category] = struct{}{}
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.CatalogItem, error) {
	item, err := s.catalog.Get(ctx, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, persistence("get product", err)
	}
	return item, nil
}

// Search matches query against name, category and description. The index is
// tried first; the store fallback does a case-insensitive substring match.
func (s *CatalogService) Search(ctx context.Context, query string, page, size int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrValidation)
	}
	from, limit := util.Calculate(page, size)
	res := &SearchResult{Query: query, Page: from/limit + 1, Size: limit}

	if s.index != nil {
		hits, err := s.index.Search(ctx, query, from, limit)
		if err == nil {
			res.Source = SourceIndex
			res.Total = hits.Total
			res.Items = hits.Items
			return res, nil
		}
		logging.FromContext(ctx).Warn("search_fallback", "query", query, "error", err)
	}

	all, err := s.ListProducts(ctx, "")
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matched := []models.CatalogItem{}
	for _, it := range all {
		if strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Category), q) ||
			strings.Contains(strings.ToLower(it.Description), q) {
			matched = append(matched, it)
		}
	}

	res.Source = SourceStore
	res.Total = int64(len(matched))
	res.Items = util.Page(matched, from, limit)
	return res, nil
}

// Refresh drops cached listings and rewrites the search index from the
// store. Both steps are best effort.
func (s *CatalogService) Refresh(ctx context.Context) {
	l := logging.FromContext(ctx).With("service", "catalog")

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			l.Warn("catalog_cache_invalidate_failed", "error", err)
		}
	}
	if s.index == nil {
		return
	}
	items, err := s.catalog.List(ctx, "")
	if err != nil {
		l.Warn("catalog_reindex_failed", "error", err)
		return
	}
	if err := s.index.IndexItems(ctx, items); err != nil {
		l.Warn("catalog_reindex_failed", "error", err)
		return
	}
	l.Info("catalog_reindexed", "items", len(items))
}
