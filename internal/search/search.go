// Package search indexes the catalog in Elasticsearch and runs full-text
// queries against it. Calls go through a circuit breaker so a failing
// cluster is skipped quickly.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/sony/gobreaker/v2"

	"github.com/Skotchmaster/brewhaven/internal/models"
)

var ErrUnavailable = errors.New("search unavailable")

type Result struct {
	Total int64
	Items []models.CatalogItem
}

type Index struct {
	es    *elasticsearch.Client
	index string
	cb    *gobreaker.CircuitBreaker[Result]
}

type Option func(*gobreaker.Settings)

// WithBreakerTimeout sets how long the breaker stays open before probing.
func WithBreakerTimeout(d time.Duration) Option {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

func NewIndex(es *elasticsearch.Client, index string, opts ...Option) *Index {
	st := gobreaker.Settings{
		Name:        "elasticsearch",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	}
	for _, o := range opts {
		o(&st)
	}
	return &Index{
		es:    es,
		index: index,
		cb:    gobreaker.NewCircuitBreaker[Result](st),
	}
}

// Search runs a fuzzy multi_match over name, category and description.
// Errors, including an open breaker, wrap ErrUnavailable.
func (i *Index) Search(ctx context.Context, query string, from, size int) (Result, error) {
	res, err := i.cb.Execute(func() (Result, error) {
		return i.search(ctx, query, from, size)
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res, nil
}

func (i *Index) search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "category", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, err
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, err
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return Result{}, fmt.Errorf("search %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.CatalogItem `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, err
	}

	items := make([]models.CatalogItem, len(r.Hits.Hits))
	for n, hit := range r.Hits.Hits {
		items[n] = hit.Source
	}
	return Result{Total: r.Hits.Total.Value, Items: items}, nil
}

// IndexItems writes every item under its catalog id and refreshes the index
// so the documents are searchable on return.
func (i *Index) IndexItems(ctx context.Context, items []models.CatalogItem) error {
	for _, it := range items {
		data, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode %s: %w", it.ID, err)
		}
		res, err := i.es.Index(i.index, bytes.NewReader(data),
			i.es.Index.WithContext(ctx),
			i.es.Index.WithDocumentID(it.ID),
		)
		if err != nil {
			return fmt.Errorf("index %s: %w", it.ID, err)
		}
		failed := res.IsError()
		status := res.Status()
		res.Body.Close()
		if failed {
			return fmt.Errorf("index %s: %s", it.ID, status)
		}
	}

	res, err := i.es.Indices.Refresh(
		i.es.Indices.Refresh.WithContext(ctx),
		i.es.Indices.Refresh.WithIndex(i.index),
	)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", i.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("refresh %s: %s", i.index, res.Status())
	}
	return nil
}

// State reports the breaker state, for health output.
func (i *Index) State() string {
	return i.cb.State().String()
}
