package search

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/brewhaven/internal/models"
)

func newStubES(t *testing.T, h http.HandlerFunc) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestSearch_DecodesHits(t *testing.T) {
	var gotBody string
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/_search", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":1},"hits":[
			{"_source":{"id":"3","name":"Café Latte","category":"Coffee","price":"4.45"}}]}}`)
	})

	idx := NewIndex(es, "products")
	res, err := idx.Search(context.Background(), "latte", 0, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.Total)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Café Latte", res.Items[0].Name)
	assert.True(t, decimal.RequireFromString("4.45").Equal(res.Items[0].Price))
	assert.Contains(t, gotBody, `"multi_match"`)
	assert.Contains(t, gotBody, `"latte"`)
}

func TestSearch_BreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})

	idx := NewIndex(es, "products", WithBreakerTimeout(time.Hour))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := idx.Search(ctx, "mocha", 0, 10)
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen.String(), idx.State())

	_, err := idx.Search(ctx, "mocha", 0, 10)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestIndexItems(t *testing.T) {
	var indexed []string
	var refreshed bool
	es := newStubES(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/products/_doc/"):
			indexed = append(indexed, strings.TrimPrefix(r.URL.Path, "/products/_doc/"))
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"result":"created"}`)
		case r.URL.Path == "/products/_refresh":
			refreshed = true
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	idx := NewIndex(es, "products")
	err := idx.IndexItems(context.Background(), []models.CatalogItem{
		{ID: "1", Name: "Espresso Shot"},
		{ID: "7", Name: "Butter Croissant"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "7"}, indexed)
	assert.True(t, refreshed)
}
