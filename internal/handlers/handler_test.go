// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for the handler
// tests: in-memory stores, a chi router wired like the real one, and
// request helpers.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"omexcatalog/internal/cache"
	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
	"omexcatalog/internal/store"
	"omexcatalog/internal/translation"
)

// memoryResponseCache is an in-process stand-in for the Valkey response cache.
type memoryResponseCache struct {
	mu    sync.Mutex
	items map[string][]byte
	gets  int
}

func newMemoryResponseCache() *memoryResponseCache {
	return &memoryResponseCache{items: map[string][]byte{}}
}

func (c *memoryResponseCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.items[key]
	return b, ok
}

func (c *memoryResponseCache) Set(_ context.Context, key string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = body
}

func (c *memoryResponseCache) CategoriesChanged(context.Context, models.CategoryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string][]byte{}
}

func (c *memoryResponseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type fakeCacheLog struct {
	entries []store.CacheLogEntry
	limit   int
}

func (f *fakeCacheLog) RecentEntries(_ context.Context, limit int) ([]store.CacheLogEntry, error) {
	f.limit = limit
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type testEnv struct {
	t            *testing.T
	svc          *category.Service
	translations *translation.Service
	responses    *memoryResponseCache
	cacheLog     *fakeCacheLog
	router       chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	responses := newMemoryResponseCache()
	svc := category.NewService(store.NewMemoryCategoryStore(), cache.NewManager(60), category.WithListener(responses))
	tr := translation.NewService(store.NewMemoryTranslationStore())
	env := &testEnv{
		t:            t,
		svc:          svc,
		translations: tr,
		responses:    responses,
		cacheLog:     &fakeCacheLog{},
	}

	pub := NewPublic(svc, tr, responses)
	adm := NewAdmin(svc, tr, env.cacheLog)

	r := chi.NewRouter()
	r.Route("/store/categories", func(r chi.Router) {
		r.Get("/", pub.List)
		r.Get("/tree", pub.Tree)
		r.Get("/{slug}", pub.Show)
		r.Get("/{slug}/subcategories", pub.Subcategories)
		r.Get("/{slug}/breadcrumb", pub.Breadcrumb)
		r.Get("/{slug}/descendants", pub.Descendants)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Get("/categories", adm.List)
		r.Post("/categories", adm.Create)
		r.Get("/categories/flat", adm.Flat)
		r.Post("/categories/cache/rebuild", adm.RebuildCache)
		r.Post("/categories/cache/invalidate", adm.InvalidateCache)
		r.Get("/categories/{id}", adm.Get)
		r.Put("/categories/{id}", adm.Update)
		r.Delete("/categories/{id}", adm.Delete)
		r.Put("/categories/{id}/translations/{locale}", adm.PutTranslation)
		r.Get("/cache/log", adm.CacheLog)
	})
	env.router = r
	return env
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// create adds a category through the service and returns it.
func (e *testEnv) create(name, slugValue string, parent *models.Category, priority int) *models.Category {
	e.t.Helper()
	in := models.CreateCategoryInput{Name: name, Slug: slugValue, Priority: priority}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	c, err := e.svc.Create(context.Background(), in)
	require.NoError(e.t, err)
	return c
}

// seedFiltry builds filtry > {filtry-powietrza > wklady, filtry-oleju}
// plus a hydraulika root.
func (e *testEnv) seedFiltry() (filtry, powietrza, oleju, wklady, hydraulika *models.Category) {
	filtry = e.create("Filtry", "filtry", nil, 0)
	powietrza = e.create("Filtry powietrza", "filtry-powietrza", filtry, 0)
	oleju = e.create("Filtry oleju", "filtry-oleju", filtry, 1)
	wklady = e.create("Wkłady", "wklady", powietrza, 0)
	hydraulika = e.create("Hydraulika", "hydraulika", nil, 1)
	return
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, rr).Error.Code
}

func ids(cats []models.Category) []uuid.UUID {
	out := make([]uuid.UUID, len(cats))
	for i, c := range cats {
		out[i] = c.ID
	}
	return out
}
