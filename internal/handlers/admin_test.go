// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
	"omexcatalog/internal/store"
)

type createdBody struct {
	Category     models.Category              `json:"category"`
	Translations []models.CategoryTranslation `json:"translations"`
}

func TestAdminCreate(t *testing.T) {
	env := newTestEnv(t)
	filtry := env.create("Filtry", "filtry", nil, 0)

	rr := env.do(http.MethodPost, "/admin/categories", map[string]any{
		"name":      "Filtry hydrauliczne",
		"slug":      "filtry-hydrauliczne",
		"priority":  3,
		"parent_id": filtry.ID,
		"metadata":  map[string]any{"brand": "Parker"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decode[createdBody](t, rr)
	assert.Equal(t, "filtry-hydrauliczne", body.Category.Slug)
	require.NotNil(t, body.Category.ParentID)
	assert.Equal(t, filtry.ID, *body.Category.ParentID)
	assert.Equal(t, 3, body.Category.Priority)
	assert.Equal(t, "Parker", body.Category.Metadata["brand"])
	assert.Empty(t, body.Translations)

	got, err := env.svc.FindBySlug(context.Background(), "filtry-hydrauliczne")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestAdminCreateWithTranslations(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/admin/categories", map[string]any{
		"name": "Pompy",
		"slug": "pompy",
		"translations": map[string]any{
			"en": map[string]string{"name": "Pumps"},
			"de": map[string]string{"name": "Pumpen", "description": "Hydraulikpumpen"},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	body := decode[createdBody](t, rr)
	require.Len(t, body.Translations, 2)
	assert.Equal(t, models.LocaleDE, body.Translations[0].Locale)
	assert.Equal(t, "Pumpen", body.Translations[0].Name)
	assert.Equal(t, models.LocaleEN, body.Translations[1].Locale)

	tr, err := env.translations.CategoryTranslation(context.Background(), body.Category.ID, models.LocaleEN)
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, "Pumps", tr.Name)
}

func TestAdminCreateErrors(t *testing.T) {
	env := newTestEnv(t)
	env.create("Filtry", "filtry", nil, 0)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidBody,
		},
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidBody,
		},
		{
			name:       "unknown field",
			body:       map[string]any{"name": "A", "slug": "a", "colour": "red"},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidBody,
		},
		{
			name:       "missing name",
			body:       map[string]any{"slug": "bez-nazwy"},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeValidation,
		},
		{
			name:       "name too long",
			body:       map[string]any{"name": strings.Repeat("x", 201), "slug": "dluga"},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeValidation,
		},
		{
			name:       "slug not kebab-case",
			body:       map[string]any{"name": "Zły", "slug": "Zly_Slug"},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidSlugFormat,
		},
		{
			name:       "duplicate slug",
			body:       map[string]any{"name": "Filtry 2", "slug": "filtry"},
			wantStatus: http.StatusConflict,
			wantCode:   codeSlugConflict,
		},
		{
			name:       "missing parent",
			body:       map[string]any{"name": "Sierota", "slug": "sierota", "parent_id": uuid.New()},
			wantStatus: http.StatusNotFound,
			wantCode:   codeNotFound,
		},
		{
			name: "unsupported translation locale",
			body: map[string]any{
				"name": "Węże", "slug": "weze",
				"translations": map[string]any{"fr": map[string]string{"name": "Tuyaux"}},
			},
			wantStatus: http.StatusBadRequest,
			wantCode:   codeUnsupportedLocale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodPost, "/admin/categories", tt.body)
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, rr))
		})
	}

	// The rejected translation locale must not leave a category behind.
	c, err := env.svc.FindBySlug(context.Background(), "weze")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestAdminUpdate(t *testing.T) {
	env := newTestEnv(t)
	filtry, powietrza, _, wklady, hydraulika := env.seedFiltry()

	t.Run("rename", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+wklady.ID.String(), map[string]any{"name": "Wkłady filtrów"})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := decode[struct {
			Category models.Category `json:"category"`
		}](t, rr)
		assert.Equal(t, "Wkłady filtrów", body.Category.Name)
		assert.Equal(t, "wklady", body.Category.Slug)
		require.NotNil(t, body.Category.ParentID, "absent parent_id leaves the parent unchanged")
		assert.Equal(t, powietrza.ID, *body.Category.ParentID)
	})

	t.Run("move under another parent", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+wklady.ID.String(), map[string]any{"parent_id": hydraulika.ID})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		crumbs, err := env.svc.GetBreadcrumbPath(context.Background(), wklady.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{hydraulika.ID, wklady.ID}, ids(crumbs))
	})

	t.Run("explicit null moves to root", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+wklady.ID.String(), `{"parent_id": null}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := decode[struct {
			Category models.Category `json:"category"`
		}](t, rr)
		assert.Nil(t, body.Category.ParentID)
	})

	t.Run("cycle rejected", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+filtry.ID.String(), map[string]any{"parent_id": powietrza.ID})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeCircular, errorCode(t, rr))
	})

	t.Run("slug conflict", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+hydraulika.ID.String(), map[string]any{"slug": "filtry"})
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, codeSlugConflict, errorCode(t, rr))
	})

	t.Run("unknown id", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+uuid.NewString(), map[string]any{"name": "X"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rr))
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/not-a-uuid", map[string]any{"name": "X"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeInvalidID, errorCode(t, rr))
	})

	t.Run("malformed parent id", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+wklady.ID.String(), `{"parent_id": "nope"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeInvalidBody, errorCode(t, rr))
	})
}

func TestAdminDelete(t *testing.T) {
	env := newTestEnv(t)
	filtry, powietrza, oleju, _, _ := env.seedFiltry()

	rr := env.do(http.MethodDelete, "/admin/categories/"+filtry.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	assert.Empty(t, rr.Body.String())

	for _, child := range []*models.Category{powietrza, oleju} {
		c, err := env.svc.FindByID(context.Background(), child.ID)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Nil(t, c.ParentID, "children of a deleted category become roots")
	}

	rr = env.do(http.MethodDelete, "/admin/categories/"+filtry.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, codeNotFound, errorCode(t, rr))
}

func TestAdminList(t *testing.T) {
	env := newTestEnv(t)
	filtry, powietrza, oleju, _, hydraulika := env.seedFiltry()

	tests := []struct {
		name      string
		query     string
		wantIDs   []uuid.UUID
		wantTotal int
	}{
		{name: "roots", query: "?parent_id=root", wantIDs: []uuid.UUID{filtry.ID, hydraulika.ID}, wantTotal: 2},
		{name: "children", query: "?parent_id=" + filtry.ID.String(), wantIDs: []uuid.UUID{powietrza.ID, oleju.ID}, wantTotal: 2},
		{name: "slug", query: "?slug=filtry-oleju", wantIDs: []uuid.UUID{oleju.ID}, wantTotal: 1},
		{name: "paged", query: "?parent_id=root&limit=1&offset=1", wantIDs: []uuid.UUID{hydraulika.ID}, wantTotal: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/admin/categories"+tt.query, nil)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			body := decode[struct {
				Categories []models.Category `json:"categories"`
				Total      int               `json:"total"`
			}](t, rr)
			assert.Equal(t, tt.wantIDs, ids(body.Categories))
			assert.Equal(t, tt.wantTotal, body.Total)
		})
	}

	t.Run("name search", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/admin/categories?q=powietrza", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode[struct {
			Categories []models.Category `json:"categories"`
		}](t, rr)
		assert.Equal(t, []uuid.UUID{powietrza.ID}, ids(body.Categories))
	})

	for _, q := range []string{"?parent_id=xyz", "?limit=0", "?offset=-1"} {
		t.Run("bad "+q, func(t *testing.T) {
			rr := env.do(http.MethodGet, "/admin/categories"+q, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAdminGetAndTranslations(t *testing.T) {
	env := newTestEnv(t)
	filtry := env.create("Filtry", "filtry", nil, 0)
	path := "/admin/categories/" + filtry.ID.String()

	rr := env.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[categoryWithTranslations](t, rr)
	assert.Equal(t, filtry.ID, body.Category.ID)
	assert.Empty(t, body.Translations)
	assert.Equal(t, []models.Locale{models.LocaleEN, models.LocaleDE}, body.MissingLocales)

	// Prime the public cache so we can see the translation invalidate it.
	env.do(http.MethodGet, "/store/categories/filtry?locale=en", nil)
	require.Equal(t, 1, env.responses.len())

	rr = env.do(http.MethodPut, path+"/translations/en", map[string]string{"name": "Filters"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Zero(t, env.responses.len())

	rr = env.do(http.MethodGet, "/store/categories/filtry?locale=en", nil)
	assert.Contains(t, rr.Body.String(), `"name":"Filters"`)

	rr = env.do(http.MethodGet, path, nil)
	body = decode[categoryWithTranslations](t, rr)
	require.Len(t, body.Translations, 1)
	assert.Equal(t, []models.Locale{models.LocaleDE}, body.MissingLocales)

	t.Run("unsupported locale", func(t *testing.T) {
		rr := env.do(http.MethodPut, path+"/translations/fr", map[string]string{"name": "Filtres"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeUnsupportedLocale, errorCode(t, rr))
	})

	t.Run("missing name", func(t *testing.T) {
		rr := env.do(http.MethodPut, path+"/translations/de", map[string]string{"description": "x"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, codeValidation, errorCode(t, rr))
	})

	t.Run("unknown category", func(t *testing.T) {
		rr := env.do(http.MethodPut, "/admin/categories/"+uuid.NewString()+"/translations/de", map[string]string{"name": "X"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("get unknown category", func(t *testing.T) {
		rr := env.do(http.MethodGet, "/admin/categories/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, codeNotFound, errorCode(t, rr))
	})
}

func TestAdminFlat(t *testing.T) {
	env := newTestEnv(t)
	filtry, powietrza, oleju, wklady, hydraulika := env.seedFiltry()

	rr := env.do(http.MethodGet, "/admin/categories/flat", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Categories []models.Category `json:"categories"`
	}](t, rr)
	assert.Equal(t,
		[]uuid.UUID{filtry.ID, powietrza.ID, wklady.ID, oleju.ID, hydraulika.ID},
		ids(body.Categories))
	assert.Equal(t, 2, body.Categories[2].Depth)
}

func TestAdminCacheEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedFiltry()

	rr := env.do(http.MethodPost, "/admin/categories/cache/rebuild", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode[struct {
		Status  string `json:"status"`
		Entries int    `json:"entries"`
	}](t, rr)
	assert.Equal(t, "rebuilt", body.Status)
	// all_categories + category_tree + three entries per category.
	assert.Equal(t, 2+3*5, body.Entries)
	_, ok := env.svc.Cache().Get(category.KeyCategoryTree)
	assert.True(t, ok)

	rr = env.do(http.MethodPost, "/admin/categories/cache/invalidate", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"invalidated"}`, rr.Body.String())
	assert.Zero(t, env.svc.Cache().Size())
}

func TestAdminCacheLog(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		env.cacheLog.entries = append(env.cacheLog.entries, store.CacheLogEntry{
			ID: int64(3 - i), EntityType: "category", EntityID: uuid.New(),
			Action: "create", InvalidatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	rr := env.do(http.MethodGet, "/admin/cache/log", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, defaultLogLimit, env.cacheLog.limit)
	body := decode[struct {
		Entries []store.CacheLogEntry `json:"entries"`
	}](t, rr)
	assert.Len(t, body.Entries, 3)

	rr = env.do(http.MethodGet, "/admin/cache/log?limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, env.cacheLog.limit)

	rr = env.do(http.MethodGet, "/admin/cache/log?limit=9999", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, maxLogLimit, env.cacheLog.limit)

	rr = env.do(http.MethodGet, "/admin/cache/log?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeInvalidLimit, errorCode(t, rr))
}
