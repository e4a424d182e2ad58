// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"omexcatalog/internal/category"
	"omexcatalog/internal/markdown"
	"omexcatalog/internal/models"
	"omexcatalog/internal/translation"
)

// Subcategory pagination bounds.
const (
	defaultSubcategoryLimit = 50
	maxSubcategoryLimit     = 100
)

// ResponseCache stores encoded public responses shared between instances.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
}

// Public groups the storefront category endpoints. Reads go through the
// service's cached views. When a response cache is configured, encoded
// bodies are also cached in Valkey.
type Public struct {
	categories   *category.Service
	translations *translation.Service
	responses    ResponseCache
}

// NewPublic creates the public handler group. translations and responses
// may be nil.
func NewPublic(categories *category.Service, translations *translation.Service, responses ResponseCache) *Public {
	return &Public{
		categories:   categories,
		translations: translations,
		responses:    responses,
	}
}

// categoryView is a category as served to the storefront.
type categoryView struct {
	models.Category
	DescriptionHTML string `json:"description_html,omitempty"`
}

type categoryDetail struct {
	Category      categoryView      `json:"category"`
	Subcategories []models.Category `json:"subcategories"`
	Breadcrumb    []models.Category `json:"breadcrumb"`
}

type pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	HasMore bool `json:"hasMore"`
}

type subcategoryPage struct {
	Subcategories []models.Category `json:"subcategories"`
	Pagination    pagination        `json:"pagination"`
}

// apiError is returned by build functions to answer with a specific code.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func notFound(slugValue string) *apiError {
	return &apiError{status: http.StatusNotFound, code: codeNotFound, message: `category with slug "` + slugValue + `" not found`}
}

// serve answers r with the cached body for its URL or, on a miss, with
// the encoded result of build. Errors are never cached.
func (p *Public) serve(w http.ResponseWriter, r *http.Request, build func(ctx context.Context) (any, error)) {
	ctx := r.Context()
	key := r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}

	if p.responses != nil {
		if body, ok := p.responses.Get(ctx, key); ok {
			writeBody(w, http.StatusOK, body)
			return
		}
	}

	v, err := build(ctx)
	if err != nil {
		if ae, ok := err.(*apiError); ok {
			writeError(w, ae.status, ae.code, ae.message)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if p.responses != nil {
		p.responses.Set(ctx, key, body)
	}
	writeBody(w, http.StatusOK, body)
}

// List returns every category as a flat list, or the forest with ?view=tree.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("view") == "tree" {
		p.Tree(w, r)
		return
	}
	p.serve(w, r, func(ctx context.Context) (any, error) {
		all, err := p.categories.GetAllCategories(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"categories": orEmpty(all), "count": len(all)}, nil
	})
}

// Tree returns the category forest.
func (p *Public) Tree(w http.ResponseWriter, r *http.Request) {
	p.serve(w, r, func(ctx context.Context) (any, error) {
		tree, err := p.categories.GetCategoryTree(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"categories": orEmpty(tree)}, nil
	})
}

// Show returns one category with its direct subcategories and breadcrumb.
// ?locale= overlays the translation for that locale.
func (p *Public) Show(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	locale, err := translation.ParseLocale(r.URL.Query().Get("locale"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p.serve(w, r, func(ctx context.Context) (any, error) {
		c, err := p.categories.GetCategoryBySlug(ctx, slugValue)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, notFound(slugValue)
		}

		subs, err := p.categories.GetSubcategories(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		crumbs, err := p.categories.GetBreadcrumbPath(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		view := *c
		if p.translations != nil {
			if view, err = p.translations.Localize(ctx, view, locale); err != nil {
				return nil, err
			}
		}
		html, err := markdown.ToHTML(view.Description)
		if err != nil {
			slog.Warn("render category description failed", "slug", slugValue, "error", err)
		}

		return categoryDetail{
			Category:      categoryView{Category: view, DescriptionHTML: html},
			Subcategories: orEmpty(subs),
			Breadcrumb:    orEmpty(crumbs),
		}, nil
	})
}

// Subcategories returns a page of the direct children of a category,
// ordered by priority.
func (p *Public) Subcategories(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")

	limit, offset, perr := parsePage(r)
	if perr != nil {
		writeError(w, perr.status, perr.code, perr.message)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	p.serve(w, r, func(ctx context.Context) (any, error) {
		c, err := p.categories.GetCategoryBySlug(ctx, slugValue)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, notFound(slugValue)
		}
		all, err := p.categories.GetSubcategories(ctx, c.ID)
		if err != nil {
			return nil, err
		}

		// Clamp before adding so a huge offset cannot overflow.
		start := min(offset, len(all))
		end := start + min(limit, len(all)-start)
		page := orEmpty(all[start:end])
		return subcategoryPage{
			Subcategories: page,
			Pagination: pagination{
				Limit:   limit,
				Offset:  offset,
				Total:   len(all),
				Count:   len(page),
				HasMore: end < len(all),
			},
		}, nil
	})
}

// Breadcrumb returns the path from the root down to the category.
func (p *Public) Breadcrumb(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	p.serve(w, r, func(ctx context.Context) (any, error) {
		c, err := p.categories.GetCategoryBySlug(ctx, slugValue)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, notFound(slugValue)
		}
		crumbs, err := p.categories.GetBreadcrumbPath(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"breadcrumb": orEmpty(crumbs)}, nil
	})
}

// Descendants returns every category below the given one, depth first.
func (p *Public) Descendants(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	p.serve(w, r, func(ctx context.Context) (any, error) {
		c, err := p.categories.GetCategoryBySlug(ctx, slugValue)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, notFound(slugValue)
		}
		desc, err := p.categories.GetDescendants(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"descendants": orEmpty(desc), "count": len(desc)}, nil
	})
}

// parsePage reads ?limit= and ?offset=. A missing, zero or non-numeric
// limit means the default. Larger limits are capped; negative ones are
// rejected. A missing or non-numeric offset means 0.
func parsePage(r *http.Request) (limit, offset int, perr *apiError) {
	limit = defaultSubcategoryLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v != 0 {
		limit = min(v, maxSubcategoryLimit)
	}
	if limit < 1 {
		return 0, 0, &apiError{status: http.StatusBadRequest, code: codeInvalidLimit, message: "limit must be between 1 and 100"}
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		offset = v
	}
	if offset < 0 {
		return 0, 0, &apiError{status: http.StatusBadRequest, code: codeInvalidOffset, message: "offset must be greater than or equal to 0"}
	}
	return limit, offset, nil
}

// orEmpty keeps empty lists encoded as [] rather than null.
func orEmpty(cats []models.Category) []models.Category {
	if cats == nil {
		return []models.Category{}
	}
	return cats
}
