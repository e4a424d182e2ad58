// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
	"omexcatalog/internal/store"
	"omexcatalog/internal/translation"
)

// Admin list bounds.
const (
	defaultAdminLimit = 50
	maxAdminLimit     = 500
	defaultLogLimit   = 50
	maxLogLimit       = 500
)

// CacheLog reads recorded cache invalidations.
type CacheLog interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// Admin groups the category management endpoints.
type Admin struct {
	categories   *category.Service
	translations *translation.Service
	cacheLog     CacheLog
}

// NewAdmin creates the admin handler group. translations and cacheLog may
// be nil; the endpoints that need them then answer 404 or empty lists.
func NewAdmin(categories *category.Service, translations *translation.Service, cacheLog CacheLog) *Admin {
	return &Admin{
		categories:   categories,
		translations: translations,
		cacheLog:     cacheLog,
	}
}

type createCategoryRequest struct {
	models.CreateCategoryInput
	Translations map[models.Locale]models.TranslationInput `json:"translations" validate:"omitempty,dive"`
}

type categoryWithTranslations struct {
	Category       *models.Category             `json:"category"`
	Translations   []models.CategoryTranslation `json:"translations"`
	MissingLocales []models.Locale              `json:"missing_locales,omitempty"`
}

// List finds categories with optional filters:
// ?parent_id=<uuid>|root, ?slug=, ?q= (name substring), ?limit=, ?offset=.
func (a *Admin) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters models.CategoryFilters
	switch pid := q.Get("parent_id"); pid {
	case "":
	case "root", "null":
		filters.ParentID = models.RootParent()
	default:
		id, err := uuid.Parse(pid)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidID, "parent_id must be a UUID or \"root\"")
			return
		}
		filters.ParentID = models.ParentOf(id)
	}
	filters.Slug = q.Get("slug")
	filters.Query = q.Get("q")

	page := models.Pagination{Limit: defaultAdminLimit}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeInvalidLimit, "limit must be a positive integer")
			return
		}
		page.Limit = min(n, maxAdminLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeInvalidOffset, "offset must be greater than or equal to 0")
			return
		}
		page.Offset = n
	}

	cats, total, err := a.categories.Find(r.Context(), filters, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": orEmpty(cats),
		"total":      total,
		"limit":      page.Limit,
		"offset":     page.Offset,
	})
}

// Flat returns the whole hierarchy flattened depth first with depths set.
func (a *Admin) Flat(w http.ResponseWriter, r *http.Request) {
	flat, err := a.categories.FlatTree(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": orEmpty(flat)})
}

// Get returns one category by ID with its translations.
func (a *Admin) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	c, err := a.categories.FindByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "category "+id.String()+" not found")
		return
	}

	resp := categoryWithTranslations{Category: c, Translations: []models.CategoryTranslation{}}
	if a.translations != nil {
		if resp.Translations, err = a.translations.List(ctx, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
		if resp.MissingLocales, err = a.translations.MissingLocales(ctx, id); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create creates a category and, optionally, its translations. Locales
// are checked before the category is created.
func (a *Admin) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if len(req.Translations) > 0 && a.translations == nil {
		writeError(w, http.StatusBadRequest, codeValidation, "translations are not enabled")
		return
	}
	for l := range req.Translations {
		if _, err := translation.ParseLocale(string(l)); err != nil || l == "" {
			writeError(w, http.StatusBadRequest, codeUnsupportedLocale, "unsupported locale: "+string(l))
			return
		}
	}

	ctx := r.Context()
	c, err := a.categories.Create(ctx, req.CreateCategoryInput)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := categoryWithTranslations{Category: c, Translations: []models.CategoryTranslation{}}
	if len(req.Translations) > 0 {
		resp.Translations, err = a.translations.BulkAdd(ctx, c.ID, req.Translations)
		if err != nil {
			slog.Error("category created but translations failed", "id", c.ID, "error", err)
			writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Update applies a partial update. "parent_id": null moves the category
// to the root; omitting parent_id leaves it where it is.
func (a *Admin) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch models.UpdateCategoryInput
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
		return
	}
	if err := validateStruct(&patch); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	c, err := a.categories.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": c})
}

// Delete removes a category. Its children become roots.
func (a *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := a.categories.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutTranslation creates or replaces the translation of a category for
// the {locale} path parameter.
func (a *Admin) PutTranslation(w http.ResponseWriter, r *http.Request) {
	if a.translations == nil {
		writeError(w, http.StatusNotFound, codeValidation, "translations are not enabled")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	locale, err := translation.ParseLocale(chi.URLParam(r, "locale"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var in models.TranslationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidBody, err.Error())
		return
	}
	if err := validateStruct(&in); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	ctx := r.Context()
	c, err := a.categories.FindByID(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "category "+id.String()+" not found")
		return
	}

	t, err := a.translations.AddCategoryTranslation(ctx, id, locale, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Localized responses are cached too.
	a.categories.InvalidateCache(ctx)
	writeJSON(w, http.StatusOK, map[string]any{"translation": t})
}

// RebuildCache recomputes every cached category view.
func (a *Admin) RebuildCache(w http.ResponseWriter, r *http.Request) {
	if err := a.categories.RebuildCache(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "rebuilt",
		"entries": a.categories.Cache().Size(),
	})
}

// InvalidateCache drops every cached category view.
func (a *Admin) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	a.categories.InvalidateCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated"})
}

// CacheLog lists recent cache invalidations, newest first.
func (a *Admin) CacheLog(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, codeInvalidLimit, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogLimit)
	}

	entries := []store.CacheLogEntry{}
	if a.cacheLog != nil {
		var err error
		if entries, err = a.cacheLog.RecentEntries(r.Context(), limit); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// pathID parses the {id} URL parameter, answering 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidID, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
