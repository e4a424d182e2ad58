// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"omexcatalog/internal/cache"
	"omexcatalog/internal/models"
)

// Cache keys. Values stored under them are shared between callers and must
// be treated as read-only.
const (
	KeyAllCategories     = "all_categories"
	KeyCategoryTree      = "category_tree"
	keySlugPrefix        = "category_slug_"
	keySubcategoryPrefix = "subcategories_"
	keyBreadcrumbPrefix  = "breadcrumb_"
	familyCategorySlug   = "category_slug"
	familySubcategories  = "subcategories"
	familyBreadcrumb     = "breadcrumb"
)

// SlugKey is the cache key for the category with slug.
func SlugKey(slug string) string { return keySlugPrefix + slug }

// SubcategoriesKey is the cache key for the children of parentID.
func SubcategoriesKey(parentID uuid.UUID) string { return keySubcategoryPrefix + parentID.String() }

// BreadcrumbKey is the cache key for the breadcrumb of categoryID.
func BreadcrumbKey(categoryID uuid.UUID) string { return keyBreadcrumbPrefix + categoryID.String() }

// cachedRead returns the value under key, computing and storing it on a miss.
func cachedRead[T any](s *Service, family, key string, load func() (T, error)) (T, error) {
	if v, ok := cache.Get[T](s.cache, key); ok {
		s.observer.CacheLookup(family, true)
		return v, nil
	}
	s.observer.CacheLookup(family, false)

	gen := s.generation()
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.fill(gen, key, v)
	return v, nil
}

// generation returns the current invalidation generation.
func (s *Service) generation() uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.gen
}

// fill stores v under key unless the cache was invalidated after gen was
// read.
func (s *Service) fill(gen uint64, key string, v any) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if gen == s.gen {
		s.cache.Set(key, v)
	}
}

// clearCache drops every cached entry and starts a new generation.
func (s *Service) clearCache() {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	s.gen++
	s.cache.InvalidateAll()
}

// GetAllCategories returns every category, read through the cache.
func (s *Service) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return cachedRead(s, KeyAllCategories, KeyAllCategories, func() ([]models.Category, error) {
		return s.store.FindAll(ctx)
	})
}

// GetCategoryBySlug returns the category with slug, read through the cache.
// Misses are not cached, so a category created elsewhere shows up at once.
func (s *Service) GetCategoryBySlug(ctx context.Context, slugValue string) (*models.Category, error) {
	if slugValue == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrValidation)
	}
	key := SlugKey(slugValue)
	if c, ok := cache.Get[*models.Category](s.cache, key); ok {
		s.observer.CacheLookup(familyCategorySlug, true)
		return c, nil
	}
	s.observer.CacheLookup(familyCategorySlug, false)

	gen := s.generation()
	c, err := s.store.FindBySlug(ctx, slugValue)
	if err != nil || c == nil {
		return c, err
	}
	s.fill(gen, key, c)
	return c, nil
}

// GetSubcategories returns the direct children of parentID, read through
// the cache.
func (s *Service) GetSubcategories(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	if parentID == uuid.Nil {
		return nil, fmt.Errorf("%w: parent ID is required", ErrValidation)
	}
	return cachedRead(s, familySubcategories, SubcategoriesKey(parentID), func() ([]models.Category, error) {
		return s.store.FindByParentID(ctx, &parentID)
	})
}

// GetCategoryTree returns the full category forest, read through the cache.
func (s *Service) GetCategoryTree(ctx context.Context) ([]models.Category, error) {
	return cachedRead(s, KeyCategoryTree, KeyCategoryTree, func() ([]models.Category, error) {
		return s.BuildTree(ctx, nil)
	})
}

// GetBreadcrumbPath returns the breadcrumb of categoryID, read through the
// cache.
func (s *Service) GetBreadcrumbPath(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error) {
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	return cachedRead(s, familyBreadcrumb, BreadcrumbKey(categoryID), func() ([]models.Category, error) {
		return s.GetBreadcrumb(ctx, categoryID)
	})
}

// InvalidateCache clears every cached category view and tells listeners.
func (s *Service) InvalidateCache(ctx context.Context) {
	s.observer.Mutation(string(models.CacheActionInvalidate))
	s.invalidate(ctx, uuid.Nil, models.CacheActionInvalidate)
}

// DropLocalCache clears this process's cache without notifying listeners.
// It handles invalidations that originated on another instance.
func (s *Service) DropLocalCache(_ context.Context, ev models.CategoryEvent) {
	s.clearCache()
	slog.Debug("category cache dropped", "action", ev.Action, "origin", ev.Origin)
}

// RebuildCache clears the cache and repopulates every cached view from a
// single read of the store: the full list, the tree, and the slug,
// subcategory and breadcrumb entries of each category.
func (s *Service) RebuildCache(ctx context.Context) error {
	gen := s.generation()
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("rebuild category cache: %w", err)
	}
	entries := snapshot(all)

	s.fillMu.Lock()
	stale := s.gen != gen
	s.gen++
	s.cache.InvalidateAll()
	if !stale {
		for key, v := range entries {
			s.cache.Set(key, v)
		}
	}
	s.fillMu.Unlock()

	if stale {
		// A write landed while reading; leave the cache to fill lazily.
		slog.Warn("category cache rebuild raced a write, cache left empty")
	}

	for _, l := range s.listeners {
		l.CategoriesChanged(ctx, models.CategoryEvent{Action: models.CacheActionRebuild})
	}
	s.observer.Mutation(string(models.CacheActionRebuild))
	slog.Info("category cache rebuilt", "categories", len(all), "entries", s.cache.Size())
	return nil
}

// snapshot computes every cached view of all, keyed by cache key.
func snapshot(all []models.Category) map[string]any {
	entries := make(map[string]any, 2+3*len(all))
	entries[KeyAllCategories] = all
	entries[KeyCategoryTree] = buildTree(all)

	byID := make(map[uuid.UUID]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	children := strictChildrenIndex(all)

	for _, c := range all {
		entries[SlugKey(c.Slug)] = &c
		subs := children[c.ID]
		if subs == nil {
			subs = []models.Category{}
		}
		entries[SubcategoriesKey(c.ID)] = subs
		entries[BreadcrumbKey(c.ID)] = breadcrumbFrom(byID, c.ID)
	}
	return entries
}

// invalidate clears the local cache and notifies listeners.
func (s *Service) invalidate(ctx context.Context, id uuid.UUID, action models.CacheAction) {
	s.clearCache()
	ev := models.CategoryEvent{CategoryID: id, Action: action}
	for _, l := range s.listeners {
		l.CategoriesChanged(ctx, ev)
	}
}
