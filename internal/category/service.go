// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category implements the product category hierarchy: invariant
// enforcement (slug format and uniqueness, parent existence, acyclicity),
// tree, breadcrumb and descendant queries, and a read-through cache kept
// consistent with the backing store.
package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"omexcatalog/internal/cache"
	"omexcatalog/internal/models"
	"omexcatalog/internal/slug"
)

// Service implements Repository on top of a Store and a cache manager.
type Service struct {
	store     Store
	cache     *cache.Manager
	listeners []Listener
	observer  Observer
	now       func() time.Time

	// fillMu orders cache fills against invalidations: a value loaded
	// before an invalidation is only stored if gen is unchanged.
	fillMu sync.Mutex
	gen    uint64
}

var _ Repository = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithListener registers l to be told about every cache invalidation.
func WithListener(l Listener) Option {
	return func(s *Service) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithObserver reports cache lookups and mutations to o.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a category service. A nil manager gets a cache with
// the default TTL.
func NewService(store Store, manager *cache.Manager, opts ...Option) *Service {
	if manager == nil {
		manager = cache.NewManager(cache.DefaultTTLMinutes)
	}
	s := &Service{
		store:    store,
		cache:    manager,
		observer: noopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the cache manager for monitoring and tests.
func (s *Service) Cache() *cache.Manager {
	return s.cache
}

// --- Lookups ---

// Find returns the categories matching filters and the total match count
// before pagination.
func (s *Service) Find(ctx context.Context, filters models.CategoryFilters, page models.Pagination) ([]models.Category, int, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: limit and offset must not be negative", ErrValidation)
	}
	return s.store.Find(ctx, filters, page)
}

// FindByID returns the category with id, or nil if there is none.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	return s.store.FindByID(ctx, id)
}

// FindBySlug returns the category with slug, or nil if there is none.
func (s *Service) FindBySlug(ctx context.Context, slugValue string) (*models.Category, error) {
	if slugValue == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrValidation)
	}
	return s.store.FindBySlug(ctx, slugValue)
}

// FindByParentID returns the direct children of parentID, or the roots
// when parentID is nil.
func (s *Service) FindByParentID(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	return s.store.FindByParentID(ctx, parentID)
}

// FindAll returns every category.
func (s *Service) FindAll(ctx context.Context) ([]models.Category, error) {
	return s.store.FindAll(ctx)
}

// --- Mutations ---

// Create validates in and persists a new category.
func (s *Service) Create(ctx context.Context, in models.CreateCategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Slug == "" {
		return nil, fmt.Errorf("%w: name and slug are required", ErrValidation)
	}
	if err := s.checkSlug(ctx, in.Slug, nil); err != nil {
		return nil, err
	}
	parentID := rootIfNil(in.ParentID)
	if parentID != nil {
		if err := s.checkParentExists(ctx, *parentID); err != nil {
			return nil, err
		}
	}

	ts := s.now().UTC()
	c := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		NameEN:      strings.TrimSpace(in.NameEN),
		Slug:        in.Slug,
		Description: in.Description,
		Icon:        in.Icon,
		Priority:    in.Priority,
		ParentID:    parentID,
		Metadata:    in.Metadata,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	created, err := s.store.Create(ctx, c)
	if err != nil {
		return nil, err
	}

	s.observer.Mutation(string(models.CacheActionCreate))
	s.invalidate(ctx, created.ID, models.CacheActionCreate)
	slog.Info("category created", "id", created.ID, "slug", created.Slug, "parent_id", ptrUUID(created.ParentID))
	return created, nil
}

// Update applies patch to the category with id. Only fields present in the
// patch change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch models.UpdateCategoryInput) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: category with ID %q not found", ErrNotFound, id)
	}

	updated := *existing
	updated.Children = nil

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		updated.Name = name
	}
	if patch.Slug != nil && *patch.Slug != existing.Slug {
		if *patch.Slug == "" {
			return nil, fmt.Errorf("%w: slug must not be empty", ErrValidation)
		}
		if err := s.checkSlug(ctx, *patch.Slug, &id); err != nil {
			return nil, err
		}
		updated.Slug = *patch.Slug
	}
	if patch.ParentID.Set {
		if newParent := rootIfNil(patch.ParentID.ID); newParent != nil {
			if err := s.checkParentExists(ctx, *newParent); err != nil {
				return nil, err
			}
			cyclic, err := s.WouldCreateCircularReference(ctx, id, newParent)
			if err != nil {
				return nil, err
			}
			if cyclic {
				return nil, fmt.Errorf("%w: category %q cannot be moved under %q", ErrCircularReference, id, *newParent)
			}
			parent := *newParent
			updated.ParentID = &parent
		} else {
			updated.ParentID = nil
		}
	}
	if patch.NameEN != nil {
		updated.NameEN = strings.TrimSpace(*patch.NameEN)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Icon != nil {
		updated.Icon = *patch.Icon
	}
	if patch.Priority != nil {
		updated.Priority = *patch.Priority
	}
	if patch.Metadata != nil {
		updated.Metadata = *patch.Metadata
	}
	updated.UpdatedAt = s.now().UTC()

	saved, err := s.store.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}

	s.observer.Mutation(string(models.CacheActionUpdate))
	s.invalidate(ctx, id, models.CacheActionUpdate)
	slog.Info("category updated", "id", id, "slug", saved.Slug)
	return saved, nil
}

// Delete removes the category with id. Its direct children become roots.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("%w: category with ID %q not found", ErrNotFound, id)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.observer.Mutation(string(models.CacheActionDelete))
	s.invalidate(ctx, id, models.CacheActionDelete)
	slog.Info("category deleted", "id", id, "slug", existing.Slug)
	return nil
}

// checkSlug enforces kebab-case format and uniqueness (ignoring excludeID).
func (s *Service) checkSlug(ctx context.Context, value string, excludeID *uuid.UUID) error {
	if !slug.Valid(value) {
		return fmt.Errorf("%w: %q (use lowercase letters, digits and single hyphens, e.g. filtry-powietrza)", ErrInvalidSlugFormat, value)
	}
	unique, err := s.IsSlugUnique(ctx, value, excludeID)
	if err != nil {
		return err
	}
	if !unique {
		return fmt.Errorf("%w: category with slug %q already exists", ErrSlugConflict, value)
	}
	return nil
}

// rootIfNil maps a uuid.Nil parent to no parent.
func rootIfNil(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

// checkParentExists fails with ErrNotFound when parentID is unknown.
func (s *Service) checkParentExists(ctx context.Context, parentID uuid.UUID) error {
	parent, err := s.store.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return fmt.Errorf("%w: parent category with ID %q not found", ErrNotFound, parentID)
	}
	return nil
}

// --- Hierarchy ---

// BuildTree nests categories into a forest. A nil slice builds the tree of
// every stored category.
func (s *Service) BuildTree(ctx context.Context, categories []models.Category) ([]models.Category, error) {
	if categories == nil {
		all, err := s.store.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		categories = all
	}
	return buildTree(categories), nil
}

// FlatTree returns every category in depth-first display order with Depth
// set, e.g. for parent pickers.
func (s *Service) FlatTree(ctx context.Context) ([]models.Category, error) {
	tree, err := s.GetCategoryTree(ctx)
	if err != nil {
		return nil, err
	}
	var result []models.Category
	flattenTree(tree, &result)
	return result, nil
}

// GetBreadcrumb returns the path from the root down to categoryID,
// inclusive. An unknown category yields an empty path.
func (s *Service) GetBreadcrumb(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error) {
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	if h, ok := s.store.(HierarchyStore); ok {
		return h.Ancestors(ctx, categoryID)
	}

	var path []models.Category
	seen := make(map[uuid.UUID]bool)
	current := &categoryID
	for current != nil && !seen[*current] {
		c, err := s.store.FindByID(ctx, *current)
		if err != nil {
			return nil, err
		}
		if c == nil {
			break
		}
		seen[c.ID] = true
		path = append(path, *c)
		current = c.ParentID
	}
	reverse(path)
	return path, nil
}

// GetDescendants returns every category transitively below categoryID in
// depth-first order. The result is empty for a leaf.
func (s *Service) GetDescendants(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error) {
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrValidation)
	}
	if h, ok := s.store.(HierarchyStore); ok {
		return h.Descendants(ctx, categoryID)
	}
	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return OrderDescendants(categoryID, all), nil
}

// IsSlugUnique reports whether no category other than excludeID uses slug.
func (s *Service) IsSlugUnique(ctx context.Context, slugValue string, excludeID *uuid.UUID) (bool, error) {
	existing, err := s.store.FindBySlug(ctx, slugValue)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, nil
	}
	return excludeID != nil && existing.ID == *excludeID, nil
}

// WouldCreateCircularReference reports whether making newParentID the
// parent of categoryID would make categoryID its own ancestor.
func (s *Service) WouldCreateCircularReference(ctx context.Context, categoryID uuid.UUID, newParentID *uuid.UUID) (bool, error) {
	if newParentID == nil {
		return false, nil
	}
	if *newParentID == categoryID {
		return true, nil
	}
	if h, ok := s.store.(HierarchyStore); ok {
		chain, err := h.Ancestors(ctx, *newParentID)
		if err != nil {
			return false, err
		}
		for _, c := range chain {
			if c.ID == categoryID {
				return true, nil
			}
		}
		return false, nil
	}

	seen := make(map[uuid.UUID]bool)
	current := newParentID
	for current != nil && !seen[*current] {
		if *current == categoryID {
			return true, nil
		}
		seen[*current] = true
		c, err := s.store.FindByID(ctx, *current)
		if err != nil {
			return false, err
		}
		if c == nil {
			break
		}
		current = c.ParentID
	}
	return false, nil
}

// ptrUUID renders an optional ID for logging.
func ptrUUID(u *uuid.UUID) string {
	if u == nil {
		return ""
	}
	return u.String()
}
