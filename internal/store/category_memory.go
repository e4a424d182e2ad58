// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
)

// MemoryCategoryStore keeps categories in process memory. It backs tests
// and database-less development runs. Returned categories are copies.
type MemoryCategoryStore struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]models.Category
}

var _ category.Store = (*MemoryCategoryStore)(nil)

// NewMemoryCategoryStore returns an empty in-memory store.
func NewMemoryCategoryStore() *MemoryCategoryStore {
	return &MemoryCategoryStore{categories: make(map[uuid.UUID]models.Category)}
}

// sorted returns the categories accepted by keep in display order.
func (s *MemoryCategoryStore) sorted(keep func(models.Category) bool) []models.Category {
	items := []models.Category{}
	for _, c := range s.categories {
		if keep(c) {
			items = append(items, clone(c))
		}
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Slug < b.Slug
	})
	return items
}

// clone copies c so callers cannot alias stored pointers or maps.
func clone(c models.Category) models.Category {
	if c.ParentID != nil {
		p := *c.ParentID
		c.ParentID = &p
	}
	if c.Metadata != nil {
		m := make(models.Metadata, len(c.Metadata))
		for k, v := range c.Metadata {
			m[k] = v
		}
		c.Metadata = m
	}
	c.Children = nil
	c.Depth = 0
	return c
}

func matches(c models.Category, f models.CategoryFilters) bool {
	if f.ParentID.Set && !sameParent(c.ParentID, f.ParentID.ID) {
		return false
	}
	if f.Slug != "" && c.Slug != f.Slug {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.NameEN), q) {
			return false
		}
	}
	return true
}

// sameParent compares two optional parent IDs (both nil or same value).
func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Find returns one page of matching categories and the total match count.
func (s *MemoryCategoryStore) Find(_ context.Context, filters models.CategoryFilters, page models.Pagination) ([]models.Category, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.sorted(func(c models.Category) bool { return matches(c, filters) })
	total := len(items)
	if page.Offset >= total {
		return []models.Category{}, total, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items, total, nil
}

// FindByID returns the category with id, or nil.
func (s *MemoryCategoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	c = clone(c)
	return &c, nil
}

// FindBySlug returns the category with slug, or nil.
func (s *MemoryCategoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			c = clone(c)
			return &c, nil
		}
	}
	return nil, nil
}

// FindByParentID returns the direct children of parentID, or the roots.
func (s *MemoryCategoryStore) FindByParentID(_ context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(c models.Category) bool { return sameParent(c.ParentID, parentID) }), nil
}

// FindAll returns every category in display order.
func (s *MemoryCategoryStore) FindAll(_ context.Context) ([]models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(models.Category) bool { return true }), nil
}

// Create stores c. Slugs are unique and parents must exist, mirroring the
// database constraints.
func (s *MemoryCategoryStore) Create(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := clone(*c)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if err := s.checkConstraints(stored); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.categories[stored.ID] = stored
	out := clone(stored)
	return &out, nil
}

// Update replaces the stored category with c.
func (s *MemoryCategoryStore) Update(_ context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.categories[c.ID]
	if !ok {
		return nil, fmt.Errorf("update category: %w: %s", category.ErrNotFound, c.ID)
	}
	stored := clone(*c)
	stored.CreatedAt = existing.CreatedAt
	if err := s.checkConstraints(stored); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	s.categories[stored.ID] = stored
	out := clone(stored)
	return &out, nil
}

// Delete removes the category and turns its direct children into roots.
func (s *MemoryCategoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("delete category: %w: %s", category.ErrNotFound, id)
	}
	for childID, c := range s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			c.ParentID = nil
			s.categories[childID] = c
		}
	}
	delete(s.categories, id)
	return nil
}

// Len returns the number of stored categories.
func (s *MemoryCategoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.categories)
}

// checkConstraints enforces slug uniqueness and parent existence. The
// caller holds the write lock.
func (s *MemoryCategoryStore) checkConstraints(c models.Category) error {
	for id, other := range s.categories {
		if id != c.ID && other.Slug == c.Slug {
			return fmt.Errorf("%w: category with slug %q already exists", category.ErrSlugConflict, c.Slug)
		}
	}
	if c.ParentID != nil {
		if _, ok := s.categories[*c.ParentID]; !ok {
			return fmt.Errorf("%w: parent category with ID %q not found", category.ErrNotFound, *c.ParentID)
		}
	}
	return nil
}
