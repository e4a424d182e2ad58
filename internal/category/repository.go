// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import (
	"context"

	"github.com/google/uuid"

	"omexcatalog/internal/models"
)

// Store is the storage engine port. Lookups that find nothing return a nil
// category and a nil error. Listings are ordered by priority, then name.
type Store interface {
	Find(ctx context.Context, filters models.CategoryFilters, page models.Pagination) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	// FindByParentID returns direct children; a nil parentID returns roots.
	FindByParentID(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) (*models.Category, error)
	// Delete removes the category and turns its direct children into roots.
	Delete(ctx context.Context, id uuid.UUID) error
}

// HierarchyStore is implemented by engines that can walk the hierarchy in a
// single round-trip. The service uses it when available.
type HierarchyStore interface {
	// Ancestors returns the path from the root down to id, inclusive.
	Ancestors(ctx context.Context, id uuid.UUID) ([]models.Category, error)
	// Descendants returns every category below id in depth-first order.
	Descendants(ctx context.Context, id uuid.UUID) ([]models.Category, error)
}

// Repository is the full category contract consumed by route handlers.
type Repository interface {
	Find(ctx context.Context, filters models.CategoryFilters, page models.Pagination) ([]models.Category, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	FindByParentID(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error)
	FindAll(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, in models.CreateCategoryInput) (*models.Category, error)
	Update(ctx context.Context, id uuid.UUID, patch models.UpdateCategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BuildTree(ctx context.Context, categories []models.Category) ([]models.Category, error)
	GetBreadcrumb(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error)
	GetDescendants(ctx context.Context, categoryID uuid.UUID) ([]models.Category, error)
	IsSlugUnique(ctx context.Context, slug string, excludeID *uuid.UUID) (bool, error)
	WouldCreateCircularReference(ctx context.Context, categoryID uuid.UUID, newParentID *uuid.UUID) (bool, error)
}

// Listener is told whenever cached category views become stale.
type Listener interface {
	CategoriesChanged(ctx context.Context, ev models.CategoryEvent)
}

// Observer receives cache and mutation counts, typically for metrics.
type Observer interface {
	CacheLookup(family string, hit bool)
	Mutation(action string)
}

type noopObserver struct{}

func (noopObserver) CacheLookup(string, bool) {}
func (noopObserver) Mutation(string)          {}
