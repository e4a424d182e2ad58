// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"omexcatalog/internal/category"
	"omexcatalog/internal/models"
)

// PostgreSQL error codes the category store translates.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// CategoryStore manages categories in PostgreSQL.
type CategoryStore struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

var (
	_ category.Store          = (*CategoryStore)(nil)
	_ category.HierarchyStore = (*CategoryStore)(nil)
)

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var categoryColumns = []string{
	"id", "name", "name_en", "slug", "description", "icon",
	"priority", "parent_id", "metadata", "created_at", "updated_at",
}

// qualified prefixes every category column with alias.
func qualified(alias string) string {
	cols := make([]string, len(categoryColumns))
	for i, c := range categoryColumns {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.NameEN, &c.Slug, &c.Description, &c.Icon,
		&c.Priority, &c.ParentID, &c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// scanCategories drains rows into a slice. The result is never nil.
func scanCategories(rows *sql.Rows) ([]models.Category, error) {
	defer rows.Close()
	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// selectCategories starts a SELECT over categories in display order.
func (s *CategoryStore) selectCategories() squirrel.SelectBuilder {
	return s.sq.Select(categoryColumns...).From("categories").OrderBy("priority", "name", "slug")
}

// query runs a built SELECT and scans every row.
func (s *CategoryStore) query(ctx context.Context, b squirrel.SelectBuilder, op string) ([]models.Category, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	items, err := scanCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// queryOne runs a built SELECT expected to match at most one row. Returns
// nil if nothing matches.
func (s *CategoryStore) queryOne(ctx context.Context, b squirrel.SelectBuilder, op string) (*models.Category, error) {
	query, args, err := b.Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	c, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// filterConditions translates filters into WHERE clauses.
func filterConditions(f models.CategoryFilters) squirrel.And {
	where := squirrel.And{}
	if f.ParentID.Set {
		if f.ParentID.ID == nil {
			where = append(where, squirrel.Eq{"parent_id": nil})
		} else {
			where = append(where, squirrel.Eq{"parent_id": f.ParentID.ID.String()})
		}
	}
	if f.Slug != "" {
		where = append(where, squirrel.Eq{"slug": f.Slug})
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + q + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"name_en": pattern},
		})
	}
	return where
}

// Find returns one page of categories matching filters and the total number
// of matches. A zero Limit returns every match from Offset on.
func (s *CategoryStore) Find(ctx context.Context, filters models.CategoryFilters, page models.Pagination) ([]models.Category, int, error) {
	where := filterConditions(filters)

	countQuery, args, err := s.sq.Select("COUNT(*)").From("categories").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: build query: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}

	b := s.selectCategories().Where(where)
	if page.Limit > 0 {
		b = b.Limit(uint64(page.Limit))
	}
	if page.Offset > 0 {
		b = b.Offset(uint64(page.Offset))
	}
	items, err := s.query(ctx, b, "find categories")
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.queryOne(ctx, s.selectCategories().Where(squirrel.Eq{"id": id.String()}), "find category by id")
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.queryOne(ctx, s.selectCategories().Where(squirrel.Eq{"slug": slug}), "find category by slug")
}

// FindByParentID returns the direct children of parentID, or the roots when
// parentID is nil.
func (s *CategoryStore) FindByParentID(ctx context.Context, parentID *uuid.UUID) ([]models.Category, error) {
	cond := squirrel.Eq{"parent_id": nil}
	if parentID != nil {
		cond = squirrel.Eq{"parent_id": parentID.String()}
	}
	return s.query(ctx, s.selectCategories().Where(cond), "find categories by parent")
}

// FindAll returns every category ordered by priority, then name.
func (s *CategoryStore) FindAll(ctx context.Context) ([]models.Category, error) {
	return s.query(ctx, s.selectCategories(), "list categories")
}

// Create inserts a new category and returns the stored row.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query, args, err := s.sq.Insert("categories").
		Columns(categoryColumns...).
		Values(c.ID, c.Name, c.NameEN, c.Slug, c.Description, c.Icon,
			c.Priority, c.ParentID, c.Metadata, c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING " + strings.Join(categoryColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("create category: build query: %w", err)
	}
	created, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", translateError(err, c))
	}
	return created, nil
}

// Update writes every mutable column of c and returns the stored row.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) (*models.Category, error) {
	query, args, err := s.sq.Update("categories").
		SetMap(map[string]any{
			"name":        c.Name,
			"name_en":     c.NameEN,
			"slug":        c.Slug,
			"description": c.Description,
			"icon":        c.Icon,
			"priority":    c.Priority,
			"parent_id":   c.ParentID,
			"metadata":    c.Metadata,
			"updated_at":  c.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": c.ID.String()}).
		Suffix("RETURNING " + strings.Join(categoryColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("update category: build query: %w", err)
	}
	updated, err := scanCategory(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update category: %w: %s", category.ErrNotFound, c.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update category: %w", translateError(err, c))
	}
	return updated, nil
}

// Delete removes a category. Its direct children become roots within the
// same transaction.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	detach, args, err := s.sq.Update("categories").
		Set("parent_id", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"parent_id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("detach children: build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, detach, args...); err != nil {
		return fmt.Errorf("detach children of %s: %w", id, err)
	}

	del, args, err := s.sq.Delete("categories").Where(squirrel.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return fmt.Errorf("delete category: build query: %w", err)
	}
	res, err := tx.ExecContext(ctx, del, args...)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete category: %w: %s", category.ErrNotFound, id)
	}

	return tx.Commit()
}

// Ancestors returns the path from the root down to id, inclusive, in one
// recursive query. The seen array stops the walk on corrupted cyclic data.
func (s *CategoryStore) Ancestors(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT ` + qualified("c") + `, 0 AS lvl, ARRAY[c.id] AS seen
			FROM categories c
			WHERE c.id = $1
			UNION ALL
			SELECT ` + qualified("p") + `, chain.lvl + 1, chain.seen || p.id
			FROM categories p
			JOIN chain ON p.id = chain.parent_id
			WHERE NOT p.id = ANY(chain.seen)
		)
		SELECT ` + strings.Join(categoryColumns, ", ") + `
		FROM chain
		ORDER BY lvl DESC`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("category ancestors: %w", err)
	}
	items, err := scanCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("category ancestors: %w", err)
	}
	return items, nil
}

// Descendants returns every category below id, depth-first with siblings
// in priority order.
func (s *CategoryStore) Descendants(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	query := `
		WITH RECURSIVE sub AS (
			SELECT ` + qualified("c") + `, ARRAY[c.id] AS seen
			FROM categories c
			WHERE c.parent_id = $1
			UNION ALL
			SELECT ` + qualified("k") + `, sub.seen || k.id
			FROM categories k
			JOIN sub ON k.parent_id = sub.id
			WHERE NOT k.id = ANY(sub.seen)
		)
		SELECT ` + strings.Join(categoryColumns, ", ") + `
		FROM sub`
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("category descendants: %w", err)
	}
	items, err := scanCategories(rows)
	if err != nil {
		return nil, fmt.Errorf("category descendants: %w", err)
	}
	return category.OrderDescendants(id, items), nil
}

// translateError maps constraint violations to category error kinds.
func translateError(err error, c *models.Category) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: category with slug %q already exists", category.ErrSlugConflict, c.Slug)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: parent category with ID %q not found", category.ErrNotFound, ptrString(c.ParentID))
	}
	return err
}

func ptrString(u *uuid.UUID) string {
	if u == nil {
		return ""
	}
	return u.String()
}
