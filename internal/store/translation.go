// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"omexcatalog/internal/models"
)

// TranslationStore manages category translations in PostgreSQL. There is at
// most one translation per category and locale.
type TranslationStore struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewTranslationStore returns a new TranslationStore.
func NewTranslationStore(db *sql.DB) *TranslationStore {
	return &TranslationStore{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const translationColumns = "id, category_id, locale, name, description, created_at"

func scanTranslation(scanner interface{ Scan(...any) error }) (*models.CategoryTranslation, error) {
	var t models.CategoryTranslation
	if err := scanner.Scan(&t.ID, &t.CategoryID, &t.Locale, &t.Name, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts t or replaces the existing translation for the same
// category and locale.
func (s *TranslationStore) Upsert(ctx context.Context, t *models.CategoryTranslation) (*models.CategoryTranslation, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query, args, err := s.sq.Insert("category_translations").
		Columns("id", "category_id", "locale", "name", "description").
		Values(t.ID, t.CategoryID, string(t.Locale), t.Name, t.Description).
		Suffix(`ON CONFLICT (category_id, locale) DO UPDATE
			SET name = EXCLUDED.name, description = EXCLUDED.description
			RETURNING ` + translationColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("upsert translation: build query: %w", err)
	}
	saved, err := scanTranslation(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert translation: %w", err)
	}
	return saved, nil
}

// Find returns the translation of categoryID into locale, or nil.
func (s *TranslationStore) Find(ctx context.Context, categoryID uuid.UUID, locale models.Locale) (*models.CategoryTranslation, error) {
	query, args, err := s.sq.Select(translationColumns).
		From("category_translations").
		Where(squirrel.Eq{"category_id": categoryID.String(), "locale": string(locale)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("find translation: build query: %w", err)
	}
	t, err := scanTranslation(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find translation: %w", err)
	}
	return t, nil
}

// ListForCategory returns every translation of categoryID ordered by locale.
func (s *TranslationStore) ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryTranslation, error) {
	query, args, err := s.sq.Select(translationColumns).
		From("category_translations").
		Where(squirrel.Eq{"category_id": categoryID.String()}).
		OrderBy("locale").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list translations: build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list translations: %w", err)
	}
	defer rows.Close()

	items := []models.CategoryTranslation{}
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// MemoryTranslationStore keeps translations in process memory.
type MemoryTranslationStore struct {
	mu    sync.RWMutex
	items map[translationKey]models.CategoryTranslation
}

type translationKey struct {
	categoryID uuid.UUID
	locale     models.Locale
}

// NewMemoryTranslationStore returns an empty in-memory translation store.
func NewMemoryTranslationStore() *MemoryTranslationStore {
	return &MemoryTranslationStore{items: make(map[translationKey]models.CategoryTranslation)}
}

// Upsert stores t, replacing any translation for the same category and locale.
func (s *MemoryTranslationStore) Upsert(_ context.Context, t *models.CategoryTranslation) (*models.CategoryTranslation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := translationKey{t.CategoryID, t.Locale}
	saved := *t
	if existing, ok := s.items[key]; ok {
		saved.ID = existing.ID
		saved.CreatedAt = existing.CreatedAt
	} else {
		if saved.ID == uuid.Nil {
			saved.ID = uuid.New()
		}
		saved.CreatedAt = time.Now().UTC()
	}
	s.items[key] = saved
	return &saved, nil
}

// Find returns the translation of categoryID into locale, or nil.
func (s *MemoryTranslationStore) Find(_ context.Context, categoryID uuid.UUID, locale models.Locale) (*models.CategoryTranslation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.items[translationKey{categoryID, locale}]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListForCategory returns every translation of categoryID ordered by locale.
func (s *MemoryTranslationStore) ListForCategory(_ context.Context, categoryID uuid.UUID) ([]models.CategoryTranslation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := []models.CategoryTranslation{}
	for k, t := range s.items {
		if k.categoryID == categoryID {
			items = append(items, t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Locale < items[j].Locale })
	return items, nil
}
