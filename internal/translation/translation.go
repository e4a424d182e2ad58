// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package translation manages localized category names. Polish is the
// catalog's source language; lookups for a missing locale fall back to
// English.
package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"omexcatalog/internal/models"
)

const (
	// DefaultLocale is the language categories are authored in.
	DefaultLocale = models.LocalePL
	// FallbackLocale is served when the requested locale has no translation.
	FallbackLocale = models.LocaleEN
)

// SupportedLocales lists every accepted locale.
var SupportedLocales = []models.Locale{models.LocalePL, models.LocaleEN, models.LocaleDE}

var (
	// ErrUnsupportedLocale reports a locale outside SupportedLocales.
	ErrUnsupportedLocale = errors.New("unsupported locale")
	// ErrInvalid reports a translation missing required fields.
	ErrInvalid = errors.New("invalid translation")
)

// Store persists category translations.
type Store interface {
	Upsert(ctx context.Context, t *models.CategoryTranslation) (*models.CategoryTranslation, error)
	Find(ctx context.Context, categoryID uuid.UUID, locale models.Locale) (*models.CategoryTranslation, error)
	ListForCategory(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryTranslation, error)
}

// Service validates and stores category translations.
type Service struct {
	store Store
}

// NewService creates a translation service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ParseLocale validates a locale code. An empty code yields DefaultLocale.
func ParseLocale(code string) (models.Locale, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLocale, nil
	}
	for _, l := range SupportedLocales {
		if string(l) == code {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %s (supported: pl, en, de)", ErrUnsupportedLocale, code)
}

// AddCategoryTranslation stores the translation of categoryID into locale.
func (s *Service) AddCategoryTranslation(ctx context.Context, categoryID uuid.UUID, locale models.Locale, in models.TranslationInput) (*models.CategoryTranslation, error) {
	if _, err := ParseLocale(string(locale)); err != nil || locale == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, locale)
	}
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrInvalid)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required for category translation", ErrInvalid)
	}

	saved, err := s.store.Upsert(ctx, &models.CategoryTranslation{
		CategoryID:  categoryID,
		Locale:      locale,
		Name:        name,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("category translation saved", "category_id", categoryID, "locale", locale)
	return saved, nil
}

// BulkAdd stores one translation per locale. Every entry is validated
// before anything is written, so a bad locale stores nothing.
func (s *Service) BulkAdd(ctx context.Context, categoryID uuid.UUID, translations map[models.Locale]models.TranslationInput) ([]models.CategoryTranslation, error) {
	locales := make([]models.Locale, 0, len(translations))
	for l, in := range translations {
		if _, err := ParseLocale(string(l)); err != nil || l == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLocale, l)
		}
		if strings.TrimSpace(in.Name) == "" {
			return nil, fmt.Errorf("%w: name is required for %s translation", ErrInvalid, l)
		}
		locales = append(locales, l)
	}
	sort.Slice(locales, func(i, j int) bool { return locales[i] < locales[j] })

	results := make([]models.CategoryTranslation, 0, len(locales))
	for _, l := range locales {
		t, err := s.AddCategoryTranslation(ctx, categoryID, l, translations[l])
		if err != nil {
			return results, fmt.Errorf("add %s translation: %w", l, err)
		}
		results = append(results, *t)
	}
	return results, nil
}

// CategoryTranslation returns the translation of categoryID into locale,
// falling back to FallbackLocale. It returns nil when neither exists.
func (s *Service) CategoryTranslation(ctx context.Context, categoryID uuid.UUID, locale models.Locale) (*models.CategoryTranslation, error) {
	if _, err := ParseLocale(string(locale)); err != nil {
		return nil, err
	}
	if categoryID == uuid.Nil {
		return nil, fmt.Errorf("%w: category ID is required", ErrInvalid)
	}
	t, err := s.store.Find(ctx, categoryID, locale)
	if err != nil || t != nil || locale == FallbackLocale {
		return t, err
	}
	return s.store.Find(ctx, categoryID, FallbackLocale)
}

// MissingLocales returns the supported locales categoryID has no
// translation for. The default locale is the category itself and is never
// reported.
func (s *Service) MissingLocales(ctx context.Context, categoryID uuid.UUID) ([]models.Locale, error) {
	existing, err := s.store.ListForCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	have := make(map[models.Locale]bool, len(existing))
	for _, t := range existing {
		have[t.Locale] = true
	}
	var missing []models.Locale
	for _, l := range SupportedLocales {
		if l != DefaultLocale && !have[l] {
			missing = append(missing, l)
		}
	}
	return missing, nil
}

// List returns every stored translation of categoryID.
func (s *Service) List(ctx context.Context, categoryID uuid.UUID) ([]models.CategoryTranslation, error) {
	return s.store.ListForCategory(ctx, categoryID)
}

// Localize overlays the translation for locale onto c. The default locale
// and categories without a translation are returned unchanged.
func (s *Service) Localize(ctx context.Context, c models.Category, locale models.Locale) (models.Category, error) {
	if locale == DefaultLocale {
		return c, nil
	}
	t, err := s.CategoryTranslation(ctx, c.ID, locale)
	if err != nil || t == nil {
		return c, err
	}
	c.Name = t.Name
	if t.Description != "" {
		c.Description = t.Description
	}
	return c, nil
}
