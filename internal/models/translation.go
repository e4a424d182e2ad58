// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Locale is a storefront language code.
type Locale string

// Supported storefront locales.
const (
	LocalePL Locale = "pl"
	LocaleEN Locale = "en"
	LocaleDE Locale = "de"
)

// CategoryTranslation holds the localized name and description of a category.
type CategoryTranslation struct {
	ID          uuid.UUID `json:"id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Locale      Locale    `json:"locale"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TranslationInput is the per-locale payload accepted on category creation.
type TranslationInput struct {
	Name        string `json:"name" validate:"max=200"`
	Description string `json:"description" validate:"max=5000"`
}
