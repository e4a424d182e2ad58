// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is a node of the product category forest. The hierarchy is
// stored flat: ParentID is a relation only, never an owning pointer.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	NameEN      string     `json:"name_en,omitempty"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	Priority    int        `json:"priority"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Virtual fields populated by tree building.
	Children []Category `json:"children,omitempty"`
	Depth    int        `json:"depth,omitempty"`
}

// IsRoot reports whether the category sits at the top of the forest.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// Metadata is the open key/value map attached to a category. It is stored
// as a JSONB column.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		*m = nil
		return nil
	}
	out := Metadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	if len(out) == 0 {
		out = nil
	}
	*m = out
	return nil
}

// CreateCategoryInput carries the fields accepted when creating a category.
// Name and Slug are required; everything else is optional.
type CreateCategoryInput struct {
	Name        string     `json:"name" validate:"max=200"`
	NameEN      string     `json:"name_en" validate:"max=200"`
	Slug        string     `json:"slug" validate:"max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Icon        string     `json:"icon" validate:"max=64"`
	Priority    int        `json:"priority"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Metadata    Metadata   `json:"metadata"`
}

// UpdateCategoryInput is a partial update. A nil pointer leaves the field
// unchanged; ParentID distinguishes "absent" from an explicit null.
type UpdateCategoryInput struct {
	Name        *string        `json:"name" validate:"omitempty,max=200"`
	NameEN      *string        `json:"name_en" validate:"omitempty,max=200"`
	Slug        *string        `json:"slug" validate:"omitempty,max=200"`
	Description *string        `json:"description" validate:"omitempty,max=5000"`
	Icon        *string        `json:"icon" validate:"omitempty,max=64"`
	Priority    *int           `json:"priority"`
	ParentID    OptionalParent `json:"parent_id"`
	Metadata    *Metadata      `json:"metadata"`
}

// OptionalParent is a tri-state parent reference: not set, set to null
// (move to root), or set to a category ID.
type OptionalParent struct {
	Set bool
	ID  *uuid.UUID
}

// ParentOf returns an OptionalParent pointing at id.
func ParentOf(id uuid.UUID) OptionalParent {
	return OptionalParent{Set: true, ID: &id}
}

// RootParent returns an OptionalParent that clears the parent.
func RootParent() OptionalParent {
	return OptionalParent{Set: true}
}

// UnmarshalJSON records that the field was present, even when null.
func (p *OptionalParent) UnmarshalJSON(data []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("parent_id: %w", err)
	}
	p.ID = &id
	return nil
}

// MarshalJSON writes the ID or null.
func (p OptionalParent) MarshalJSON() ([]byte, error) {
	if p.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.ID)
}

// CategoryFilters narrows a Find query. Zero values mean "no filter".
type CategoryFilters struct {
	ParentID OptionalParent
	Slug     string
	Query    string
}

// Pagination bounds a Find query. A zero Limit means no limit.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
