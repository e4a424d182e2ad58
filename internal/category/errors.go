// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package category

import "errors"

// Error kinds returned by the service. They are always wrapped with
// context; match them with errors.Is.
var (
	// ErrValidation reports a missing or empty required argument.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidSlugFormat reports a slug that is not kebab-case.
	ErrInvalidSlugFormat = errors.New("slug must be kebab-case")
	// ErrSlugConflict reports a slug already used by another category.
	ErrSlugConflict = errors.New("slug already exists")
	// ErrNotFound reports a category (or parent) that does not exist.
	ErrNotFound = errors.New("category not found")
	// ErrCircularReference reports a parent assignment that would make a
	// category its own ancestor.
	ErrCircularReference = errors.New("circular category reference")
)
