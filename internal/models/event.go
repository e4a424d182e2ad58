// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// CacheAction names why category caches were invalidated.
type CacheAction string

// Cache invalidation reasons.
const (
	CacheActionCreate     CacheAction = "create"
	CacheActionUpdate     CacheAction = "update"
	CacheActionDelete     CacheAction = "delete"
	CacheActionInvalidate CacheAction = "invalidate"
	CacheActionRebuild    CacheAction = "rebuild"
)

// CategoryEvent describes a change that makes cached category views stale.
// CategoryID is uuid.Nil for whole-cache events. Origin is the instance that
// produced the event; it is empty for events raised locally.
type CategoryEvent struct {
	CategoryID uuid.UUID   `json:"category_id"`
	Action     CacheAction `json:"action"`
	Origin     string      `json:"origin,omitempty"`
}
