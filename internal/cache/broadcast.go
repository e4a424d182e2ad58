// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"omexcatalog/internal/models"
)

// DefaultChannel is the pub/sub channel carrying category invalidations.
const DefaultChannel = "omex:category:invalidate"

// Broadcaster publishes category invalidation events to the other
// instances and delivers theirs to this one. Each process-local Manager
// otherwise only learns about remote writes when its TTL runs out.
type Broadcaster struct {
	client     *redis.Client
	channel    string
	instanceID string
}

// NewBroadcaster creates a broadcaster on channel with a fresh instance ID.
func NewBroadcaster(client *redis.Client, channel string) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		client:     client,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this process in published events.
func (b *Broadcaster) InstanceID() string {
	return b.instanceID
}

// Publish sends ev to every subscribed instance.
func (b *Broadcaster) Publish(ctx context.Context, ev models.CategoryEvent) error {
	ev.Origin = b.instanceID
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal category event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish category event: %w", err)
	}
	return nil
}

// CategoriesChanged forwards locally raised events. Events that arrived
// from another instance are not re-published.
func (b *Broadcaster) CategoriesChanged(ctx context.Context, ev models.CategoryEvent) {
	if ev.Origin != "" {
		return
	}
	if err := b.Publish(ctx, ev); err != nil {
		slog.Warn("category invalidation broadcast failed", "action", ev.Action, "error", err)
	}
}

// Listen subscribes to the channel and calls handle for every event sent
// by another instance. It blocks until ctx is cancelled.
func (b *Broadcaster) Listen(ctx context.Context, handle func(context.Context, models.CategoryEvent)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	slog.Info("listening for category invalidations", "channel", b.channel, "instance", b.instanceID)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			ev, err := decodeEvent(msg.Payload)
			if err != nil {
				slog.Warn("ignoring malformed category event", "error", err)
				continue
			}
			if ev.Origin == b.instanceID {
				continue
			}
			handle(ctx, ev)
		}
	}
}

// decodeEvent parses a published payload.
func decodeEvent(payload string) (models.CategoryEvent, error) {
	var ev models.CategoryEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decode category event: %w", err)
	}
	if ev.Origin == "" {
		return ev, fmt.Errorf("decode category event: missing origin")
	}
	return ev, nil
}
