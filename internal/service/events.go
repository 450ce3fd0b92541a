package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
)

const (
	TopicUserEvents    = "user_events"
	TopicProductEvents = "product_events"
	TopicCartEvents    = "cart_events"

	publishTimeout = 5 * time.Second
)

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// ProductIndex mirrors products into a search backend.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

type failureObserver interface {
	ObserveEventFailure(topic string)
}

// publish is best effort: a failure is logged and counted, never returned.
func publish(ctx context.Context, p EventPublisher, obs failureObserver, topic, key, typ string, data map[string]any) {
	if p == nil {
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(pctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish", "status", "fail", "topic", topic, "type", typ, "error", err)
		if obs != nil {
			obs.ObserveEventFailure(topic)
		}
	}
}
