// Package events publishes order domain events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	OrderPlaced        EventType = "order.placed"
	OrderCancelled     EventType = "order.cancelled"
	OrderStatusChanged EventType = "order.status_changed"
)

type OrderEvent struct {
	EventID   uuid.UUID       `json:"event_id"`
	Type      EventType       `json:"type"`
	OrderID   uuid.UUID       `json:"order_id"`
	UserID    uuid.UUID       `json:"user_id"`
	FarmerIDs []uuid.UUID     `json:"farmer_ids"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
