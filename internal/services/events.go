package services

import (
	"time"

	"productapi/internal/models"
)

// Event types emitted after a successful write.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEvent describes a change to a single product.
type ProductEvent struct {
	Type       string         `json:"type"`
	Product    models.Product `json:"product"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers product events to interested consumers.
// *rabbitmq.Client satisfies it.
type Publisher interface {
	Publish(event interface{}) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(interface{}) error { return nil }
