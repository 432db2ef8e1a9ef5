package catalog

import (
	"encoding/json"
	"time"
)

const (
	EventProductCreated = "ProductCreated"
	EventOrderCreated   = "OrderCreated"
)

const (
	TopicProductCreated = "catalog.product.created"
	TopicOrderCreated   = "catalog.order.created"
)

// PartitionKey keeps every event of one document on the same partition.
func PartitionKey(id string) []byte { return []byte(id) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type ProductCreatedPayload struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Sizes     []Size  `json:"sizes"`
}

type ItemPrice struct {
	ProductID string  `json:"product_id"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Items   []ItemPrice `json:"items"`
	Total   float64     `json:"total"`
}
