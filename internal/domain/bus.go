package domain

import (
	"context"
)

// EventBus carries alert events out of scoring runs.
// Backed by Go channels locally or NATS when configured.
type EventBus interface {
	// Publish sends a message to a topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe registers a handler for a topic.
	// Returns a subscription that can be used to unsubscribe.
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (Subscription, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// MessageHandler processes incoming messages.
type MessageHandler func(ctx context.Context, msg *Message) error

// Message represents an event message.
type Message struct {
	ID        string `json:"id"`
	Topic     string `json:"topic"`
	Payload   []byte `json:"payload"`
	Timestamp int64  `json:"timestamp"`
}

// Subscription represents an active subscription.
type Subscription interface {
	// Unsubscribe stops receiving messages.
	Unsubscribe() error

	// Topic returns the subscribed topic.
	Topic() string
}

// EventBusConfig holds configuration for event bus initialization.
type EventBusConfig struct {
	// Type is the bus type: "channel" or "nats"
	Type string

	// Channel settings
	ChannelBufferSize int

	// NATS settings
	NATSUrl           string
	NATSToken         string
	NATSMaxReconnects int
	NATSReconnectWait int // seconds
}

// Topics published by the scoring pipeline.
const (
	// TopicListingAlert carries one AlertEvent per high-risk listing.
	TopicListingAlert = "caracara.listing.alert"

	// TopicRunCompleted carries one message per finished scoring run.
	TopicRunCompleted = "caracara.run.completed"
)

// AlertEvent is published for every scored listing whose risk percentage
// reaches the configured alert threshold.
type AlertEvent struct {
	RunID          string  `json:"runId"`
	Row            int     `json:"row"`
	Title          string  `json:"titulo"`
	CartridgeModel string  `json:"modeloCartucho"`
	Classification string  `json:"classificacao"`
	RiskPct        float64 `json:"indicadorDeRiscoPct"`
}
