package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	KindTransactionCompleted = "transaction_completed"
	KindStreakActivated      = "streak_activated"
)

// Publisher delivers domain events to downstream consumers.
//
//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks -source=events.go Publisher
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

// Event is the envelope written to the bus.
type Event struct {
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type TransactionCompleted struct {
	TransactionID    string          `json:"transaction_id"`
	TrackerID        string          `json:"tracker_id"`
	UserID           uint            `json:"user_id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
}

type StreakActivated struct {
	TrackerID  string `json:"tracker_id"`
	UserID     uint   `json:"user_id"`
	Date       string `json:"date"`
	StreakDays int    `json:"streak_days"`
}

// Noop drops every event. Used when the bus is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }
func (Noop) Close() error                                 { return nil }

var _ Publisher = Noop{}
