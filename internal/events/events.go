// Package events defines the payloads published to the notification sink.
// Delivery is fire-and-forget through the transactional outbox; consumers
// must tolerate at-least-once.
package events

import (
	"time"

	"github.com/gobazaar/marketcore/internal/domain"
)

const (
	TopicOrders   = "orders.events"
	TopicMessages = "messages.events"
)

type OrderTransitioned struct {
	OrderID string             `json:"order_id"`
	From    domain.OrderStatus `json:"from"`
	To      domain.OrderStatus `json:"to"`
	ActorID string             `json:"actor_id"`
	At      time.Time          `json:"at"`
}

type MessageSent struct {
	MessageID  string    `json:"message_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	At         time.Time `json:"at"`
}
