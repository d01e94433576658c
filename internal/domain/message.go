package domain

import (
	"strings"
	"time"
)

const MaxMessageSize = 2000

// Message Invariants:
// 1. Immutability: messages are never edited or deleted.
// 2. Ordering: Seq is assigned by storage at commit and gives a global
//    total order, stable across polls.
// 3. Visibility: only sender and receiver may read a message.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	ProductID  *string
	Seq        int64
	Text       string
	CreatedAt  time.Time
}

func NewMessage(id, senderID, receiverID string, productID *string, text string, now time.Time) (*Message, error) {
	if id == "" || senderID == "" || receiverID == "" {
		return nil, ErrInvalidInput
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > MaxMessageSize {
		return nil, ErrMessageTooLong
	}

	return &Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		ProductID:  productID,
		Text:       text,
		CreatedAt:  now,
	}, nil
}

// Counterpart returns the other participant from viewerID's perspective.
func (m *Message) Counterpart(viewerID string) string {
	if m.SenderID == viewerID {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationSummary is one sidebar entry for a viewer: the counterpart
// and the most recent message exchanged with them. Derived at read time,
// never stored.
type ConversationSummary struct {
	CounterpartID string
	Username      string
	AvatarURL     string
	LastMessage   *Message
}
