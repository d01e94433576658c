package repository

import (
	"context"
	"database/sql"

	"github.com/gobazaar/marketcore/internal/domain"
)

type OrderRepository interface {
	// Insert persists a new order with its initial history row. A second
	// open order for the same buyer+product fails with ErrDuplicateOrder.
	Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error

	// GetForUpdate loads an order and locks its row so the caller's
	// read-validate-write runs race-free within the transaction.
	GetForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*domain.Order, error)

	UpdateStatus(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	InsertStatusChange(ctx context.Context, tx *sql.Tx, orderID string, ch domain.StatusChange) error
	HasOpenOrder(ctx context.Context, tx *sql.Tx, buyerID, productID string) (bool, error)

	ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
}

type MessageRepository interface {
	// Insert persists a message and fills in its storage-assigned Seq.
	Insert(ctx context.Context, tx *sql.Tx, msg *domain.Message) error

	// ListPair returns every message between the unordered pair {a, b},
	// ascending by Seq. Symmetric in its arguments.
	ListPair(ctx context.Context, a, b string) ([]*domain.Message, error)

	// ListLatestPerCounterpart returns, for each distinct counterpart of
	// userID, the message with the highest Seq, ordered by Seq descending.
	ListLatestPerCounterpart(ctx context.Context, userID string) ([]*domain.Message, error)
}

// Outbox records events inside the same transaction as the state change
// they describe. A background worker publishes them to Kafka.
type Outbox interface {
	InsertTx(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error
}
