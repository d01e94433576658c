package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gobazaar/marketcore/internal/directory"
	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/events"
	"github.com/gobazaar/marketcore/internal/observability"
	"github.com/gobazaar/marketcore/internal/repository"
	"github.com/gobazaar/marketcore/internal/tx"
)

// OrderService drives orders through the status machine. All mutations run
// inside a single transaction: read-current-status, validate, write-new-status
// is atomic per order, with the row locked for the duration.
type OrderService struct {
	repo   repository.OrderRepository
	outbox repository.Outbox
	dir    directory.Directory
	tx     tx.Transactor
	log    *zap.Logger
}

func NewOrderService(
	repo repository.OrderRepository,
	outbox repository.Outbox,
	dir directory.Directory,
	transactor tx.Transactor,
	log *zap.Logger,
) *OrderService {
	return &OrderService{repo: repo, outbox: outbox, dir: dir, tx: transactor, log: log}
}

// Create places a new pending order for buyerID on productID.
func (s *OrderService) Create(ctx context.Context, buyerID, productID string) (*domain.Order, error) {
	product, err := s.dir.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != directory.ProductActive {
		return nil, domain.ErrProductUnavailable
	}
	if product.SellerID == buyerID {
		return nil, domain.ErrSelfOrder
	}

	order, err := domain.NewOrder(uuid.NewString(), productID, buyerID, product.SellerID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, dbtx *sql.Tx) error {
		// Friendly pre-check; the partial unique index catches the race
		// where two creates for the same pair run concurrently.
		open, err := s.repo.HasOpenOrder(ctx, dbtx, buyerID, productID)
		if err != nil {
			return fmt.Errorf("open order check failed: %w", err)
		}
		if open {
			return domain.ErrDuplicateOrder
		}

		if err := s.repo.Insert(ctx, dbtx, order); err != nil {
			return err
		}

		return s.emitTransition(ctx, dbtx, order, "", domain.OrderPending, buyerID, order.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	observability.OrderTransitionsTotal.WithLabelValues(string(domain.OrderPending)).Inc()
	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", buyerID),
		zap.String("product_id", productID),
	)
	return order, nil
}

// Transition moves orderID to target on behalf of actorID, enforcing the
// transition table. Concurrent transitions on the same order serialize on the
// row lock; the loser observes the updated status and fails with
// ErrInvalidTransition instead of being silently applied twice.
func (s *OrderService) Transition(
	ctx context.Context,
	orderID, actorID string,
	target domain.OrderStatus,
) (*domain.Order, error) {

	var order *domain.Order

	err := s.tx.WithTx(ctx, func(ctx context.Context, dbtx *sql.Tx) error {
		current, err := s.repo.GetForUpdate(ctx, dbtx, orderID)
		if err != nil {
			return err
		}

		from := current.Status
		now := time.Now().UTC()
		if err := current.Apply(actorID, target, now); err != nil {
			return err
		}

		if err := s.repo.UpdateStatus(ctx, dbtx, current); err != nil {
			return fmt.Errorf("status update failed: %w", err)
		}
		if err := s.repo.InsertStatusChange(ctx, dbtx, current.ID, current.History[len(current.History)-1]); err != nil {
			return fmt.Errorf("history append failed: %w", err)
		}
		if err := s.emitTransition(ctx, dbtx, current, from, target, actorID, now); err != nil {
			return err
		}

		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.OrderTransitionsTotal.WithLabelValues(string(order.Status)).Inc()
	s.log.Info("order transitioned",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actorID),
	)
	return order, nil
}

// ListForBuyer returns the buyer's orders, newest first.
func (s *OrderService) ListForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// ListForSeller returns orders on the seller's products, newest first, so
// pending items surface naturally when the caller partitions by status.
func (s *OrderService) ListForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *OrderService) emitTransition(
	ctx context.Context,
	dbtx *sql.Tx,
	order *domain.Order,
	from, to domain.OrderStatus,
	actorID string,
	at time.Time,
) error {
	payload, err := json.Marshal(events.OrderTransitioned{
		OrderID: order.ID,
		From:    from,
		To:      to,
		ActorID: actorID,
		At:      at,
	})
	if err != nil {
		return fmt.Errorf("event marshal failed: %w", err)
	}
	if err := s.outbox.InsertTx(ctx, dbtx, events.TopicOrders, order.ID, payload); err != nil {
		return fmt.Errorf("outbox insert failed: %w", err)
	}
	return nil
}
