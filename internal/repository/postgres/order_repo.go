package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/gobazaar/marketcore/internal/domain"
)

const uniqueViolation = "23505"

type OrderRepository struct {
	DB *sql.DB
}

func (r *OrderRepository) Insert(
	ctx context.Context,
	tx *sql.Tx,
	order *domain.Order,
) error {
	q := getter(r.DB, tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, product_id, buyer_id, seller_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		order.ID,
		order.ProductID,
		order.BuyerID,
		order.SellerID,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		// The partial unique index on open (pending/accepted) orders is the
		// race-proof enforcement of one open order per buyer+product.
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateOrder
		}
		return err
	}

	for _, ch := range order.History {
		if err := r.InsertStatusChange(ctx, tx, order.ID, ch); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) GetForUpdate(
	ctx context.Context,
	tx *sql.Tx,
	orderID string,
) (*domain.Order, error) {

	q := getter(r.DB, tx)
	row := q.QueryRowContext(ctx, `
		SELECT id, product_id, buyer_id, seller_id, status, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	history, err := r.loadHistory(ctx, q, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.History = history[order.ID]
	return order, nil
}

func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	tx *sql.Tx,
	order *domain.Order,
) error {
	q := getter(r.DB, tx)
	_, err := q.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, updated_at = $3
		WHERE id = $1
	`, order.ID, order.Status, order.UpdatedAt)
	return err
}

func (r *OrderRepository) InsertStatusChange(
	ctx context.Context,
	tx *sql.Tx,
	orderID string,
	ch domain.StatusChange,
) error {
	q := getter(r.DB, tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, status, actor_id, changed_at)
		VALUES ($1, $2, $3, $4)
	`, orderID, ch.Status, ch.ActorID, ch.At)
	return err
}

func (r *OrderRepository) HasOpenOrder(
	ctx context.Context,
	tx *sql.Tx,
	buyerID, productID string,
) (bool, error) {

	var exists bool
	q := getter(r.DB, tx)
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE buyer_id = $1
			  AND product_id = $2
			  AND status IN ('pending', 'accepted')
		)
	`, buyerID, productID).Scan(&exists)
	return exists, err
}

func (r *OrderRepository) ListByBuyer(
	ctx context.Context,
	buyerID string,
) ([]*domain.Order, error) {
	return r.list(ctx, `
		SELECT id, product_id, buyer_id, seller_id, status, created_at, updated_at
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC
	`, buyerID)
}

func (r *OrderRepository) ListBySeller(
	ctx context.Context,
	sellerID string,
) ([]*domain.Order, error) {
	return r.list(ctx, `
		SELECT id, product_id, buyer_id, seller_id, status, created_at, updated_at
		FROM orders
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
}

func (r *OrderRepository) list(ctx context.Context, query, param string) ([]*domain.Order, error) {
	rows, err := r.DB.QueryContext(ctx, query, param)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	history, err := r.loadHistory(ctx, r.DB, ids)
	if err != nil {
		return nil, err
	}
	for _, order := range orders {
		order.History = history[order.ID]
	}
	return orders, nil
}

func (r *OrderRepository) loadHistory(
	ctx context.Context,
	q queryable,
	orderIDs []string,
) (map[string][]domain.StatusChange, error) {

	rows, err := q.QueryContext(ctx, `
		SELECT order_id, status, actor_id, changed_at
		FROM order_status_history
		WHERE order_id = ANY($1)
		ORDER BY changed_at ASC
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make(map[string][]domain.StatusChange)
	for rows.Next() {
		var orderID string
		var ch domain.StatusChange
		if err := rows.Scan(&orderID, &ch.Status, &ch.ActorID, &ch.At); err != nil {
			return nil, err
		}
		history[orderID] = append(history[orderID], ch)
	}
	return history, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.ProductID,
		&order.BuyerID,
		&order.SellerID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}
