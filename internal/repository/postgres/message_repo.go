package postgres

import (
	"context"
	"database/sql"

	"github.com/gobazaar/marketcore/internal/domain"
)

type MessageRepository struct {
	DB *sql.DB
}

func (r *MessageRepository) Insert(
	ctx context.Context,
	tx *sql.Tx,
	msg *domain.Message,
) error {
	var productID interface{}
	if msg.ProductID != nil {
		productID = *msg.ProductID
	}

	// seq comes from the sequence at commit time; it is the global total
	// order every read path sorts by.
	q := getter(r.DB, tx)
	return q.QueryRowContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, product_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		productID,
		msg.Text,
		msg.CreatedAt,
	).Scan(&msg.Seq)
}

func (r *MessageRepository) ListPair(
	ctx context.Context,
	a, b string,
) ([]*domain.Message, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, product_id, text, seq, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY seq ASC
	`, a, b)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *MessageRepository) ListLatestPerCounterpart(
	ctx context.Context,
	userID string,
) ([]*domain.Message, error) {

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, product_id, text, seq, created_at
		FROM (
			SELECT DISTINCT ON (counterpart) *
			FROM (
				SELECT m.*,
				       CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS counterpart
				FROM messages m
				WHERE m.sender_id = $1 OR m.receiver_id = $1
			) pair
			ORDER BY counterpart, seq DESC
		) latest
		ORDER BY seq DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		var msg domain.Message
		var productID sql.NullString
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&productID,
			&msg.Text,
			&msg.Seq,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		if productID.Valid {
			msg.ProductID = &productID.String
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
