package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id         UUID PRIMARY KEY,
		product_id TEXT NOT NULL,
		buyer_id   TEXT NOT NULL,
		seller_id  TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	// One open negotiation per buyer+product. Terminal orders fall out of
	// the index, so the buyer can order the same product again later.
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_open_per_buyer_product
		ON orders (buyer_id, product_id)
		WHERE status IN ('pending', 'accepted')`,

	`CREATE INDEX IF NOT EXISTS orders_by_buyer
		ON orders (buyer_id, created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS orders_by_seller
		ON orders (seller_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS order_status_history (
		order_id   UUID NOT NULL REFERENCES orders(id),
		status     TEXT NOT NULL,
		actor_id   TEXT NOT NULL,
		changed_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS order_status_history_by_order
		ON order_status_history (order_id, changed_at)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id          CHAR(26) PRIMARY KEY,
		seq         BIGSERIAL,
		sender_id   TEXT NOT NULL,
		receiver_id TEXT NOT NULL,
		product_id  TEXT,
		text        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS messages_by_sender ON messages (sender_id, seq)`,
	`CREATE INDEX IF NOT EXISTS messages_by_receiver ON messages (receiver_id, seq)`,

	`CREATE TABLE IF NOT EXISTS outbox (
		id           UUID PRIMARY KEY,
		topic        TEXT NOT NULL,
		key          TEXT NOT NULL,
		payload      BYTEA NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		published_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS outbox_unpublished
		ON outbox (created_at) WHERE published_at IS NULL`,
}

// Migrate applies the schema. Statements are idempotent, so running it on
// every startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, q := range migrations {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
