package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/gobazaar/marketcore/internal/directory"
	"github.com/gobazaar/marketcore/internal/domain"
)

// fakeTx serializes units of work the way the row lock does in Postgres:
// each WithTx runs alone, so read-validate-write is atomic.
type fakeTx struct{ mu sync.Mutex }

func (t *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, nil)
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.History = append([]domain.StatusChange(nil), o.History...)
	return &cp
}

func (r *fakeOrderRepo) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Mirrors the partial unique index on open orders.
	for _, existing := range r.orders {
		if existing.BuyerID == order.BuyerID &&
			existing.ProductID == order.ProductID &&
			!existing.Status.Terminal() {
			return domain.ErrDuplicateOrder
		}
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyOrder(order), nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = order.Status
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *fakeOrderRepo) InsertStatusChange(ctx context.Context, tx *sql.Tx, orderID string, ch domain.StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.History = append(stored.History, ch)
	return nil
}

func (r *fakeOrderRepo) HasOpenOrder(ctx context.Context, tx *sql.Tx, buyerID, productID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.BuyerID == buyerID && order.ProductID == productID && !order.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool { return o.BuyerID == buyerID })
}

func (r *fakeOrderRepo) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return r.list(func(o *domain.Order) bool { return o.SellerID == sellerID })
}

func (r *fakeOrderRepo) list(match func(*domain.Order) bool) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, order := range r.orders {
		if match(order) {
			out = append(out, copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*domain.Message
	nextSeq  int64
}

func (r *fakeMessageRepo) Insert(ctx context.Context, tx *sql.Tx, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	msg.Seq = r.nextSeq
	cp := *msg
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) ListPair(ctx context.Context, a, b string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, msg := range r.messages {
		if (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a) {
			cp := *msg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *fakeMessageRepo) ListLatestPerCounterpart(ctx context.Context, userID string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := make(map[string]*domain.Message)
	for _, msg := range r.messages {
		if msg.SenderID != userID && msg.ReceiverID != userID {
			continue
		}
		cp := msg.Counterpart(userID)
		if prev, ok := latest[cp]; !ok || msg.Seq > prev.Seq {
			latest[cp] = msg
		}
	}
	var out []*domain.Message
	for _, msg := range latest {
		cp := *msg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	return out, nil
}

type recordedEvent struct {
	Topic   string
	Key     string
	Payload []byte
}

type fakeOutbox struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (o *fakeOutbox) InsertTx(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, recordedEvent{Topic: topic, Key: key, Payload: payload})
	return nil
}

func (o *fakeOutbox) recorded() []recordedEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]recordedEvent(nil), o.events...)
}

type fakeDirectory struct {
	products map[string]*directory.Product
	users    map[string]*directory.User
}

func (d *fakeDirectory) GetProduct(ctx context.Context, id string) (*directory.Product, error) {
	p, ok := d.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (d *fakeDirectory) GetUser(ctx context.Context, id string) (*directory.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}
