package domain

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderRejected  OrderStatus = "rejected"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderAccepted, OrderRejected, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderRejected, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type StatusChange struct {
	Status  OrderStatus
	ActorID string
	At      time.Time
}

// Order Invariants:
// 1. BuyerID != SellerID. SellerID is denormalized from the product at
//    creation time and frozen, so history survives product edits/removal.
// 2. Status only moves along the transition table (see Apply). Orders are
//    never deleted; they reach a terminal status.
// 3. Every successful transition appends a StatusChange to History.
type Order struct {
	ID        string
	ProductID string
	BuyerID   string
	SellerID  string
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
	History   []StatusChange
}

func NewOrder(id, productID, buyerID, sellerID string, now time.Time) (*Order, error) {
	if id == "" || productID == "" || buyerID == "" || sellerID == "" {
		return nil, ErrInvalidInput
	}
	if buyerID == sellerID {
		return nil, ErrSelfOrder
	}

	return &Order{
		ID:        id,
		ProductID: productID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
		History: []StatusChange{
			{Status: OrderPending, ActorID: buyerID, At: now},
		},
	}, nil
}

// Apply moves the order to target on behalf of actorID.
//
// Transition table:
//
//	pending  -> accepted   (seller)
//	pending  -> rejected   (seller)
//	accepted -> completed  (seller)
//
// The actor gate is checked before the source state, so a wrong actor gets
// ErrAuthorization even when the state would also mismatch. A source-state
// mismatch (stale client, double click, lost race) gets ErrInvalidTransition.
func (o *Order) Apply(actorID string, target OrderStatus, now time.Time) error {
	if actorID != o.BuyerID && actorID != o.SellerID {
		return ErrAuthorization
	}
	if !target.Valid() {
		return ErrInvalidInput
	}

	var from OrderStatus
	switch target {
	case OrderAccepted, OrderRejected:
		if actorID != o.SellerID {
			return ErrAuthorization
		}
		from = OrderPending
	case OrderCompleted:
		if actorID != o.SellerID {
			return ErrAuthorization
		}
		from = OrderAccepted
	default:
		// pending is never re-entered; cancelled exists in the status set
		// but no transition into it is defined yet.
		return ErrInvalidTransition
	}

	if o.Status != from {
		return ErrInvalidTransition
	}

	o.Status = target
	o.UpdatedAt = now
	o.History = append(o.History, StatusChange{Status: target, ActorID: actorID, At: now})
	return nil
}
