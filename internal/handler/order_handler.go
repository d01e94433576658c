package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gobazaar/marketcore/internal/directory"
	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/middleware"
)

type OrderService interface {
	Create(ctx context.Context, buyerID, productID string) (*domain.Order, error)
	Transition(ctx context.Context, orderID, actorID string, target domain.OrderStatus) (*domain.Order, error)
	ListForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
}

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	S   OrderService
	Dir directory.Directory
}

func NewOrderHandler(s OrderService, dir directory.Directory) *OrderHandler {
	return &OrderHandler{S: s, Dir: dir}
}

type statusChangeView struct {
	Status  domain.OrderStatus `json:"status"`
	ActorID string             `json:"actor_id"`
	At      time.Time          `json:"at"`
}

type productSnapshot struct {
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

type orderView struct {
	ID        string             `json:"id"`
	ProductID string             `json:"product_id"`
	BuyerID   string             `json:"buyer_id"`
	SellerID  string             `json:"seller_id"`
	Status    domain.OrderStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	History   []statusChangeView `json:"history"`
	Product   *productSnapshot   `json:"product,omitempty"`
}

// Create handles POST /api/orders. The authenticated principal is the buyer.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)

	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.S.Create(r.Context(), uid, req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.view(r.Context(), order))
}

// UpdateStatus handles PATCH /api/orders/{id}. The authenticated principal
// is the actor; the service decides whether they may perform the move.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)
	orderID := chi.URLParam(r, "id")

	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Status.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.S.Transition(r.Context(), orderID, uid, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.view(r.Context(), order))
}

// List handles GET /api/orders?role=buyer|seller.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)

	var (
		orders []*domain.Order
		err    error
	)
	switch r.URL.Query().Get("role") {
	case "seller":
		orders, err = h.S.ListForSeller(r.Context(), uid)
	case "buyer", "":
		orders, err = h.S.ListForBuyer(r.Context(), uid)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role must be buyer or seller"})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, h.view(r.Context(), order))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *OrderHandler) view(ctx context.Context, order *domain.Order) orderView {
	v := orderView{
		ID:        order.ID,
		ProductID: order.ProductID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
		History:   make([]statusChangeView, 0, len(order.History)),
	}
	for _, ch := range order.History {
		v.History = append(v.History, statusChangeView{Status: ch.Status, ActorID: ch.ActorID, At: ch.At})
	}

	// Snapshot is best-effort: a deleted product leaves the embed empty and
	// the order intact.
	if product, err := h.Dir.GetProduct(ctx, order.ProductID); err == nil {
		v.Product = &productSnapshot{
			Title:  product.Title,
			Price:  product.Price,
			Status: string(product.Status),
		}
	}
	return v
}
