package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/middleware"
)

type ConversationService interface {
	Send(ctx context.Context, senderID, receiverID string, productID *string, text string) (*domain.Message, error)
	GetConversation(ctx context.Context, viewerID, counterpartID string) ([]*domain.Message, error)
	ListConversations(ctx context.Context, viewerID string) ([]*domain.ConversationSummary, error)
}

// MessageHandler exposes messaging and conversation reads over HTTP. The
// conversation endpoints are polled by the UI (every few seconds), so each
// call is a single cheap read.
type MessageHandler struct {
	S ConversationService
}

func NewMessageHandler(s ConversationService) *MessageHandler {
	return &MessageHandler{S: s}
}

type messageView struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	ProductID  *string   `json:"product_id,omitempty"`
	Seq        int64     `json:"seq"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

type summaryView struct {
	CounterpartID string      `json:"counterpart_id"`
	Username      string      `json:"username"`
	AvatarURL     string      `json:"avatar_url"`
	LastMessage   messageView `json:"last_message"`
}

// Send handles POST /api/messages.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)

	var req struct {
		ReceiverID string  `json:"receiver_id"`
		Text       string  `json:"text"`
		ProductID  *string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	msg, err := h.S.Send(r.Context(), uid, req.ReceiverID, req.ProductID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageView(msg))
}

// GetConversation handles GET /api/conversations/{counterpartID}.
func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)
	counterpartID := chi.URLParam(r, "counterpartID")

	messages, err := h.S.GetConversation(r.Context(), uid, counterpartID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]messageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, toMessageView(msg))
	}
	writeJSON(w, http.StatusOK, views)
}

// ListConversations handles GET /api/conversations.
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	uid := middleware.Actor(r)

	summaries, err := h.S.ListConversations(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, summaryView{
			CounterpartID: s.CounterpartID,
			Username:      s.Username,
			AvatarURL:     s.AvatarURL,
			LastMessage:   toMessageView(s.LastMessage),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func toMessageView(msg *domain.Message) messageView {
	return messageView{
		ID:         msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		ProductID:  msg.ProductID,
		Seq:        msg.Seq,
		Text:       msg.Text,
		CreatedAt:  msg.CreatedAt,
	}
}
