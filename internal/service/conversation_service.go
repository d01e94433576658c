package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/gobazaar/marketcore/internal/directory"
	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/events"
	"github.com/gobazaar/marketcore/internal/observability"
	"github.com/gobazaar/marketcore/internal/repository"
	"github.com/gobazaar/marketcore/internal/tx"
)

// ConversationService stores directed messages and derives conversation
// views from them. Reads are plain committed queries: a message visible at
// one poll is visible at every later poll, and the sender sees their own
// write on the next read.
type ConversationService struct {
	repo   repository.MessageRepository
	outbox repository.Outbox
	dir    directory.Directory
	tx     tx.Transactor
	log    *zap.Logger
}

func NewConversationService(
	repo repository.MessageRepository,
	outbox repository.Outbox,
	dir directory.Directory,
	transactor tx.Transactor,
	log *zap.Logger,
) *ConversationService {
	return &ConversationService{repo: repo, outbox: outbox, dir: dir, tx: transactor, log: log}
}

// Send stores a message from senderID to receiverID, optionally linked to a
// product. The stored message carries its storage-assigned sequence number.
func (s *ConversationService) Send(
	ctx context.Context,
	senderID, receiverID string,
	productID *string,
	text string,
) (*domain.Message, error) {

	// ULIDs sort lexically by creation time, which keeps message ids
	// aligned with the sequence order.
	msg, err := domain.NewMessage(ulid.Make().String(), senderID, receiverID, productID, text, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if _, err := s.dir.GetUser(ctx, receiverID); err != nil {
		return nil, err
	}
	if productID != nil {
		if _, err := s.dir.GetProduct(ctx, *productID); err != nil {
			return nil, err
		}
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, dbtx *sql.Tx) error {
		if err := s.repo.Insert(ctx, dbtx, msg); err != nil {
			return fmt.Errorf("message insert failed: %w", err)
		}

		payload, err := json.Marshal(events.MessageSent{
			MessageID:  msg.ID,
			SenderID:   msg.SenderID,
			ReceiverID: msg.ReceiverID,
			At:         msg.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("event marshal failed: %w", err)
		}
		if err := s.outbox.InsertTx(ctx, dbtx, events.TopicMessages, msg.ID, payload); err != nil {
			return fmt.Errorf("outbox insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.MessagesSentTotal.Inc()
	s.log.Info("message sent",
		zap.String("message_id", msg.ID),
		zap.String("sender_id", senderID),
		zap.String("receiver_id", receiverID),
	)
	return msg, nil
}

// GetConversation returns every message between viewerID and counterpartID
// in sequence order. The pair is unordered: either participant gets the
// identical view, and the query shape means no other user's messages can
// leak in.
func (s *ConversationService) GetConversation(
	ctx context.Context,
	viewerID, counterpartID string,
) ([]*domain.Message, error) {
	if viewerID == counterpartID || counterpartID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.repo.ListPair(ctx, viewerID, counterpartID)
}

// ListConversations returns one summary per distinct counterpart of
// viewerID, newest conversation first. Counterpart identity is enriched
// from the directory best-effort: a missing user still shows up under its
// id so the conversation is not hidden.
func (s *ConversationService) ListConversations(
	ctx context.Context,
	viewerID string,
) ([]*domain.ConversationSummary, error) {

	latest, err := s.repo.ListLatestPerCounterpart(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.ConversationSummary, 0, len(latest))
	for _, msg := range latest {
		summary := &domain.ConversationSummary{
			CounterpartID: msg.Counterpart(viewerID),
			LastMessage:   msg,
		}
		if user, err := s.dir.GetUser(ctx, summary.CounterpartID); err == nil {
			summary.Username = user.Username
			summary.AvatarURL = user.AvatarURL
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
