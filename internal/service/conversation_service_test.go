package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gobazaar/marketcore/internal/domain"
	"github.com/gobazaar/marketcore/internal/events"
)

func newConversationFixture() (*ConversationService, *fakeOutbox) {
	outbox := &fakeOutbox{}
	svc := NewConversationService(&fakeMessageRepo{}, outbox, newTestDirectory(), &fakeTx{}, zap.NewNop())
	return svc, outbox
}

func TestSendMessage(t *testing.T) {
	svc, outbox := newConversationFixture()
	ctx := context.Background()

	msg, err := svc.Send(ctx, "u1", "u2", nil, "  hola  ")
	require.NoError(t, err)

	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "hola", msg.Text, "text is stored trimmed")
	assert.Equal(t, int64(1), msg.Seq)

	recorded := outbox.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, events.TopicMessages, recorded[0].Topic)
	assert.Equal(t, msg.ID, recorded[0].Key)
}

func TestSendMessageRejections(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()
	badProduct := "nope"

	tests := []struct {
		name      string
		sender    string
		receiver  string
		productID *string
		text      string
		wantErr   error
	}{
		{"empty after trim", "u1", "u2", nil, "   \n\t ", domain.ErrEmptyText},
		{"self message", "u1", "u1", nil, "hi", domain.ErrSelfMessage},
		{"unknown receiver", "u1", "ghost", nil, "hi", domain.ErrNotFound},
		{"unknown product link", "u1", "u2", &badProduct, "hi", domain.ErrNotFound},
		{"too long", "u1", "u2", nil, strings.Repeat("x", domain.MaxMessageSize+1), domain.ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(ctx, tt.sender, tt.receiver, tt.productID, tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversationOrdering(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	// Two messages inside the same second still come back in send order.
	_, err := svc.Send(ctx, "u1", "u2", nil, "a")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u1", "u2", nil, "b")
	require.NoError(t, err)

	conv, err := svc.GetConversation(ctx, "u2", "u1")
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "a", conv[0].Text)
	assert.Equal(t, "b", conv[1].Text)
}

func TestConversationPairSymmetry(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "u2", nil, "hola")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u2", "u1", nil, "buenas")
	require.NoError(t, err)
	// Noise from an unrelated pair must never leak in.
	_, err = svc.Send(ctx, "u1", "u3", nil, "otra cosa")
	require.NoError(t, err)

	ab, err := svc.GetConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	ba, err := svc.GetConversation(ctx, "u2", "u1")
	require.NoError(t, err)

	require.Len(t, ab, 2)
	require.Equal(t, len(ab), len(ba))
	for i := range ab {
		assert.Equal(t, ab[i].ID, ba[i].ID)
		assert.Equal(t, ab[i].Seq, ba[i].Seq)
	}
}

// Read-your-writes: a committed send is visible on the immediately
// following poll, for both participants.
func TestSendThenListConversations(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	sent, err := svc.Send(ctx, "u1", "u2", nil, "hi")
	require.NoError(t, err)

	forSender, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, forSender, 1)
	assert.Equal(t, "u2", forSender[0].CounterpartID)
	assert.Equal(t, "bruno", forSender[0].Username)
	assert.Equal(t, sent.ID, forSender[0].LastMessage.ID)

	forReceiver, err := svc.ListConversations(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, forReceiver, 1)
	assert.Equal(t, "u1", forReceiver[0].CounterpartID)
	assert.Equal(t, sent.ID, forReceiver[0].LastMessage.ID)
}

func TestListConversationsOrderedByRecency(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "u2", nil, "first thread")
	require.NoError(t, err)
	_, err = svc.Send(ctx, "u1", "u3", nil, "second thread")
	require.NoError(t, err)
	// u2 answers, pushing that conversation back on top.
	latest, err := svc.Send(ctx, "u2", "u1", nil, "reply")
	require.NoError(t, err)

	summaries, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "u2", summaries[0].CounterpartID)
	assert.Equal(t, latest.ID, summaries[0].LastMessage.ID)
	assert.Equal(t, "u3", summaries[1].CounterpartID)
}

// A counterpart missing from the directory still shows up under its id;
// the conversation is never hidden.
func TestListConversationsUnknownCounterpart(t *testing.T) {
	outbox := &fakeOutbox{}
	repo := &fakeMessageRepo{}
	dir := newTestDirectory()
	svc := NewConversationService(repo, outbox, dir, &fakeTx{}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Send(ctx, "u1", "u2", nil, "hola")
	require.NoError(t, err)

	delete(dir.users, "u2")

	summaries, err := svc.ListConversations(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "u2", summaries[0].CounterpartID)
	assert.Empty(t, summaries[0].Username)
}

func TestGetConversationInvalidCounterpart(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	_, err := svc.GetConversation(ctx, "u1", "u1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.GetConversation(ctx, "u1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMessageWithProductContext(t *testing.T) {
	svc, _ := newConversationFixture()
	ctx := context.Background()

	productID := "p1"
	msg, err := svc.Send(ctx, "u1", "u2", &productID, "¿sigue disponible?")
	require.NoError(t, err)
	require.NotNil(t, msg.ProductID)
	assert.Equal(t, "p1", *msg.ProductID)

	conv, err := svc.GetConversation(ctx, "u2", "u1")
	require.NoError(t, err)
	require.Len(t, conv, 1)
	require.NotNil(t, conv[0].ProductID)
	assert.Equal(t, "p1", *conv[0].ProductID)
}
