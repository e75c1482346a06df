package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
	"github.com/utsav306/farmconnect-sub000/internal/service"
	"github.com/utsav306/farmconnect-sub000/internal/service/servicetest"
)

type chatFixture struct {
	env    *servicetest.Env
	buyer  models.User
	farmer models.User
	convID uuid.UUID
}

func newChat(t *testing.T) chatFixture {
	t.Helper()
	env := servicetest.NewEnv()
	f := chatFixture{
		env:    env,
		buyer:  env.DB.AddUser("alice"),
		farmer: env.DB.AddUser("greenacres", models.RoleFarmer),
	}
	detail, created, err := env.Services.Conversations.GetOrCreateConversation(context.Background(), f.buyer.ID,
		models.ConversationRequest{ParticipantID: f.farmer.ID.String()})
	require.NoError(t, err)
	require.True(t, created)
	f.convID = detail.ID
	return f
}

func (f chatFixture) send(t *testing.T, from uuid.UUID, text string) *models.Message {
	t.Helper()
	msg, err := f.env.Services.Conversations.SendMessage(context.Background(), f.convID, from, models.MessageRequest{Text: text})
	require.NoError(t, err)
	return msg
}

func TestGetOrCreateConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent from either side", func(t *testing.T) {
		f := newChat(t)
		convs := f.env.Services.Conversations

		again, created, err := convs.GetOrCreateConversation(ctx, f.buyer.ID, models.ConversationRequest{ParticipantID: f.farmer.ID.String()})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, f.convID, again.ID)

		reverse, created, err := convs.GetOrCreateConversation(ctx, f.farmer.ID, models.ConversationRequest{ParticipantID: f.buyer.ID.String()})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, f.convID, reverse.ID)

		require.Len(t, reverse.Participants, 2)
		assert.Equal(t, "alice", reverse.Participants[0].Username)
		assert.Equal(t, "greenacres", reverse.Participants[1].Username)
		assert.Empty(t, reverse.Messages)
		assert.NotNil(t, reverse.Messages)
	})

	t.Run("rejects bad participants", func(t *testing.T) {
		env := servicetest.NewEnv()
		buyer := env.DB.AddUser("alice")
		convs := env.Services.Conversations

		_, _, err := convs.GetOrCreateConversation(ctx, buyer.ID, models.ConversationRequest{ParticipantID: buyer.ID.String()})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

		_, _, err = convs.GetOrCreateConversation(ctx, buyer.ID, models.ConversationRequest{ParticipantID: uuid.NewString()})
		assert.ErrorIs(t, err, apperr.ErrUserNotFound)

		_, _, err = convs.GetOrCreateConversation(ctx, buyer.ID, models.ConversationRequest{ParticipantID: "bob"})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))

		_, _, err = convs.GetOrCreateConversation(ctx, buyer.ID, models.ConversationRequest{})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the other side's unread counter", func(t *testing.T) {
		f := newChat(t)
		msg := f.send(t, f.buyer.ID, "  Are the mangoes ripe?  ")
		f.send(t, f.buyer.ID, "I need 5kg")

		assert.Equal(t, "Are the mangoes ripe?", msg.Text)
		assert.True(t, msg.ReadBy[f.buyer.ID])
		assert.False(t, msg.ReadBy[f.farmer.ID])

		forFarmer, err := f.env.Services.Conversations.GetConversation(ctx, f.convID, f.farmer.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, forFarmer.UnreadCount)
		require.Len(t, forFarmer.Messages, 2)
		require.NotNil(t, forFarmer.LastMessage)
		assert.Equal(t, "I need 5kg", forFarmer.LastMessage.Text)
		assert.Equal(t, f.buyer.ID, forFarmer.LastMessage.Sender)

		forBuyer, err := f.env.Services.Conversations.GetConversation(ctx, f.convID, f.buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, forBuyer.UnreadCount)
	})

	t.Run("notifies the other participants", func(t *testing.T) {
		f := newChat(t)
		f.send(t, f.farmer.ID, "Fresh stock today")

		sent := f.env.Notifier.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, service.EventMessageNew, sent[0].Event)
		assert.Equal(t, []uuid.UUID{f.buyer.ID}, sent[0].UserIDs)
	})

	t.Run("rejects blank and oversized text", func(t *testing.T) {
		f := newChat(t)
		_, err := f.env.Services.Conversations.SendMessage(ctx, f.convID, f.buyer.ID, models.MessageRequest{Text: " \n\t"})
		assert.ErrorIs(t, err, apperr.ErrEmptyMessage)

		long := strings.Repeat("a", models.MaxMessageLength+1)
		_, err = f.env.Services.Conversations.SendMessage(ctx, f.convID, f.buyer.ID, models.MessageRequest{Text: long})
		assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	})

	t.Run("outsiders cannot read or write", func(t *testing.T) {
		f := newChat(t)
		outsider := f.env.DB.AddUser("mallory")

		_, err := f.env.Services.Conversations.SendMessage(ctx, f.convID, outsider.ID, models.MessageRequest{Text: "hi"})
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)

		_, err = f.env.Services.Conversations.GetConversation(ctx, f.convID, outsider.ID)
		assert.ErrorIs(t, err, apperr.ErrNotParticipant)

		_, err = f.env.Services.Conversations.GetConversation(ctx, uuid.New(), f.buyer.ID)
		assert.ErrorIs(t, err, apperr.ErrConversationNotFound)
	})
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()

	t.Run("zeroes the counter and flags foreign messages", func(t *testing.T) {
		f := newChat(t)
		f.send(t, f.buyer.ID, "one")
		f.send(t, f.buyer.ID, "two")
		f.send(t, f.farmer.ID, "three")

		detail, err := f.env.Services.Conversations.MarkAsRead(ctx, f.convID, f.farmer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, detail.UnreadCount)
		for _, m := range detail.Messages {
			assert.True(t, m.ReadBy[f.farmer.ID], m.Text)
		}
		assert.False(t, detail.Messages[2].ReadBy[f.buyer.ID])

		forBuyer, err := f.env.Services.Conversations.GetConversation(ctx, f.convID, f.buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, forBuyer.UnreadCount)

		sent := f.env.Notifier.Sent()
		last := sent[len(sent)-1]
		assert.Equal(t, service.EventConversationRead, last.Event)
		assert.Equal(t, []uuid.UUID{f.buyer.ID}, last.UserIDs)
	})

	t.Run("through a message", func(t *testing.T) {
		f := newChat(t)
		msg := f.send(t, f.buyer.ID, "hello")

		detail, err := f.env.Services.Conversations.MarkMessageAsRead(ctx, f.convID, msg.ID, f.farmer.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, detail.UnreadCount)
		assert.True(t, detail.Messages[0].ReadBy[f.farmer.ID])

		_, err = f.env.Services.Conversations.MarkMessageAsRead(ctx, f.convID, uuid.New(), f.farmer.ID)
		assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newChat(t)
		f.send(t, f.buyer.ID, "hello")

		first, err := f.env.Services.Conversations.MarkAsRead(ctx, f.convID, f.farmer.ID)
		require.NoError(t, err)
		second, err := f.env.Services.Conversations.MarkAsRead(ctx, f.convID, f.farmer.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Messages, second.Messages)
		assert.Equal(t, 0, second.UnreadCount)
	})
}

func TestConversationSaveRetries(t *testing.T) {
	ctx := context.Background()

	t.Run("a lost race is replayed", func(t *testing.T) {
		f := newChat(t)
		f.env.DB.FailNext("conversations.save", apperr.ErrConcurrentUpdate, 2)

		f.send(t, f.buyer.ID, "eventually")

		detail, err := f.env.Services.Conversations.GetConversation(ctx, f.convID, f.farmer.ID)
		require.NoError(t, err)
		assert.Len(t, detail.Messages, 1)
		assert.Equal(t, 1, detail.UnreadCount)
	})

	t.Run("gives up after three conflicts", func(t *testing.T) {
		f := newChat(t)
		f.env.DB.FailNext("conversations.save", apperr.ErrConcurrentUpdate, 3)

		_, err := f.env.Services.Conversations.SendMessage(ctx, f.convID, f.buyer.ID, models.MessageRequest{Text: "lost"})
		assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)
		assert.Empty(t, f.env.Notifier.Sent())
	})

	t.Run("stale version is refused by the store", func(t *testing.T) {
		f := newChat(t)
		stale, err := f.env.DB.Conversations.GetByID(ctx, f.convID)
		require.NoError(t, err)
		f.send(t, f.buyer.ID, "newer")

		_, err = stale.AppendMessage(f.farmer.ID, "older", servicetest.Now)
		require.NoError(t, err)
		assert.ErrorIs(t, f.env.DB.Conversations.Save(ctx, stale), apperr.ErrConcurrentUpdate)
	})
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	f := newChat(t)
	other := f.env.DB.AddUser("hillside", models.RoleFarmer)
	_, _, err := f.env.Services.Conversations.GetOrCreateConversation(ctx, f.buyer.ID, models.ConversationRequest{ParticipantID: other.ID.String()})
	require.NoError(t, err)

	f.env.Advance(1)
	f.send(t, f.farmer.ID, "ping")

	list, err := f.env.Services.Conversations.ListConversations(ctx, f.buyer.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, f.convID, list[0].ID)
	assert.Equal(t, 1, list[0].UnreadCount)
	assert.Equal(t, 0, list[1].UnreadCount)

	forOther, err := f.env.Services.Conversations.ListConversations(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, forOther, 1)
}
