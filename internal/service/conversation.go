package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

// saveAttempts bounds how often a conversation mutation is replayed after
// losing a version race.
const saveAttempts = 3

const (
	EventMessageNew       = "message.new"
	EventConversationRead = "conversation.read"
)

// ConversationService handles buyer and farmer messaging
type ConversationService struct {
	conversations ConversationStore
	users         UserStore
	notifier      Notifier
	log           *zap.Logger
	now           Clock
}

// NewConversationService creates a new conversation service
func NewConversationService(conversations ConversationStore, users UserStore, notifier Notifier, log *zap.Logger) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		users:         users,
		notifier:      notifier,
		log:           log,
		now:           time.Now,
	}
}

// SetClock replaces the time source.
func (s *ConversationService) SetClock(now Clock) { s.now = now }

// ListConversations returns the user's threads, most recently active first,
// with the caller's unread count
func (s *ConversationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	conversations, err := s.conversations.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for _, c := range conversations {
		ids = append(ids, c.Participants...)
	}
	users, err := s.userSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.ConversationSummary, 0, len(conversations))
	for _, c := range conversations {
		out = append(out, models.ConversationSummary{
			ID:           c.ID,
			Participants: participantsOf(&c, users),
			LastMessage:  c.LastMessage,
			UnreadCount:  c.UnreadFor(userID),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return out, nil
}

// GetConversation returns a thread the requester takes part in
func (s *ConversationService) GetConversation(ctx context.Context, id, requesterID uuid.UUID) (*models.ConversationDetail, error) {
	c, err := s.load(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, c, requesterID)
}

// GetOrCreateConversation returns the two-party thread between the requester
// and participantId, creating it on first contact. created reports whether
// a new thread was stored.
func (s *ConversationService) GetOrCreateConversation(ctx context.Context, requesterID uuid.UUID, req models.ConversationRequest) (detail *models.ConversationDetail, created bool, err error) {
	participantID, err := ParseID(req.ParticipantID, "participantId")
	if err != nil {
		return nil, false, err
	}
	if participantID == requesterID {
		return nil, false, apperr.InvalidArg("You cannot start a conversation with yourself")
	}
	if _, err := s.users.GetByID(ctx, participantID); err != nil {
		return nil, false, err
	}

	c, err := s.conversations.FindPair(ctx, requesterID, participantID)
	switch {
	case err == nil:
		d, err := s.detail(ctx, c, requesterID)
		return d, false, err
	case !errors.Is(err, apperr.ErrConversationNotFound):
		return nil, false, err
	}

	c, err = models.NewConversation([]uuid.UUID{requesterID, participantID}, s.now())
	if err != nil {
		return nil, false, err
	}

	if err := s.conversations.Create(ctx, c); err != nil {
		if apperr.CodeOf(err) != apperr.CodeAlreadyExists {
			return nil, false, err
		}
		// Lost the race to a concurrent first contact.
		if c, err = s.conversations.FindPair(ctx, requesterID, participantID); err != nil {
			return nil, false, err
		}
		d, err := s.detail(ctx, c, requesterID)
		return d, false, err
	}

	s.log.Info("Conversation started",
		zap.String("conversation_id", c.ID.String()),
		zap.String("user_id", requesterID.String()),
		zap.String("participant_id", participantID.String()))

	d, err := s.detail(ctx, c, requesterID)
	return d, true, err
}

// SendMessage appends a message from sender and bumps every other
// participant's unread counter
func (s *ConversationService) SendMessage(ctx context.Context, id, senderID uuid.UUID, req models.MessageRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, apperr.ErrEmptyMessage
	}

	var msg models.Message
	c, err := s.mutate(ctx, id, senderID, func(c *models.Conversation) error {
		var err error
		msg, err = c.AppendMessage(senderID, req.Text, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(others(c, senderID), EventMessageNew, messageEvent{ConversationID: c.ID, Message: msg})
	return &msg, nil
}

// MarkAsRead zeroes the requester's unread counter and marks every message
// from the other participants as read by the requester
func (s *ConversationService) MarkAsRead(ctx context.Context, id, requesterID uuid.UUID) (*models.ConversationDetail, error) {
	c, err := s.mutate(ctx, id, requesterID, func(c *models.Conversation) error {
		return c.MarkReadBy(requesterID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(others(c, requesterID), EventConversationRead, readEvent{ConversationID: c.ID, ReaderID: requesterID})
	return s.detail(ctx, c, requesterID)
}

// MarkMessageAsRead is MarkAsRead addressed through one message, which must
// belong to the conversation
func (s *ConversationService) MarkMessageAsRead(ctx context.Context, id, messageID, requesterID uuid.UUID) (*models.ConversationDetail, error) {
	c, err := s.mutate(ctx, id, requesterID, func(c *models.Conversation) error {
		if c.FindMessage(messageID) == nil {
			return apperr.ErrMessageNotFound
		}
		return c.MarkReadBy(requesterID)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(others(c, requesterID), EventConversationRead, readEvent{ConversationID: c.ID, ReaderID: requesterID})
	return s.detail(ctx, c, requesterID)
}

func (s *ConversationService) load(ctx context.Context, id, requesterID uuid.UUID) (*models.Conversation, error) {
	c, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(requesterID) {
		return nil, apperr.ErrNotParticipant
	}
	return c, nil
}

// mutate loads, applies fn and saves, replaying on a version conflict.
func (s *ConversationService) mutate(ctx context.Context, id, requesterID uuid.UUID, fn func(*models.Conversation) error) (*models.Conversation, error) {
	var err error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		var c *models.Conversation
		if c, err = s.load(ctx, id, requesterID); err != nil {
			return nil, err
		}
		if err = fn(c); err != nil {
			return nil, err
		}
		if err = s.conversations.Save(ctx, c); err == nil {
			return c, nil
		}
		if !errors.Is(err, apperr.ErrConcurrentUpdate) {
			return nil, err
		}
		s.log.Debug("Conversation save conflict, retrying",
			zap.String("conversation_id", id.String()),
			zap.Int("attempt", attempt))
	}
	return nil, err
}

func (s *ConversationService) detail(ctx context.Context, c *models.Conversation, requesterID uuid.UUID) (*models.ConversationDetail, error) {
	users, err := s.userSummaries(ctx, c.Participants)
	if err != nil {
		return nil, err
	}
	messages := c.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	return &models.ConversationDetail{
		ID:           c.ID,
		Participants: participantsOf(c, users),
		Messages:     messages,
		LastMessage:  c.LastMessage,
		UnreadCount:  c.UnreadFor(requesterID),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}, nil
}

func (s *ConversationService) userSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	out := make(map[uuid.UUID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// participantsOf keeps participant order; deleted accounts show up with
// only their id.
func participantsOf(c *models.Conversation, users map[uuid.UUID]models.UserSummary) []models.UserSummary {
	out := make([]models.UserSummary, len(c.Participants))
	for i, id := range c.Participants {
		if u, ok := users[id]; ok {
			out[i] = u
		} else {
			out[i] = models.UserSummary{ID: id}
		}
	}
	return out
}

func others(c *models.Conversation, userID uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userID {
			out = append(out, p)
		}
	}
	return out
}

type messageEvent struct {
	ConversationID uuid.UUID      `json:"conversationId"`
	Message        models.Message `json:"message"`
}

type readEvent struct {
	ConversationID uuid.UUID `json:"conversationId"`
	ReaderID       uuid.UUID `json:"readerId"`
}
