package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
)

// MaxMessageLength bounds a single chat message in characters.
const MaxMessageLength = 2000

// Conversation is a message thread between buyers and farmers.
type Conversation struct {
	ID           uuid.UUID         `json:"id"`
	Participants []uuid.UUID       `json:"participants"`
	Messages     []Message         `json:"messages"`
	LastMessage  *LastMessage      `json:"lastMessage"`
	UnreadCounts map[uuid.UUID]int `json:"unreadCounts"`
	Version      int               `json:"-"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// LastMessage is the denormalised preview of the newest message.
type LastMessage struct {
	Text      string    `json:"text"`
	Sender    uuid.UUID `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// Message is one chat line. ReadBy holds a flag per participant; the sender
// starts as read and everyone else as unread.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"-"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender"`
	Text           string    `db:"text" json:"text"`
	ReadBy         ReadMap   `db:"read_by" json:"read"`
	CreatedAt      time.Time `db:"created_at" json:"timestamp"`
}

// ReadMap is stored as JSONB.
type ReadMap map[uuid.UUID]bool

// Value implements driver.Valuer.
func (m ReadMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[uuid.UUID]bool(m))
}

// Scan implements sql.Scanner.
func (m *ReadMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*m = ReadMap{}
		return nil
	default:
		return errors.New("read_by: unsupported source type")
	}
	out := ReadMap{}
	if err := json.Unmarshal(raw, (*map[uuid.UUID]bool)(&out)); err != nil {
		return err
	}
	*m = out
	return nil
}

// NewConversation starts an empty thread between participants.
func NewConversation(participants []uuid.UUID, now time.Time) (*Conversation, error) {
	c := &Conversation{
		ID:           uuid.New(),
		Participants: append([]uuid.UUID(nil), participants...),
		Messages:     []Message{},
		UnreadCounts: make(map[uuid.UUID]int, len(participants)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, p := range participants {
		c.UnreadCounts[p] = 0
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate enforces at least two distinct participants.
func (c *Conversation) Validate() error {
	if len(c.Participants) < 2 {
		return apperr.ErrTooFewParticipants
	}
	seen := make(map[uuid.UUID]struct{}, len(c.Participants))
	for _, p := range c.Participants {
		if p == uuid.Nil {
			return apperr.ErrTooFewParticipants
		}
		if _, dup := seen[p]; dup {
			return apperr.ErrTooFewParticipants
		}
		seen[p] = struct{}{}
	}
	return nil
}

// HasParticipant reports membership.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// IsPair reports whether the participant set is exactly {a, b}.
func (c *Conversation) IsPair(a, b uuid.UUID) bool {
	if len(c.Participants) != 2 {
		return false
	}
	return c.HasParticipant(a) && c.HasParticipant(b)
}

// PairKey identifies the unordered pair {a, b}.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if y < x {
		x, y = y, x
	}
	return x + ":" + y
}

// PairKey returns the pair key for two-party threads and "" otherwise.
func (c *Conversation) PairKey() string {
	if len(c.Participants) != 2 {
		return ""
	}
	return PairKey(c.Participants[0], c.Participants[1])
}

// UnreadFor returns userID's unread counter, zero when absent.
func (c *Conversation) UnreadFor(userID uuid.UUID) int {
	return c.UnreadCounts[userID]
}

// FindMessage returns the message with id, or nil.
func (c *Conversation) FindMessage(id uuid.UUID) *Message {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return &c.Messages[i]
		}
	}
	return nil
}

// AppendMessage adds a message from sender and bumps every other
// participant's unread counter by one.
func (c *Conversation) AppendMessage(sender uuid.UUID, text string, now time.Time) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, apperr.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return Message{}, apperr.InvalidArgf("Message must be at most %d characters", MaxMessageLength)
	}
	if !c.HasParticipant(sender) {
		return Message{}, apperr.ErrNotParticipant
	}

	readBy := make(ReadMap, len(c.Participants))
	for _, p := range c.Participants {
		readBy[p] = p == sender
	}

	msg := Message{
		ID:             uuid.New(),
		ConversationID: c.ID,
		SenderID:       sender,
		Text:           text,
		ReadBy:         readBy,
		CreatedAt:      now,
	}
	c.Messages = append(c.Messages, msg)
	c.LastMessage = &LastMessage{Text: text, Sender: sender, Timestamp: now}

	if c.UnreadCounts == nil {
		c.UnreadCounts = make(map[uuid.UUID]int, len(c.Participants))
	}
	for _, p := range c.Participants {
		if p != sender {
			c.UnreadCounts[p]++
		}
	}
	c.UpdatedAt = now
	return msg, nil
}

// MarkReadBy zeroes reader's counter and marks every message authored by
// someone else as read by reader. Messages never go back to unread.
func (c *Conversation) MarkReadBy(reader uuid.UUID) error {
	if !c.HasParticipant(reader) {
		return apperr.ErrNotParticipant
	}
	if c.UnreadCounts == nil {
		c.UnreadCounts = make(map[uuid.UUID]int, len(c.Participants))
	}
	c.UnreadCounts[reader] = 0
	for i := range c.Messages {
		msg := &c.Messages[i]
		if msg.SenderID == reader {
			continue
		}
		if msg.ReadBy == nil {
			msg.ReadBy = ReadMap{}
		}
		msg.ReadBy[reader] = true
	}
	return nil
}

// ConversationSummary is a list entry annotated for the caller.
type ConversationSummary struct {
	ID           uuid.UUID     `json:"id"`
	Participants []UserSummary `json:"participants"`
	LastMessage  *LastMessage  `json:"lastMessage"`
	UnreadCount  int           `json:"unreadCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ConversationDetail is a full thread annotated for the caller.
type ConversationDetail struct {
	ID           uuid.UUID     `json:"id"`
	Participants []UserSummary `json:"participants"`
	Messages     []Message     `json:"messages"`
	LastMessage  *LastMessage  `json:"lastMessage"`
	UnreadCount  int           `json:"unreadCount"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// ConversationRequest is used to open a thread with another user.
type ConversationRequest struct {
	ParticipantID string `json:"participantId"`
}

// MessageRequest is used to send a message.
type MessageRequest struct {
	Text string `json:"text"`
}
