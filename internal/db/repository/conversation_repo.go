package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/utsav306/farmconnect-sub000/internal/apperr"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

type conversationRow struct {
	ID                uuid.UUID      `db:"id"`
	LastMessageText   sql.NullString `db:"last_message_text"`
	LastMessageSender uuid.NullUUID  `db:"last_message_sender"`
	LastMessageAt     sql.NullTime   `db:"last_message_at"`
	Version           int            `db:"version"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (row conversationRow) toModel() models.Conversation {
	c := models.Conversation{
		ID:           row.ID,
		Participants: []uuid.UUID{},
		UnreadCounts: map[uuid.UUID]int{},
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastMessageText.Valid {
		c.LastMessage = &models.LastMessage{
			Text:      row.LastMessageText.String,
			Sender:    row.LastMessageSender.UUID,
			Timestamp: row.LastMessageAt.Time,
		}
	}
	return c
}

type participantRow struct {
	ConversationID uuid.UUID `db:"conversation_id"`
	UserID         uuid.UUID `db:"user_id"`
	UnreadCount    int       `db:"unread_count"`
}

const conversationColumns = `c.id, c.last_message_text, c.last_message_sender, c.last_message_at,
	c.version, c.created_at, c.updated_at`

// ConversationRepository handles conversation and message data access
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID retrieves a conversation with its full message history
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations c WHERE c.id = $1`

	var row conversationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, translate(err, "get conversation", apperr.ErrConversationNotFound)
	}

	conversations := []models.Conversation{row.toModel()}
	if err := r.attachParticipants(ctx, conversations); err != nil {
		return nil, err
	}

	messagesQuery := `
		SELECT id, conversation_id, sender_id, text, read_by, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY seq ASC
	`

	conversation := &conversations[0]
	conversation.Messages = []models.Message{}
	if err := r.db.SelectContext(ctx, &conversation.Messages, messagesQuery, id); err != nil {
		return nil, translate(err, "get messages", nil)
	}

	return conversation, nil
}

// ListByUser retrieves the conversations a user takes part in, most recently
// active first. Messages are not loaded.
func (r *ConversationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.updated_at DESC
	`

	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, translate(err, "list conversations", nil)
	}

	conversations := make([]models.Conversation, len(rows))
	for i, row := range rows {
		conversations[i] = row.toModel()
	}
	if err := r.attachParticipants(ctx, conversations); err != nil {
		return nil, err
	}

	return conversations, nil
}

// FindPair retrieves the two-party conversation between a and b
func (r *ConversationRepository) FindPair(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	var id uuid.UUID
	query := `SELECT id FROM conversations WHERE pair_key = $1`
	if err := r.db.GetContext(ctx, &id, query, models.PairKey(a, b)); err != nil {
		return nil, translate(err, "find conversation", apperr.ErrConversationNotFound)
	}

	return r.GetByID(ctx, id)
}

// Create stores a new conversation. A second two-party thread for the same
// pair is rejected with an AlreadyExists error.
func (r *ConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	if err := conversation.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var pairKey sql.NullString
	if key := conversation.PairKey(); key != "" {
		pairKey = sql.NullString{String: key, Valid: true}
	}

	query := `
		INSERT INTO conversations (id, pair_key, version, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (pair_key) DO NOTHING
	`
	result, err := tx.ExecContext(ctx, query, conversation.ID, pairKey, conversation.CreatedAt, conversation.UpdatedAt)
	if err != nil {
		return translate(err, "create conversation", nil)
	}
	if err := expectRow(result, apperr.AlreadyExists("Conversation already exists")); err != nil {
		return err
	}

	for i, userID := range conversation.Participants {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id, unread_count, position) VALUES ($1, $2, $3, $4)`,
			conversation.ID,
			userID,
			conversation.UnreadFor(userID),
			i,
		)
		if err != nil {
			return translate(err, "add conversation participant", nil)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	conversation.Version = 1
	return nil
}

// Save persists counters, the last-message preview and every message of the
// conversation, then bumps conversation.Version.
func (r *ConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		lastText   sql.NullString
		lastSender uuid.NullUUID
		lastAt     sql.NullTime
	)
	if lm := conversation.LastMessage; lm != nil {
		lastText = sql.NullString{String: lm.Text, Valid: true}
		lastSender = uuid.NullUUID{UUID: lm.Sender, Valid: true}
		lastAt = sql.NullTime{Time: lm.Timestamp, Valid: true}
	}

	query := `
		UPDATE conversations
		SET last_message_text = $1, last_message_sender = $2, last_message_at = $3,
		    version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6
	`
	result, err := tx.ExecContext(ctx, query, lastText, lastSender, lastAt, conversation.UpdatedAt, conversation.ID, conversation.Version)
	if err != nil {
		return translate(err, "update conversation", nil)
	}
	if err := expectRow(result, apperr.ErrConcurrentUpdate); err != nil {
		return err
	}

	for _, userID := range conversation.Participants {
		_, err := tx.ExecContext(
			ctx,
			`UPDATE conversation_participants SET unread_count = $1 WHERE conversation_id = $2 AND user_id = $3`,
			conversation.UnreadFor(userID),
			conversation.ID,
			userID,
		)
		if err != nil {
			return translate(err, "update unread count", nil)
		}
	}

	messageQuery := `
		INSERT INTO messages (id, conversation_id, sender_id, text, read_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET read_by = EXCLUDED.read_by
	`
	for _, msg := range conversation.Messages {
		_, err := tx.ExecContext(ctx, messageQuery, msg.ID, conversation.ID, msg.SenderID, msg.Text, msg.ReadBy, msg.CreatedAt)
		if err != nil {
			return translate(err, "save message", nil)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	conversation.Version++
	return nil
}

func (r *ConversationRepository) attachParticipants(ctx context.Context, conversations []models.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(conversations))
	index := make(map[uuid.UUID]int, len(conversations))
	for i := range conversations {
		ids[i] = conversations[i].ID
		index[conversations[i].ID] = i
	}

	query := `
		SELECT conversation_id, user_id, unread_count
		FROM conversation_participants
		WHERE conversation_id = ANY($1::uuid[])
		ORDER BY conversation_id, position ASC
	`

	var rows []participantRow
	if err := r.db.SelectContext(ctx, &rows, query, uuidArray(ids)); err != nil {
		return translate(err, "get conversation participants", nil)
	}

	for _, row := range rows {
		c := &conversations[index[row.ConversationID]]
		c.Participants = append(c.Participants, row.UserID)
		c.UnreadCounts[row.UserID] = row.UnreadCount
	}

	return nil
}
