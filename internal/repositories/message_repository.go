package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-chat-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts message persistence.
type MessageRepository interface {
	Create(ctx context.Context, conversationID, senderID, receiverID int, content string, itemID *int) (models.Message, error)
	GetByID(ctx context.Context, messageID int) (models.Message, error)
	ListByConversation(ctx context.Context, conversationID int) ([]models.Message, error)
	BulkByIDs(ctx context.Context, ids []int) ([]models.Message, error)
	MarkDelivered(ctx context.Context, messageID int) error
	MarkRead(ctx context.Context, messageID int) error
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a new message with status SENT.
func (r *MessageRepo) Create(ctx context.Context, conversationID, senderID, receiverID int, content string, itemID *int) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, receiver_id, content, item_id) VALUES ($1, $2, $3, $4, $5)
        RETURNING id, conversation_id, sender_id, receiver_id, content, item_id, status, created_at, updated_at`,
		conversationID, senderID, receiverID, content, itemID).StructScan(&msg)
	return msg, err
}

// GetByID retrieves a single message.
func (r *MessageRepo) GetByID(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, conversation_id, sender_id, receiver_id, content, item_id, status, created_at, updated_at
        FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListByConversation returns the full thread oldest first. The serial id is
// the tie-break for messages created within the same clock tick, so the
// order is stable.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, conversation_id, sender_id, receiver_id, content, item_id, status, created_at, updated_at
        FROM messages WHERE conversation_id=$1
        ORDER BY created_at ASC, id ASC`, conversationID)
	return msgs, err
}

// BulkByIDs fetches multiple messages in one query.
func (r *MessageRepo) BulkByIDs(ctx context.Context, ids []int) ([]models.Message, error) {
	if len(ids) == 0 {
		return []models.Message{}, nil
	}
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, conversation_id, sender_id, receiver_id, content, item_id, status, created_at, updated_at
        FROM messages WHERE id = ANY($1)`, pq.Array(ids))
	return msgs, err
}

// MarkDelivered advances SENT to DELIVERED. A message already DELIVERED or
// READ is left untouched, so the status never moves backward.
func (r *MessageRepo) MarkDelivered(ctx context.Context, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status='DELIVERED', updated_at=NOW() WHERE id=$1 AND status='SENT'`, messageID)
	return err
}

// MarkRead advances the message to READ. Re-marking an already READ message
// is a no-op.
func (r *MessageRepo) MarkRead(ctx context.Context, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status='READ', updated_at=NOW() WHERE id=$1 AND status <> 'READ'`, messageID)
	return err
}
