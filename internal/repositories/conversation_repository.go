package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-chat-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationRepository abstracts conversation persistence. Unread-count
// and archive mutations are single atomic statements against the store, so
// concurrent requests never lose updates to the same counter.
type ConversationRepository interface {
	FindOrCreate(ctx context.Context, userID, otherID int) (models.Conversation, error)
	GetByID(ctx context.Context, conversationID int) (models.Conversation, error)
	GetByParticipants(ctx context.Context, userID, otherID int) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int) ([]models.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID int) error
	Touch(ctx context.Context, conversationID int) error
	IncrementUnread(ctx context.Context, conversationID, userID int) error
	ResetUnread(ctx context.Context, conversationID, userID int) error
	SetArchived(ctx context.Context, conversationID, userID int, archived bool) error
	GetStates(ctx context.Context, conversationID int) ([]models.ParticipantState, error)
	StatesForConversations(ctx context.Context, conversationIDs []int) ([]models.ParticipantState, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// sortPair orders two participant ids so the pair is a canonical key.
func sortPair(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindOrCreate returns the conversation for the participant pair, creating
// it when absent. The upsert on the sorted pair makes find-or-create atomic
// under concurrent first messages between the same two users.
func (r *ConversationRepo) FindOrCreate(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	user1, user2 := sortPair(userID, otherID)

	var conv models.Conversation
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO conversations (user1_id, user2_id) VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) DO UPDATE SET user1_id = conversations.user1_id
        RETURNING id, user1_id, user2_id, last_message_id, created_at, updated_at`,
		user1, user2).StructScan(&conv)
	return conv, err
}

// GetByID fetches a conversation by id.
func (r *ConversationRepo) GetByID(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id, last_message_id, created_at, updated_at FROM conversations WHERE id=$1`,
		conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// GetByParticipants fetches the conversation for the pair without creating it.
func (r *ConversationRepo) GetByParticipants(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	user1, user2 := sortPair(userID, otherID)
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, user1_id, user2_id, last_message_id, created_at, updated_at FROM conversations
        WHERE user1_id=$1 AND user2_id=$2`, user1, user2)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns conversations the user participates in and has not
// archived, most recently active first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT c.id, c.user1_id, c.user2_id, c.last_message_id, c.created_at, c.updated_at
        FROM conversations c
        LEFT JOIN conversation_states cs ON cs.conversation_id = c.id AND cs.user_id=$1
        WHERE (c.user1_id=$1 OR c.user2_id=$1) AND (cs.archived IS NULL OR cs.archived = FALSE)
        ORDER BY c.updated_at DESC`, userID)
	return convs, err
}

// SetLastMessage points the conversation at its newest message and bumps
// updated_at.
func (r *ConversationRepo) SetLastMessage(ctx context.Context, conversationID, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE conversations SET last_message_id=$2, updated_at=NOW() WHERE id=$1`,
		conversationID, messageID)
	return err
}

// Touch bumps updated_at, used by read-state mutations.
func (r *ConversationRepo) Touch(ctx context.Context, conversationID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET updated_at=NOW() WHERE id=$1`, conversationID)
	return err
}

// IncrementUnread adds one to the participant's unread counter as a single
// atomic upsert.
func (r *ConversationRepo) IncrementUnread(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_states (conversation_id, user_id, unread_count) VALUES ($1, $2, 1)
        ON CONFLICT (conversation_id, user_id) DO UPDATE SET unread_count = conversation_states.unread_count + 1`,
		conversationID, userID)
	return err
}

// ResetUnread zeroes the participant's unread counter.
func (r *ConversationRepo) ResetUnread(ctx context.Context, conversationID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_states (conversation_id, user_id, unread_count) VALUES ($1, $2, 0)
        ON CONFLICT (conversation_id, user_id) DO UPDATE SET unread_count = 0`,
		conversationID, userID)
	return err
}

// SetArchived flags or clears the participant's archive state.
func (r *ConversationRepo) SetArchived(ctx context.Context, conversationID, userID int, archived bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_states (conversation_id, user_id, archived) VALUES ($1, $2, $3)
        ON CONFLICT (conversation_id, user_id) DO UPDATE SET archived = EXCLUDED.archived`,
		conversationID, userID, archived)
	return err
}

// GetStates returns the per-participant states of one conversation.
func (r *ConversationRepo) GetStates(ctx context.Context, conversationID int) ([]models.ParticipantState, error) {
	var states []models.ParticipantState
	err := r.db.SelectContext(ctx, &states,
		`SELECT conversation_id, user_id, unread_count, archived FROM conversation_states WHERE conversation_id=$1`,
		conversationID)
	return states, err
}

// StatesForConversations bulk-loads states for a set of conversations.
func (r *ConversationRepo) StatesForConversations(ctx context.Context, conversationIDs []int) ([]models.ParticipantState, error) {
	if len(conversationIDs) == 0 {
		return []models.ParticipantState{}, nil
	}
	var states []models.ParticipantState
	err := r.db.SelectContext(ctx, &states,
		`SELECT conversation_id, user_id, unread_count, archived FROM conversation_states WHERE conversation_id = ANY($1)`,
		pq.Array(conversationIDs))
	return states, err
}
