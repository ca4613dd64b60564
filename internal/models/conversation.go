package models

import "time"

// Conversation links exactly two users. Participants are stored sorted
// (user1_id < user2_id) so the pair itself is the unique lookup key.
type Conversation struct {
	ID            int       `db:"id" json:"id"`
	User1ID       int       `db:"user1_id" json:"user1_id"`
	User2ID       int       `db:"user2_id" json:"user2_id"`
	LastMessageID *int      `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether the user is one of the two participants.
func (c Conversation) HasParticipant(userID int) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the participant opposite to userID.
func (c Conversation) OtherParticipant(userID int) int {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// ParticipantState is one participant's unread counter and archive flag for
// a conversation.
type ParticipantState struct {
	ConversationID int  `db:"conversation_id" json:"conversation_id"`
	UserID         int  `db:"user_id" json:"user_id"`
	UnreadCount    int  `db:"unread_count" json:"unread_count"`
	Archived       bool `db:"archived" json:"archived"`
}

// ConversationView is the resolved conversation shape returned at the API
// boundary: both participants expanded, the last message resolved, and the
// unread map restricted to participants with a positive count.
type ConversationView struct {
	ID           int          `json:"id"`
	Participants []UserRef    `json:"participants"`
	LastMessage  *MessageView `json:"last_message,omitempty"`
	UnreadCounts map[int]int  `json:"unread_counts"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}

// NewConversationView builds the boundary representation of a conversation.
func NewConversationView(conv Conversation, participants []User, lastMessage *MessageView, states []ParticipantState) ConversationView {
	refs := make([]UserRef, 0, len(participants))
	for _, p := range participants {
		refs = append(refs, p.Ref())
	}

	unread := map[int]int{}
	for _, st := range states {
		if st.UnreadCount > 0 {
			unread[st.UserID] = st.UnreadCount
		}
	}

	return ConversationView{
		ID:           conv.ID,
		Participants: refs,
		LastMessage:  lastMessage,
		UnreadCounts: unread,
		CreatedAt:    conv.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    conv.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
