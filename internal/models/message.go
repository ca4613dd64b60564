package models

import "time"

// MessageStatus is the delivery state of a message. It only moves forward:
// SENT -> DELIVERED -> READ, and READ is terminal.
type MessageStatus string

const (
	StatusSent      MessageStatus = "SENT"
	StatusDelivered MessageStatus = "DELIVERED"
	StatusRead      MessageStatus = "READ"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Message is a single message in a conversation.
type Message struct {
	ID             int           `db:"id" json:"id"`
	ConversationID int           `db:"conversation_id" json:"conversation_id"`
	SenderID       int           `db:"sender_id" json:"sender_id"`
	ReceiverID     int           `db:"receiver_id" json:"receiver_id"`
	Content        string        `db:"content" json:"content"`
	ItemID         *int          `db:"item_id" json:"item_id,omitempty"`
	Status         MessageStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// MessageView is the fully resolved message returned at the API boundary and
// carried in notifier events. Computed fields are derived here, at the edge,
// not inside the model.
type MessageView struct {
	ID             int           `json:"id"`
	ConversationID int           `json:"conversation_id"`
	Sender         UserRef       `json:"sender"`
	Receiver       UserRef       `json:"receiver"`
	Content        string        `json:"content"`
	Item           *ItemRef      `json:"item,omitempty"`
	Status         MessageStatus `json:"status"`
	CreatedAt      string        `json:"created_at"`
	UpdatedAt      string        `json:"updated_at"`
}

// NewMessageView resolves a message against its sender, receiver and optional item.
func NewMessageView(msg Message, sender, receiver User, item *Item) MessageView {
	view := MessageView{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Sender:         sender.Ref(),
		Receiver:       receiver.Ref(),
		Content:        msg.Content,
		Status:         msg.Status,
		CreatedAt:      msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      msg.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if item != nil {
		ref := item.Ref()
		view.Item = &ref
	}
	return view
}

// Event types carried over the notifier and websocket connections.
const (
	EventMessageReceived  = "message_received"
	EventMessageDelivered = "message_delivered"
	EventMessageRead      = "message_read"
)

// MessageEvent is broadcast to subscribers of a conversation.
type MessageEvent struct {
	Type           string       `json:"type"`
	ConversationID int          `json:"conversation_id"`
	Message        *MessageView `json:"message,omitempty"`
}
