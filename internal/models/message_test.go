package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanAdvanceTo(t *testing.T) {
	assert.True(t, StatusSent.CanAdvanceTo(StatusDelivered))
	assert.True(t, StatusSent.CanAdvanceTo(StatusRead))
	assert.True(t, StatusDelivered.CanAdvanceTo(StatusRead))

	assert.False(t, StatusDelivered.CanAdvanceTo(StatusSent))
	assert.False(t, StatusRead.CanAdvanceTo(StatusDelivered))
	assert.False(t, StatusRead.CanAdvanceTo(StatusRead))
	assert.False(t, MessageStatus("BOGUS").CanAdvanceTo(StatusRead))
	assert.False(t, StatusSent.CanAdvanceTo(MessageStatus("BOGUS")))
}

func TestNewMessageViewResolvesRefs(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	msg := Message{
		ID:             7,
		ConversationID: 10,
		SenderID:       1,
		ReceiverID:     2,
		Content:        "hi",
		Status:         StatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	item := Item{ID: 4, Title: "bicycle", ImageURLs: []string{"https://cdn.example.com/a.jpg"}}

	view := NewMessageView(msg, User{ID: 1, Username: "alice"}, User{ID: 2, Username: "bob"}, &item)
	assert.Equal(t, "alice", view.Sender.Username)
	assert.Equal(t, "bob", view.Receiver.Username)
	assert.Equal(t, now.Format(time.RFC3339Nano), view.CreatedAt)
	if assert.NotNil(t, view.Item) {
		assert.Equal(t, "bicycle", view.Item.Title)
	}

	bare := NewMessageView(msg, User{ID: 1}, User{ID: 2}, nil)
	assert.Nil(t, bare.Item)
}
