package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/services"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindOrCreate(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByID(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetByParticipants(ctx context.Context, userID, otherID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.Conversation, error) {
	args := m.Called(ctx, userID)
	var convs []models.Conversation
	if val := args.Get(0); val != nil {
		convs = val.([]models.Conversation)
	}
	return convs, args.Error(1)
}

func (m *ConversationRepositoryMock) SetLastMessage(ctx context.Context, conversationID, messageID int) error {
	args := m.Called(ctx, conversationID, messageID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) Touch(ctx context.Context, conversationID int) error {
	args := m.Called(ctx, conversationID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) IncrementUnread(ctx context.Context, conversationID, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) ResetUnread(ctx context.Context, conversationID, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetArchived(ctx context.Context, conversationID, userID int, archived bool) error {
	args := m.Called(ctx, conversationID, userID, archived)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) GetStates(ctx context.Context, conversationID int) ([]models.ParticipantState, error) {
	args := m.Called(ctx, conversationID)
	var states []models.ParticipantState
	if val := args.Get(0); val != nil {
		states = val.([]models.ParticipantState)
	}
	return states, args.Error(1)
}

func (m *ConversationRepositoryMock) StatesForConversations(ctx context.Context, conversationIDs []int) ([]models.ParticipantState, error) {
	args := m.Called(ctx, conversationIDs)
	var states []models.ParticipantState
	if val := args.Get(0); val != nil {
		states = val.([]models.ParticipantState)
	}
	return states, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, conversationID, senderID, receiverID int, content string, itemID *int) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, receiverID, content, itemID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) BulkByIDs(ctx context.Context, ids []int) ([]models.Message, error) {
	args := m.Called(ctx, ids)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkDelivered(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) Create(ctx context.Context, username, email, passwordHash, avatarURL string) (models.User, error) {
	args := m.Called(ctx, username, email, passwordHash, avatarURL)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) BulkByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type ItemRepositoryMock struct {
	mock.Mock
}

func (m *ItemRepositoryMock) Create(ctx context.Context, ownerID int, title, description string, imageURLs []string) (models.Item, error) {
	args := m.Called(ctx, ownerID, title, description, imageURLs)
	var item models.Item
	if val := args.Get(0); val != nil {
		item = val.(models.Item)
	}
	return item, args.Error(1)
}

func (m *ItemRepositoryMock) GetByID(ctx context.Context, itemID int) (models.Item, error) {
	args := m.Called(ctx, itemID)
	var item models.Item
	if val := args.Get(0); val != nil {
		item = val.(models.Item)
	}
	return item, args.Error(1)
}

func (m *ItemRepositoryMock) BulkByIDs(ctx context.Context, ids []int) ([]models.Item, error) {
	args := m.Called(ctx, ids)
	var items []models.Item
	if val := args.Get(0); val != nil {
		items = val.([]models.Item)
	}
	return items, args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Publish(ctx context.Context, event models.MessageEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *NotifierMock) Subscribe(ctx context.Context, handler func(models.MessageEvent)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *UploaderMock) Delete(ctx context.Context, fileURL string) error {
	args := m.Called(ctx, fileURL)
	return args.Error(0)
}

type ConversationsMock struct {
	mock.Mock
}

func (m *ConversationsMock) SendMessage(ctx context.Context, senderID, receiverID int, content string, itemID *int) (models.MessageView, error) {
	args := m.Called(ctx, senderID, receiverID, content, itemID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *ConversationsMock) MarkMessageAsDelivered(ctx context.Context, messageID, callerID int) (models.MessageView, error) {
	args := m.Called(ctx, messageID, callerID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *ConversationsMock) MarkMessageAsRead(ctx context.Context, messageID, callerID int) (models.MessageView, error) {
	args := m.Called(ctx, messageID, callerID)
	var view models.MessageView
	if val := args.Get(0); val != nil {
		view = val.(models.MessageView)
	}
	return view, args.Error(1)
}

func (m *ConversationsMock) ListConversations(ctx context.Context, callerID int) ([]models.ConversationView, error) {
	args := m.Called(ctx, callerID)
	var views []models.ConversationView
	if val := args.Get(0); val != nil {
		views = val.([]models.ConversationView)
	}
	return views, args.Error(1)
}

func (m *ConversationsMock) ListMessages(ctx context.Context, callerID, otherUserID int) ([]models.MessageView, error) {
	args := m.Called(ctx, callerID, otherUserID)
	var views []models.MessageView
	if val := args.Get(0); val != nil {
		views = val.([]models.MessageView)
	}
	return views, args.Error(1)
}

func (m *ConversationsMock) Archive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error) {
	args := m.Called(ctx, conversationID, callerID)
	var view models.ConversationView
	if val := args.Get(0); val != nil {
		view = val.(models.ConversationView)
	}
	return view, args.Error(1)
}

func (m *ConversationsMock) Unarchive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error) {
	args := m.Called(ctx, conversationID, callerID)
	var view models.ConversationView
	if val := args.Get(0); val != nil {
		view = val.(models.ConversationView)
	}
	return view, args.Error(1)
}

func (m *ConversationsMock) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

type ItemsMock struct {
	mock.Mock
}

func (m *ItemsMock) CreateItem(ctx context.Context, ownerID int, title, description string, images []services.ImageUpload) (models.Item, error) {
	args := m.Called(ctx, ownerID, title, description, images)
	var item models.Item
	if val := args.Get(0); val != nil {
		item = val.(models.Item)
	}
	return item, args.Error(1)
}

func (m *ItemsMock) GetItem(ctx context.Context, itemID int) (models.Item, error) {
	args := m.Called(ctx, itemID)
	var item models.Item
	if val := args.Get(0); val != nil {
		item = val.(models.Item)
	}
	return item, args.Error(1)
}
