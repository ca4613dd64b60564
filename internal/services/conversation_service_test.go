package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace-chat-service/internal/apperrors"
	"marketplace-chat-service/internal/mocks"
	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/repositories"
	. "marketplace-chat-service/internal/services"
)

type conversationFixture struct {
	convRepo *mocks.ConversationRepositoryMock
	msgRepo  *mocks.MessageRepositoryMock
	userRepo *mocks.UserRepositoryMock
	itemRepo *mocks.ItemRepositoryMock
	events   *mocks.NotifierMock
	service  *ConversationService
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		convRepo: new(mocks.ConversationRepositoryMock),
		msgRepo:  new(mocks.MessageRepositoryMock),
		userRepo: new(mocks.UserRepositoryMock),
		itemRepo: new(mocks.ItemRepositoryMock),
		events:   new(mocks.NotifierMock),
	}
	f.service = NewConversationService(f.convRepo, f.msgRepo, f.userRepo, f.itemRepo, f.events, zap.NewNop())
	return f
}

func (f *conversationFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.convRepo.AssertExpectations(t)
	f.msgRepo.AssertExpectations(t)
	f.userRepo.AssertExpectations(t)
	f.itemRepo.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func intp(v int) *int { return &v }

var (
	alice = models.User{ID: 1, Username: "alice"}
	bob   = models.User{ID: 2, Username: "bob"}
)

func TestSendMessageCreatesConversationAndIncrementsUnread(t *testing.T) {
	f := newConversationFixture()

	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 2).Return(bob, nil).Once()
	f.convRepo.On("FindOrCreate", mock.Anything, 1, 2).Return(models.Conversation{ID: 10, User1ID: 1, User2ID: 2}, nil).Once()
	f.msgRepo.On("Create", mock.Anything, 10, 1, 2, "hello", (*int)(nil)).
		Return(models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hello", Status: models.StatusSent}, nil).Once()
	f.convRepo.On("SetLastMessage", mock.Anything, 10, 7).Return(nil).Once()
	f.convRepo.On("IncrementUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.MessageEvent) bool {
		return ev.Type == models.EventMessageReceived && ev.ConversationID == 10
	})).Return(nil).Once()

	view, err := f.service.SendMessage(context.Background(), 1, 2, "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, view.ID)
	assert.Equal(t, models.StatusSent, view.Status)
	assert.Equal(t, "alice", view.Sender.Username)
	assert.Equal(t, "bob", view.Receiver.Username)
	f.assertExpectations(t)
}

func TestSendMessageResolvesItem(t *testing.T) {
	f := newConversationFixture()

	item := models.Item{ID: 4, OwnerID: 2, Title: "bicycle"}
	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 2).Return(bob, nil).Once()
	f.itemRepo.On("GetByID", mock.Anything, 4).Return(item, nil).Once()
	f.convRepo.On("FindOrCreate", mock.Anything, 1, 2).Return(models.Conversation{ID: 10, User1ID: 1, User2ID: 2}, nil).Once()
	f.msgRepo.On("Create", mock.Anything, 10, 1, 2, "still available?", intp(4)).
		Return(models.Message{ID: 8, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "still available?", ItemID: intp(4), Status: models.StatusSent}, nil).Once()
	f.convRepo.On("SetLastMessage", mock.Anything, 10, 8).Return(nil).Once()
	f.convRepo.On("IncrementUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	view, err := f.service.SendMessage(context.Background(), 1, 2, "still available?", intp(4))
	require.NoError(t, err)
	require.NotNil(t, view.Item)
	assert.Equal(t, "bicycle", view.Item.Title)
	f.assertExpectations(t)
}

func TestSendMessageEmptyContent(t *testing.T) {
	f := newConversationFixture()

	_, err := f.service.SendMessage(context.Background(), 1, 2, "   ", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.assertExpectations(t)
}

func TestSendMessageToSelf(t *testing.T) {
	f := newConversationFixture()

	_, err := f.service.SendMessage(context.Background(), 1, 1, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.assertExpectations(t)
}

func TestSendMessageUnknownReceiver(t *testing.T) {
	f := newConversationFixture()

	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 99).Return(models.User{}, repositories.ErrUserNotFound).Once()

	_, err := f.service.SendMessage(context.Background(), 1, 99, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.assertExpectations(t)
}

func TestSendMessagePublishFailureIsNotFatal(t *testing.T) {
	f := newConversationFixture()

	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 2).Return(bob, nil).Once()
	f.convRepo.On("FindOrCreate", mock.Anything, 1, 2).Return(models.Conversation{ID: 10, User1ID: 1, User2ID: 2}, nil).Once()
	f.msgRepo.On("Create", mock.Anything, 10, 1, 2, "hi", (*int)(nil)).
		Return(models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent}, nil).Once()
	f.convRepo.On("SetLastMessage", mock.Anything, 10, 7).Return(nil).Once()
	f.convRepo.On("IncrementUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	view, err := f.service.SendMessage(context.Background(), 1, 2, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, view.ID)
	f.assertExpectations(t)
}

func TestMarkMessageAsReadResetsUnread(t *testing.T) {
	f := newConversationFixture()

	sent := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent}
	read := sent
	read.Status = models.StatusRead

	f.msgRepo.On("GetByID", mock.Anything, 7).Return(sent, nil).Once()
	f.msgRepo.On("MarkRead", mock.Anything, 7).Return(nil).Once()
	f.msgRepo.On("GetByID", mock.Anything, 7).Return(read, nil).Once()
	f.convRepo.On("ResetUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.convRepo.On("Touch", mock.Anything, 10).Return(nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.events.On("Publish", mock.Anything, mock.MatchedBy(func(ev models.MessageEvent) bool {
		return ev.Type == models.EventMessageRead && ev.Message.Status == models.StatusRead
	})).Return(nil).Once()

	view, err := f.service.MarkMessageAsRead(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, view.Status)
	f.assertExpectations(t)
}

func TestMarkMessageAsReadIdempotent(t *testing.T) {
	f := newConversationFixture()

	read := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusRead}

	f.msgRepo.On("GetByID", mock.Anything, 7).Return(read, nil).Once()
	f.convRepo.On("ResetUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.convRepo.On("Touch", mock.Anything, 10).Return(nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	view, err := f.service.MarkMessageAsRead(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, view.Status)
	f.msgRepo.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestMarkMessageAsReadOnlyReceiver(t *testing.T) {
	f := newConversationFixture()

	sent := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Status: models.StatusSent}
	f.msgRepo.On("GetByID", mock.Anything, 7).Return(sent, nil).Once()

	_, err := f.service.MarkMessageAsRead(context.Background(), 7, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
	f.assertExpectations(t)
}

func TestMarkMessageAsReadNotFound(t *testing.T) {
	f := newConversationFixture()

	f.msgRepo.On("GetByID", mock.Anything, 404).Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	_, err := f.service.MarkMessageAsRead(context.Background(), 404, 2)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.assertExpectations(t)
}

func TestMarkMessageAsDeliveredAdvancesSent(t *testing.T) {
	f := newConversationFixture()

	sent := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent}
	delivered := sent
	delivered.Status = models.StatusDelivered

	f.msgRepo.On("GetByID", mock.Anything, 7).Return(sent, nil).Once()
	f.msgRepo.On("MarkDelivered", mock.Anything, 7).Return(nil).Once()
	f.msgRepo.On("GetByID", mock.Anything, 7).Return(delivered, nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	view, err := f.service.MarkMessageAsDelivered(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, view.Status)
	f.assertExpectations(t)
}

func TestMarkMessageAsDeliveredDoesNotRegressRead(t *testing.T) {
	f := newConversationFixture()

	read := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusRead}

	f.msgRepo.On("GetByID", mock.Anything, 7).Return(read, nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	view, err := f.service.MarkMessageAsDelivered(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, view.Status)
	f.msgRepo.AssertNotCalled(t, "MarkDelivered", mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestMarkMessageAsDeliveredOnlyReceiver(t *testing.T) {
	f := newConversationFixture()

	sent := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Status: models.StatusSent}
	f.msgRepo.On("GetByID", mock.Anything, 7).Return(sent, nil).Once()

	_, err := f.service.MarkMessageAsDelivered(context.Background(), 7, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
	f.assertExpectations(t)
}

func TestListConversationsResolvesViews(t *testing.T) {
	f := newConversationFixture()

	now := time.Now()
	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2, LastMessageID: intp(7), CreatedAt: now, UpdatedAt: now}
	last := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent, CreatedAt: now, UpdatedAt: now}

	f.convRepo.On("ListForUser", mock.Anything, 1).Return([]models.Conversation{conv}, nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.msgRepo.On("BulkByIDs", mock.Anything, []int{7}).Return([]models.Message{last}, nil).Once()
	f.itemRepo.On("BulkByIDs", mock.Anything, []int{}).Return([]models.Item{}, nil).Once()
	f.convRepo.On("StatesForConversations", mock.Anything, []int{10}).Return([]models.ParticipantState{
		{ConversationID: 10, UserID: 2, UnreadCount: 3},
		{ConversationID: 10, UserID: 1, UnreadCount: 0},
	}, nil).Once()

	views, err := f.service.ListConversations(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].LastMessage)
	assert.Equal(t, "hi", views[0].LastMessage.Content)
	assert.Equal(t, map[int]int{2: 3}, views[0].UnreadCounts)
	assert.Len(t, views[0].Participants, 2)
	f.assertExpectations(t)
}

func TestListMessagesNoConversationIsEmpty(t *testing.T) {
	f := newConversationFixture()

	f.convRepo.On("GetByParticipants", mock.Anything, 1, 2).Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	views, err := f.service.ListMessages(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, views)
	f.assertExpectations(t)
}

func TestListMessagesResolvesHistory(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	msgs := []models.Message{
		{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusRead},
		{ID: 8, ConversationID: 10, SenderID: 2, ReceiverID: 1, Content: "hey", Status: models.StatusSent},
	}

	f.convRepo.On("GetByParticipants", mock.Anything, 1, 2).Return(conv, nil).Once()
	f.msgRepo.On("ListByConversation", mock.Anything, 10).Return(msgs, nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.itemRepo.On("BulkByIDs", mock.Anything, []int{}).Return([]models.Item{}, nil).Once()

	views, err := f.service.ListMessages(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, 7, views[0].ID)
	assert.Equal(t, 8, views[1].ID)
	assert.Equal(t, "bob", views[1].Sender.Username)
	f.assertExpectations(t)
}

func TestArchiveRequiresParticipant(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	f.convRepo.On("GetByID", mock.Anything, 10).Return(conv, nil).Once()

	_, err := f.service.Archive(context.Background(), 10, 9)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthorized)
	f.assertExpectations(t)
}

func TestArchiveSetsFlagForCallerOnly(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	f.convRepo.On("GetByID", mock.Anything, 10).Return(conv, nil).Once()
	f.convRepo.On("SetArchived", mock.Anything, 10, 1, true).Return(nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.convRepo.On("GetStates", mock.Anything, 10).Return([]models.ParticipantState{
		{ConversationID: 10, UserID: 1, Archived: true},
	}, nil).Once()

	view, err := f.service.Archive(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, view.ID)
	f.assertExpectations(t)
}

func TestUnarchiveClearsFlag(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	f.convRepo.On("GetByID", mock.Anything, 10).Return(conv, nil).Once()
	f.convRepo.On("SetArchived", mock.Anything, 10, 1, false).Return(nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()
	f.convRepo.On("GetStates", mock.Anything, 10).Return([]models.ParticipantState{}, nil).Once()

	_, err := f.service.Unarchive(context.Background(), 10, 1)
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestArchiveNotFound(t *testing.T) {
	f := newConversationFixture()

	f.convRepo.On("GetByID", mock.Anything, 404).Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	_, err := f.service.Archive(context.Background(), 404, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.assertExpectations(t)
}

func TestIsParticipant(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	f.convRepo.On("GetByID", mock.Anything, 10).Return(conv, nil).Twice()
	f.convRepo.On("GetByID", mock.Anything, 404).Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	ok, err := f.service.IsParticipant(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.IsParticipant(context.Background(), 10, 9)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.service.IsParticipant(context.Background(), 404, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	f.assertExpectations(t)
}

// fakeConversationRepo keeps conversations and participant states in memory
// with the same upsert semantics as the store, so archive filtering can be
// exercised end to end through the service.
type fakeConversationRepo struct {
	convs  map[int]models.Conversation
	states map[int]map[int]models.ParticipantState
	nextID int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:  map[int]models.Conversation{},
		states: map[int]map[int]models.ParticipantState{},
		nextID: 1,
	}
}

func (f *fakeConversationRepo) FindOrCreate(_ context.Context, userID, otherID int) (models.Conversation, error) {
	user1, user2 := userID, otherID
	if user1 > user2 {
		user1, user2 = user2, user1
	}
	for _, conv := range f.convs {
		if conv.User1ID == user1 && conv.User2ID == user2 {
			return conv, nil
		}
	}
	conv := models.Conversation{ID: f.nextID, User1ID: user1, User2ID: user2, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	f.convs[conv.ID] = conv
	f.nextID++
	return conv, nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, conversationID int) (models.Conversation, error) {
	conv, ok := f.convs[conversationID]
	if !ok {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return conv, nil
}

func (f *fakeConversationRepo) GetByParticipants(_ context.Context, userID, otherID int) (models.Conversation, error) {
	user1, user2 := userID, otherID
	if user1 > user2 {
		user1, user2 = user2, user1
	}
	for _, conv := range f.convs {
		if conv.User1ID == user1 && conv.User2ID == user2 {
			return conv, nil
		}
	}
	return models.Conversation{}, repositories.ErrConversationNotFound
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, userID int) ([]models.Conversation, error) {
	var convs []models.Conversation
	for _, conv := range f.convs {
		if !conv.HasParticipant(userID) {
			continue
		}
		if st, ok := f.states[conv.ID][userID]; ok && st.Archived {
			continue
		}
		convs = append(convs, conv)
	}
	return convs, nil
}

func (f *fakeConversationRepo) SetLastMessage(_ context.Context, conversationID, messageID int) error {
	conv := f.convs[conversationID]
	conv.LastMessageID = &messageID
	conv.UpdatedAt = time.Now()
	f.convs[conversationID] = conv
	return nil
}

func (f *fakeConversationRepo) Touch(_ context.Context, conversationID int) error {
	conv := f.convs[conversationID]
	conv.UpdatedAt = time.Now()
	f.convs[conversationID] = conv
	return nil
}

func (f *fakeConversationRepo) upsertState(conversationID, userID int, mutate func(*models.ParticipantState)) {
	if f.states[conversationID] == nil {
		f.states[conversationID] = map[int]models.ParticipantState{}
	}
	st, ok := f.states[conversationID][userID]
	if !ok {
		st = models.ParticipantState{ConversationID: conversationID, UserID: userID}
	}
	mutate(&st)
	f.states[conversationID][userID] = st
}

func (f *fakeConversationRepo) IncrementUnread(_ context.Context, conversationID, userID int) error {
	f.upsertState(conversationID, userID, func(st *models.ParticipantState) { st.UnreadCount++ })
	return nil
}

func (f *fakeConversationRepo) ResetUnread(_ context.Context, conversationID, userID int) error {
	f.upsertState(conversationID, userID, func(st *models.ParticipantState) { st.UnreadCount = 0 })
	return nil
}

func (f *fakeConversationRepo) SetArchived(_ context.Context, conversationID, userID int, archived bool) error {
	f.upsertState(conversationID, userID, func(st *models.ParticipantState) { st.Archived = archived })
	return nil
}

func (f *fakeConversationRepo) GetStates(_ context.Context, conversationID int) ([]models.ParticipantState, error) {
	var states []models.ParticipantState
	for _, st := range f.states[conversationID] {
		states = append(states, st)
	}
	return states, nil
}

func (f *fakeConversationRepo) StatesForConversations(_ context.Context, conversationIDs []int) ([]models.ParticipantState, error) {
	var states []models.ParticipantState
	for _, id := range conversationIDs {
		for _, st := range f.states[id] {
			states = append(states, st)
		}
	}
	return states, nil
}

func TestArchivedConversationHiddenForArchiverOnly(t *testing.T) {
	convRepo := newFakeConversationRepo()
	msgRepo := new(mocks.MessageRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	itemRepo := new(mocks.ItemRepositoryMock)
	service := NewConversationService(convRepo, msgRepo, userRepo, itemRepo, nil, zap.NewNop())
	ctx := context.Background()

	userRepo.On("BulkByIDs", mock.Anything, mock.Anything).Return([]models.User{alice, bob}, nil)
	msgRepo.On("BulkByIDs", mock.Anything, mock.Anything).Return([]models.Message{}, nil)
	itemRepo.On("BulkByIDs", mock.Anything, mock.Anything).Return([]models.Item{}, nil)

	conv, err := convRepo.FindOrCreate(ctx, 1, 2)
	require.NoError(t, err)

	listFor := func(userID int) []models.ConversationView {
		views, err := service.ListConversations(ctx, userID)
		require.NoError(t, err)
		return views
	}
	require.Len(t, listFor(1), 1)
	require.Len(t, listFor(2), 1)

	_, err = service.Archive(ctx, conv.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, listFor(1))
	require.Len(t, listFor(2), 1)

	_, err = service.Unarchive(ctx, conv.ID, 1)
	require.NoError(t, err)
	require.Len(t, listFor(1), 1)
	require.Len(t, listFor(2), 1)
}

func TestSendMessageLeavesArchiveFlagsAlone(t *testing.T) {
	f := newConversationFixture()

	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 2).Return(bob, nil).Once()
	f.convRepo.On("FindOrCreate", mock.Anything, 1, 2).Return(models.Conversation{ID: 10, User1ID: 1, User2ID: 2}, nil).Once()
	f.msgRepo.On("Create", mock.Anything, 10, 1, 2, "hi", (*int)(nil)).
		Return(models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent}, nil).Once()
	f.convRepo.On("SetLastMessage", mock.Anything, 10, 7).Return(nil).Once()
	f.convRepo.On("IncrementUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.service.SendMessage(context.Background(), 1, 2, "hi", nil)
	require.NoError(t, err)
	f.convRepo.AssertNotCalled(t, "SetArchived", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.assertExpectations(t)
}

func TestSendThenReadFlow(t *testing.T) {
	f := newConversationFixture()

	conv := models.Conversation{ID: 10, User1ID: 1, User2ID: 2}
	sent := models.Message{ID: 7, ConversationID: 10, SenderID: 1, ReceiverID: 2, Content: "hi", Status: models.StatusSent}
	read := sent
	read.Status = models.StatusRead

	f.userRepo.On("GetByID", mock.Anything, 1).Return(alice, nil).Once()
	f.userRepo.On("GetByID", mock.Anything, 2).Return(bob, nil).Once()
	f.convRepo.On("FindOrCreate", mock.Anything, 1, 2).Return(conv, nil).Once()
	f.msgRepo.On("Create", mock.Anything, 10, 1, 2, "hi", (*int)(nil)).Return(sent, nil).Once()
	f.convRepo.On("SetLastMessage", mock.Anything, 10, 7).Return(nil).Once()
	f.convRepo.On("IncrementUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.events.On("Publish", mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := f.service.SendMessage(context.Background(), 1, 2, "hi", nil)
	require.NoError(t, err)

	f.msgRepo.On("GetByID", mock.Anything, 7).Return(sent, nil).Once()
	f.msgRepo.On("MarkRead", mock.Anything, 7).Return(nil).Once()
	f.msgRepo.On("GetByID", mock.Anything, 7).Return(read, nil).Once()
	f.convRepo.On("ResetUnread", mock.Anything, 10, 2).Return(nil).Once()
	f.convRepo.On("Touch", mock.Anything, 10).Return(nil).Once()
	f.userRepo.On("BulkByIDs", mock.Anything, []int{1, 2}).Return([]models.User{alice, bob}, nil).Once()

	view, err := f.service.MarkMessageAsRead(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, view.Status)
	f.assertExpectations(t)
}
