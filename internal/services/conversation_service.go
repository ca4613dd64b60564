package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketplace-chat-service/internal/apperrors"
	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/notifier"
	"marketplace-chat-service/internal/observability"
	"marketplace-chat-service/internal/repositories"
)

// Conversations is the messaging operation set exposed to the transport
// layer.
type Conversations interface {
	SendMessage(ctx context.Context, senderID, receiverID int, content string, itemID *int) (models.MessageView, error)
	MarkMessageAsDelivered(ctx context.Context, messageID, callerID int) (models.MessageView, error)
	MarkMessageAsRead(ctx context.Context, messageID, callerID int) (models.MessageView, error)
	ListConversations(ctx context.Context, callerID int) ([]models.ConversationView, error)
	ListMessages(ctx context.Context, callerID, otherUserID int) ([]models.MessageView, error)
	Archive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error)
	Unarchive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error)
	IsParticipant(ctx context.Context, conversationID, userID int) (bool, error)
}

// ConversationService owns two-participant conversations, their message
// history, per-participant unread counters and archival state. All durable
// state lives in the store; every mutation is one atomic statement, so the
// service holds no cross-request state of its own.
type ConversationService struct {
	convRepo repositories.ConversationRepository
	msgRepo  repositories.MessageRepository
	userRepo repositories.UserRepository
	itemRepo repositories.ItemRepository
	events   notifier.Notifier
	logger   *zap.Logger
}

// NewConversationService constructs a ConversationService.
func NewConversationService(
	convRepo repositories.ConversationRepository,
	msgRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	itemRepo repositories.ItemRepository,
	events notifier.Notifier,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		userRepo: userRepo,
		itemRepo: itemRepo,
		events:   events,
		logger:   logger,
	}
}

// SendMessage stores a message from sender to receiver, reusing the
// conversation for the pair or creating it atomically, bumps the receiver's
// unread counter and publishes the resolved message to live subscribers.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, receiverID int, content string, itemID *int) (models.MessageView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.MessageView{}, fmt.Errorf("%w: content must not be empty", apperrors.ErrInvalidInput)
	}
	if senderID == receiverID {
		return models.MessageView{}, fmt.Errorf("%w: cannot message yourself", apperrors.ErrInvalidInput)
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return models.MessageView{}, err
	}
	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.MessageView{}, fmt.Errorf("%w: receiver does not exist", apperrors.ErrInvalidInput)
		}
		return models.MessageView{}, err
	}

	var item *models.Item
	if itemID != nil {
		found, err := s.itemRepo.GetByID(ctx, *itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrItemNotFound) {
				return models.MessageView{}, fmt.Errorf("%w: item does not exist", apperrors.ErrInvalidInput)
			}
			return models.MessageView{}, err
		}
		item = &found
	}

	conv, err := s.convRepo.FindOrCreate(ctx, senderID, receiverID)
	if err != nil {
		return models.MessageView{}, err
	}

	msg, err := s.msgRepo.Create(ctx, conv.ID, senderID, receiverID, content, itemID)
	if err != nil {
		return models.MessageView{}, err
	}

	if err := s.convRepo.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		return models.MessageView{}, err
	}
	if err := s.convRepo.IncrementUnread(ctx, conv.ID, receiverID); err != nil {
		return models.MessageView{}, err
	}

	view := models.NewMessageView(msg, sender, receiver, item)
	s.publish(ctx, models.MessageEvent{
		Type:           models.EventMessageReceived,
		ConversationID: conv.ID,
		Message:        &view,
	})
	observability.IncMessageSent()

	return view, nil
}

// MarkMessageAsDelivered advances a SENT message to DELIVERED. Only the
// receiver may report delivery; a message already DELIVERED or READ is left
// as is.
func (s *ConversationService) MarkMessageAsDelivered(ctx context.Context, messageID, callerID int) (models.MessageView, error) {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return models.MessageView{}, err
	}
	if msg.ReceiverID != callerID {
		return models.MessageView{}, fmt.Errorf("%w: only the receiver can mark delivery", apperrors.ErrNotAuthorized)
	}

	if msg.Status.CanAdvanceTo(models.StatusDelivered) {
		if err := s.msgRepo.MarkDelivered(ctx, messageID); err != nil {
			return models.MessageView{}, err
		}
		if msg, err = s.getMessage(ctx, messageID); err != nil {
			return models.MessageView{}, err
		}
	}

	view, err := s.resolveMessage(ctx, msg)
	if err != nil {
		return models.MessageView{}, err
	}
	s.publish(ctx, models.MessageEvent{
		Type:           models.EventMessageDelivered,
		ConversationID: msg.ConversationID,
		Message:        &view,
	})
	return view, nil
}

// MarkMessageAsRead advances the message to READ and zeroes the caller's
// unread counter for the owning conversation. Re-marking a READ message is
// a no-op success.
func (s *ConversationService) MarkMessageAsRead(ctx context.Context, messageID, callerID int) (models.MessageView, error) {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return models.MessageView{}, err
	}
	if msg.ReceiverID != callerID {
		return models.MessageView{}, fmt.Errorf("%w: only the receiver can mark a message read", apperrors.ErrNotAuthorized)
	}

	if msg.Status != models.StatusRead {
		if err := s.msgRepo.MarkRead(ctx, messageID); err != nil {
			return models.MessageView{}, err
		}
		if msg, err = s.getMessage(ctx, messageID); err != nil {
			return models.MessageView{}, err
		}
	}

	if err := s.convRepo.ResetUnread(ctx, msg.ConversationID, callerID); err != nil {
		return models.MessageView{}, err
	}
	if err := s.convRepo.Touch(ctx, msg.ConversationID); err != nil {
		return models.MessageView{}, err
	}

	view, err := s.resolveMessage(ctx, msg)
	if err != nil {
		return models.MessageView{}, err
	}
	s.publish(ctx, models.MessageEvent{
		Type:           models.EventMessageRead,
		ConversationID: msg.ConversationID,
		Message:        &view,
	})
	observability.IncMessageRead()

	return view, nil
}

// ListConversations returns the caller's non-archived conversations, most
// recently active first, with participants, last message and unread counts
// resolved. Each call re-queries current state.
func (s *ConversationService) ListConversations(ctx context.Context, callerID int) ([]models.ConversationView, error) {
	convs, err := s.convRepo.ListForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	convIDs := make([]int, 0, len(convs))
	userIDSet := map[int]struct{}{}
	userIDs := []int{}
	msgIDs := []int{}
	for _, conv := range convs {
		convIDs = append(convIDs, conv.ID)
		for _, id := range []int{conv.User1ID, conv.User2ID} {
			if _, ok := userIDSet[id]; !ok {
				userIDSet[id] = struct{}{}
				userIDs = append(userIDs, id)
			}
		}
		if conv.LastMessageID != nil {
			msgIDs = append(msgIDs, *conv.LastMessageID)
		}
	}

	usersByID, err := s.usersByID(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	lastMsgs, err := s.msgRepo.BulkByIDs(ctx, msgIDs)
	if err != nil {
		return nil, err
	}
	msgsByID := map[int]models.Message{}
	itemIDs := []int{}
	for _, msg := range lastMsgs {
		msgsByID[msg.ID] = msg
		if msg.ItemID != nil {
			itemIDs = append(itemIDs, *msg.ItemID)
		}
	}
	itemsByID, err := s.itemsByID(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	states, err := s.convRepo.StatesForConversations(ctx, convIDs)
	if err != nil {
		return nil, err
	}
	statesByConv := map[int][]models.ParticipantState{}
	for _, st := range states {
		statesByConv[st.ConversationID] = append(statesByConv[st.ConversationID], st)
	}

	views := make([]models.ConversationView, 0, len(convs))
	for _, conv := range convs {
		participants := []models.User{usersByID[conv.User1ID], usersByID[conv.User2ID]}

		var lastView *models.MessageView
		if conv.LastMessageID != nil {
			if msg, ok := msgsByID[*conv.LastMessageID]; ok {
				var item *models.Item
				if msg.ItemID != nil {
					if found, ok := itemsByID[*msg.ItemID]; ok {
						item = &found
					}
				}
				resolved := models.NewMessageView(msg, usersByID[msg.SenderID], usersByID[msg.ReceiverID], item)
				lastView = &resolved
			}
		}

		views = append(views, models.NewConversationView(conv, participants, lastView, statesByConv[conv.ID]))
	}
	return views, nil
}

// ListMessages returns every message between the caller and the other user,
// oldest first, with sender, receiver and item resolved. No conversation
// yet means an empty sequence, not an error.
func (s *ConversationService) ListMessages(ctx context.Context, callerID, otherUserID int) ([]models.MessageView, error) {
	conv, err := s.convRepo.GetByParticipants(ctx, callerID, otherUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return []models.MessageView{}, nil
		}
		return nil, err
	}

	msgs, err := s.msgRepo.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	usersByID, err := s.usersByID(ctx, []int{conv.User1ID, conv.User2ID})
	if err != nil {
		return nil, err
	}

	itemIDSet := map[int]struct{}{}
	itemIDs := []int{}
	for _, msg := range msgs {
		if msg.ItemID != nil {
			if _, ok := itemIDSet[*msg.ItemID]; !ok {
				itemIDSet[*msg.ItemID] = struct{}{}
				itemIDs = append(itemIDs, *msg.ItemID)
			}
		}
	}
	itemsByID, err := s.itemsByID(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		var item *models.Item
		if msg.ItemID != nil {
			if found, ok := itemsByID[*msg.ItemID]; ok {
				item = &found
			}
		}
		views = append(views, models.NewMessageView(msg, usersByID[msg.SenderID], usersByID[msg.ReceiverID], item))
	}
	return views, nil
}

// Archive hides the conversation from the caller's active list. The message
// history and unread counters are untouched.
func (s *ConversationService) Archive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return models.ConversationView{}, err
	}
	if !conv.HasParticipant(callerID) {
		return models.ConversationView{}, fmt.Errorf("%w: not a participant", apperrors.ErrNotAuthorized)
	}

	if err := s.convRepo.SetArchived(ctx, conversationID, callerID, true); err != nil {
		return models.ConversationView{}, err
	}
	return s.conversationView(ctx, conv)
}

// Unarchive restores the conversation to the caller's active list. Clearing
// an already clear flag is a no-op.
func (s *ConversationService) Unarchive(ctx context.Context, conversationID, callerID int) (models.ConversationView, error) {
	conv, err := s.getConversation(ctx, conversationID)
	if err != nil {
		return models.ConversationView{}, err
	}
	if !conv.HasParticipant(callerID) {
		return models.ConversationView{}, fmt.Errorf("%w: not a participant", apperrors.ErrNotAuthorized)
	}

	if err := s.convRepo.SetArchived(ctx, conversationID, callerID, false); err != nil {
		return models.ConversationView{}, err
	}
	return s.conversationView(ctx, conv)
}

// IsParticipant reports whether the user belongs to the conversation.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID int) (bool, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return false, nil
		}
		return false, err
	}
	return conv.HasParticipant(userID), nil
}

func (s *ConversationService) getMessage(ctx context.Context, messageID int) (models.Message, error) {
	msg, err := s.msgRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.Message{}, fmt.Errorf("%w: message %d", apperrors.ErrNotFound, messageID)
		}
		return models.Message{}, err
	}
	return msg, nil
}

func (s *ConversationService) getConversation(ctx context.Context, conversationID int) (models.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			return models.Conversation{}, fmt.Errorf("%w: conversation %d", apperrors.ErrNotFound, conversationID)
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

func (s *ConversationService) resolveMessage(ctx context.Context, msg models.Message) (models.MessageView, error) {
	usersByID, err := s.usersByID(ctx, []int{msg.SenderID, msg.ReceiverID})
	if err != nil {
		return models.MessageView{}, err
	}

	var item *models.Item
	if msg.ItemID != nil {
		found, err := s.itemRepo.GetByID(ctx, *msg.ItemID)
		if err == nil {
			item = &found
		} else if !errors.Is(err, repositories.ErrItemNotFound) {
			return models.MessageView{}, err
		}
	}

	return models.NewMessageView(msg, usersByID[msg.SenderID], usersByID[msg.ReceiverID], item), nil
}

func (s *ConversationService) conversationView(ctx context.Context, conv models.Conversation) (models.ConversationView, error) {
	usersByID, err := s.usersByID(ctx, []int{conv.User1ID, conv.User2ID})
	if err != nil {
		return models.ConversationView{}, err
	}
	participants := []models.User{usersByID[conv.User1ID], usersByID[conv.User2ID]}

	var lastView *models.MessageView
	if conv.LastMessageID != nil {
		msg, err := s.msgRepo.GetByID(ctx, *conv.LastMessageID)
		if err == nil {
			resolved, err := s.resolveMessage(ctx, msg)
			if err != nil {
				return models.ConversationView{}, err
			}
			lastView = &resolved
		} else if !errors.Is(err, repositories.ErrMessageNotFound) {
			return models.ConversationView{}, err
		}
	}

	states, err := s.convRepo.GetStates(ctx, conv.ID)
	if err != nil {
		return models.ConversationView{}, err
	}

	return models.NewConversationView(conv, participants, lastView, states), nil
}

func (s *ConversationService) usersByID(ctx context.Context, ids []int) (map[int]models.User, error) {
	users, err := s.userRepo.BulkByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

func (s *ConversationService) itemsByID(ctx context.Context, ids []int) (map[int]models.Item, error) {
	items, err := s.itemRepo.BulkByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]models.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return byID, nil
}

// publish is best-effort: the message is already durable, a failed publish
// only costs currently connected subscribers the live event.
func (s *ConversationService) publish(ctx context.Context, event models.MessageEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		observability.IncNotifierPublishError()
		s.logger.Warn("notifier publish failed",
			zap.String("event", event.Type),
			zap.Int("conversation_id", event.ConversationID),
			zap.Error(err))
	}
}
