package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"marketplace-chat-service/internal/services"
	"marketplace-chat-service/internal/telemetry"
)

// ConversationHandler exposes the messaging operations over HTTP.
type ConversationHandler struct {
	conversations services.Conversations
	audit         *telemetry.AuditEmitter
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(conversations services.Conversations, audit *telemetry.AuditEmitter) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, audit: audit}
}

type sendMessageRequest struct {
	Content    string `json:"content" binding:"required"`
	ReceiverID int    `json:"receiver_id" binding:"required"`
	ItemID     *int   `json:"item_id"`
}

// SendMessage stores a message addressed to another user.
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.conversations.SendMessage(c.Request.Context(), userID, req.ReceiverID, req.Content, req.ItemID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("message %d sent in conversation %d", msg.ID, msg.ConversationID),
		requestIDFromContext(c), auditUserID(c))
	c.JSON(http.StatusCreated, msg)
}

// MarkMessageAsRead advances the message to READ for the receiving caller.
func (h *ConversationHandler) MarkMessageAsRead(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	messageID, ok := pathInt(c, "message_id")
	if !ok {
		return
	}

	msg, err := h.conversations.MarkMessageAsRead(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("message %d marked read", msg.ID),
		requestIDFromContext(c), auditUserID(c))
	c.JSON(http.StatusOK, msg)
}

// MarkMessageAsDelivered advances the message to DELIVERED for the
// receiving caller.
func (h *ConversationHandler) MarkMessageAsDelivered(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	messageID, ok := pathInt(c, "message_id")
	if !ok {
		return
	}

	msg, err := h.conversations.MarkMessageAsDelivered(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// ListConversations returns the caller's active conversations.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	convs, err := h.conversations.ListConversations(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// ListMessages returns the thread between the caller and another user.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	otherID, ok := pathInt(c, "user_id")
	if !ok {
		return
	}

	msgs, err := h.conversations.ListMessages(c.Request.Context(), userID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ArchiveConversation hides the conversation from the caller's list.
func (h *ConversationHandler) ArchiveConversation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conversationID, ok := pathInt(c, "conversation_id")
	if !ok {
		return
	}

	conv, err := h.conversations.Archive(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO",
		fmt.Sprintf("conversation %d archived", conversationID),
		requestIDFromContext(c), auditUserID(c))
	c.JSON(http.StatusOK, conv)
}

// UnarchiveConversation restores the conversation to the caller's list.
func (h *ConversationHandler) UnarchiveConversation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	conversationID, ok := pathInt(c, "conversation_id")
	if !ok {
		return
	}

	conv, err := h.conversations.Unarchive(c.Request.Context(), conversationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
