package handlers

import (
	"net/http"
	"strconv"

	"github.com/jonp-h/TillerQuest-sub003/internal/gamelog"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves system message endpoints.
type MessageHandler struct {
	notifier *gamelog.Notifier
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(notifier *gamelog.Notifier) *MessageHandler {
	return &MessageHandler{notifier: notifier}
}

// Unread lists the messages the actor has not acknowledged.
func (h *MessageHandler) Unread(c *gin.Context) {
	actorID := c.GetUint64(ContextActorID)
	messages, errUnread := h.notifier.Unread(c.Request.Context(), actorID)
	if errUnread != nil {
		respondError(c, http.StatusInternalServerError, "failed to load messages")
		return
	}
	respondOK(c, messages)
}

// MarkRead acknowledges one message for the actor.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	messageID, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil || messageID == 0 {
		respondError(c, http.StatusBadRequest, "invalid message id")
		return
	}

	actorID := c.GetUint64(ContextActorID)
	if errMark := h.notifier.MarkRead(c.Request.Context(), messageID, actorID); errMark != nil {
		respondError(c, http.StatusInternalServerError, "failed to mark read")
		return
	}
	respondOK(c, gin.H{"message": "acknowledged"})
}
