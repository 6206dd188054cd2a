package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/conversation"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/dto"
)

// ConversationHandler exposes conversation listing and history endpoints.
type ConversationHandler struct {
	service *conversation.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service *conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

// List handles GET /v1/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	conversations, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	payloads := make([]dto.ConversationPayload, len(conversations))
	for i, conv := range conversations {
		payloads[i] = dto.FromConversation(conv)
	}
	c.JSON(http.StatusOK, gin.H{"conversations": payloads})
}

// ListMessages handles GET /v1/conversations/:conversation_id/messages.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	conv, err := h.service.GetOwned(c.Request.Context(), c.Param("conversation_id"), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	messages, err := h.service.History(c.Request.Context(), conv)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	payloads := make([]dto.MessagePayload, len(messages))
	for i, msg := range messages {
		payloads[i] = dto.FromMessage(msg)
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation": dto.FromConversation(conv),
		"messages":     payloads,
	})
}
