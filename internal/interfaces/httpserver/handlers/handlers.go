package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/chat"
	"clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/domain/conversation"
	"clippost-server/services/assistant-api/internal/domain/credential"
	"clippost-server/services/assistant-api/internal/infrastructure/auth"
	"clippost-server/services/assistant-api/internal/utils/platformerrors"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat         *ChatHandler
	Confirmation *ConfirmationHandler
	Conversation *ConversationHandler
	Credential   *CredentialHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	chatService *chat.Service,
	broker *confirmation.Broker,
	conversations *conversation.Service,
	credentials *credential.Service,
	adapters chat.AdapterRegistry,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Chat:         NewChatHandler(chatService, log),
		Confirmation: NewConfirmationHandler(broker, log),
		Conversation: NewConversationHandler(conversations, log),
		Credential:   NewCredentialHandler(credentials, adapters, log),
	}
}

// extractSubject pulls the authenticated user ID from the validated token.
func extractSubject(c *gin.Context) string {
	tokenValue, exists := c.Get(auth.ContextTokenKey)
	if !exists {
		return ""
	}
	token, ok := tokenValue.(*jwt.Token)
	if !ok {
		return ""
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(string); ok {
			return sub
		}
	}
	return ""
}

// requireSubject aborts with 401 when the request carries no identity.
func requireSubject(c *gin.Context) (string, bool) {
	userID := extractSubject(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return "", false
	}
	return userID, true
}

// respondError maps domain failures onto HTTP statuses.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		platformerrors.LogError(log, platformErr)
		c.JSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), gin.H{"error": platformErr.Message})
		return
	}

	log.Error().Err(err).Msg("unclassified handler error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
