package v1

import (
	"github.com/gin-gonic/gin"

	"clippost-server/services/assistant-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

// NewRoutes builds the v1 route registrar.
func NewRoutes(handlerProvider *handlers.Provider) *Routes {
	return &Routes{
		handlers: handlerProvider,
	}
}

// Register attaches all v1 routes under the /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")

	group.POST("/chat/turns", r.handlers.Chat.SubmitTurn)
	group.POST("/confirmations/execute", r.handlers.Confirmation.Execute)

	group.GET("/conversations", r.handlers.Conversation.List)
	group.GET("/conversations/:conversation_id/messages", r.handlers.Conversation.ListMessages)

	group.PUT("/providers/:provider/credential", r.handlers.Credential.Save)
	group.DELETE("/providers/:provider/credential", r.handlers.Credential.Delete)
}
