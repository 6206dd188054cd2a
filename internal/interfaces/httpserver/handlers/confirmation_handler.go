package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/confirmation"
	"clippost-server/services/assistant-api/internal/infrastructure/metrics"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/dto"
)

// ConfirmationHandler exposes the write confirmation endpoint.
type ConfirmationHandler struct {
	broker *confirmation.Broker
	log    zerolog.Logger
}

// NewConfirmationHandler constructs the handler.
func NewConfirmationHandler(broker *confirmation.Broker, log zerolog.Logger) *ConfirmationHandler {
	return &ConfirmationHandler{
		broker: broker,
		log:    log.With().Str("handler", "confirmation").Logger(),
	}
}

// Execute handles POST /v1/confirmations/execute.
func (h *ConfirmationHandler) Execute(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	var req dto.ExecuteConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.broker.Execute(c.Request.Context(), req.ConfirmationID, userID)
	if err != nil {
		metrics.RecordConfirmation("unknown", "failed")
		respondError(c, h.log, err)
		return
	}

	metrics.RecordConfirmation("executed", "success")
	c.JSON(http.StatusOK, dto.ExecuteConfirmationResponse{
		Success: true,
		PostID:  outcome.PostID,
	})
}
