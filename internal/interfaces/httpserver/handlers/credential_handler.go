package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clippost-server/services/assistant-api/internal/domain/chat"
	"clippost-server/services/assistant-api/internal/domain/credential"
	"clippost-server/services/assistant-api/internal/interfaces/httpserver/dto"
)

// CredentialHandler exposes provider credential management endpoints.
type CredentialHandler struct {
	service  *credential.Service
	adapters chat.AdapterRegistry
	log      zerolog.Logger
}

// NewCredentialHandler constructs the handler.
func NewCredentialHandler(service *credential.Service, adapters chat.AdapterRegistry, log zerolog.Logger) *CredentialHandler {
	return &CredentialHandler{
		service:  service,
		adapters: adapters,
		log:      log.With().Str("handler", "credential").Logger(),
	}
}

// Save handles PUT /v1/providers/:provider/credential.
func (h *CredentialHandler) Save(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	providerID := c.Param("provider")
	if _, ok := h.adapters.Lookup(providerID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown provider: %s", providerID)})
		return
	}

	var req dto.SaveCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Save(c.Request.Context(), userID, providerID, req.APIKey); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// Delete handles DELETE /v1/providers/:provider/credential.
func (h *CredentialHandler) Delete(c *gin.Context) {
	userID, ok := requireSubject(c)
	if !ok {
		return
	}

	providerID := c.Param("provider")
	if _, ok := h.adapters.Lookup(providerID); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown provider: %s", providerID)})
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, providerID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
