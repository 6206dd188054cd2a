package dto

// TurnRequest submits a user message. An empty ConversationID starts a new
// conversation; Provider is then honored for the binding, otherwise ignored.
type TurnRequest struct {
	ConversationID string `json:"conversation_id"`
	Content        string `json:"content" binding:"required"`
	Provider       string `json:"provider"`
}

// ExecuteConfirmationRequest approves a staged write proposal.
type ExecuteConfirmationRequest struct {
	ConfirmationID string `json:"confirmationId" binding:"required"`
}

// SaveCredentialRequest stores an API key for a provider.
type SaveCredentialRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}
